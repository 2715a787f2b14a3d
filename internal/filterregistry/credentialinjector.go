package filterregistry

import (
	"fmt"

	credinjectv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/http/credential_injector/v3"
	genericv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/http/injected_credentials/generic/v3"
	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	"google.golang.org/protobuf/types/known/anypb"
)

// CredentialInjectorConfig injects an upstream credential (e.g. a bearer
// token) into requests before they leave the data plane.
type CredentialInjectorConfig struct {
	HeaderName                    string `json:"header_name"`
	CredentialSecretName          string `json:"credential_secret_name"`
	Overwrite                     bool   `json:"overwrite"`
	AllowRequestWithoutCredential bool   `json:"allow_request_without_credential"`
}

func (c CredentialInjectorConfig) Kind() Kind               { return KindCredentialInjector }
func (c CredentialInjectorConfig) CanonicalName() string    { return canonicalNames[KindCredentialInjector] }
func (c CredentialInjectorConfig) DefaultPosition() Position { return PositionCredentialInjector }
func (c CredentialInjectorConfig) SupportsPerRoute() bool    { return true }

func (c CredentialInjectorConfig) genericSecretAny() (*anypb.Any, error) {
	headerName := c.HeaderName
	if headerName == "" {
		headerName = "Authorization"
	}
	return anypb.New(&genericv3.Generic{
		Credential: &core.SdsSecretConfig{Name: c.CredentialSecretName},
		Header:     headerName,
	})
}

func (c CredentialInjectorConfig) Marshal() (*anypb.Any, error) {
	secretAny, err := c.genericSecretAny()
	if err != nil {
		return nil, fmt.Errorf("credential_injector: %w", err)
	}
	return anypb.New(&credinjectv3.CredentialInjector{
		Overwrite:                     c.Overwrite,
		AllowRequestWithoutCredential: c.AllowRequestWithoutCredential,
		CredentialSource:              secretAny,
	})
}

func (c CredentialInjectorConfig) MarshalPerRoute() (*anypb.Any, error) {
	return c.Marshal()
}
