package xdsresource

import (
	"fmt"

	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	tlsv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/transport_sockets/tls/v3"

	"github.com/flowplane/flowplane/internal/model"
)

// BuildSecret translates a Secret resource into its SDS wire form. Material
// is always delivered inline (DataSource_InlineString). Nothing resolves
// ExternalBackendURI to inline material, so a Secret carrying one is
// rejected here.
func BuildSecret(s model.Secret) (*tlsv3.Secret, error) {
	if s.ExternalBackendURI != "" {
		return nil, fmt.Errorf("secret %q: external backend references must be resolved before xDS materialization", s.Name)
	}

	out := &tlsv3.Secret{Name: s.Name}

	switch s.Kind {
	case model.SecretServerCert:
		if s.CertificateChain == "" || s.PrivateKey == "" {
			return nil, fmt.Errorf("secret %q: server_certificate requires certificateChain and privateKey", s.Name)
		}
		out.Type = &tlsv3.Secret_TlsCertificate{
			TlsCertificate: &tlsv3.TlsCertificate{
				CertificateChain: inlineString(s.CertificateChain),
				PrivateKey:       inlineString(s.PrivateKey),
			},
		}
	case model.SecretValidationContext:
		if s.TrustedCA == "" {
			return nil, fmt.Errorf("secret %q: validation_context requires trustedCa", s.Name)
		}
		out.Type = &tlsv3.Secret_ValidationContext{
			ValidationContext: &tlsv3.CertificateValidationContext{
				TrustedCa: inlineString(s.TrustedCA),
			},
		}
	case model.SecretGeneric:
		if s.GenericValue == "" {
			return nil, fmt.Errorf("secret %q: generic requires genericValue", s.Name)
		}
		out.Type = &tlsv3.Secret_GenericSecret{
			GenericSecret: &tlsv3.GenericSecret{
				Secret: inlineString(s.GenericValue),
			},
		}
	default:
		return nil, fmt.Errorf("secret %q: unknown kind %q", s.Name, s.Kind)
	}

	return out, nil
}

func inlineString(v string) *core.DataSource {
	return &core.DataSource{
		Specifier: &core.DataSource_InlineString{InlineString: v},
	}
}
