package filterregistry

import (
	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	customresponsev3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/http/custom_response/v3"
	localresponsev3 "github.com/envoyproxy/go-control-plane/envoy/extensions/http/custom_response/local_response_policy/v3"
	xdsmatcherv3 "github.com/cncf/xds/go/xds/type/matcher/v3"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CustomResponseConfig replaces an upstream or locally-generated response
// with a fixed status code and body. Flowplane exposes only the
// unconditional, single-policy shape of the underlying matcher-tree filter
// — per-status-code
// branching is left to the raw escape hatch (RawConfig) for callers who need
// it.
type CustomResponseConfig struct {
	StatusCode  uint32 `json:"status_code"`
	Body        string `json:"body"`
	ContentType string `json:"content_type"`
}

func (c CustomResponseConfig) Kind() Kind               { return KindCustomResponse }
func (c CustomResponseConfig) CanonicalName() string    { return canonicalNames[KindCustomResponse] }
func (c CustomResponseConfig) DefaultPosition() Position { return PositionCustomResponse }
func (c CustomResponseConfig) SupportsPerRoute() bool    { return true }

func (c CustomResponseConfig) policyAny() (*anypb.Any, error) {
	policy := &localresponsev3.LocalResponsePolicy{
		StatusCode: wrapperspb.UInt32(c.StatusCode),
	}
	if c.Body != "" {
		policy.Body = &core.DataSource{
			Specifier: &core.DataSource_InlineString{InlineString: c.Body},
		}
	}
	if c.ContentType != "" {
		policy.ResponseHeadersToAdd = []*core.HeaderValueOption{
			{
				Header:       &core.HeaderValue{Key: "content-type", Value: c.ContentType},
				AppendAction: core.HeaderValueOption_OVERWRITE_IF_EXISTS_OR_ADD,
			},
		}
	}
	return anypb.New(policy)
}

func (c CustomResponseConfig) matcher() (*xdsmatcherv3.Matcher, error) {
	policyAny, err := c.policyAny()
	if err != nil {
		return nil, err
	}
	return &xdsmatcherv3.Matcher{
		OnNoMatch: &xdsmatcherv3.Matcher_OnMatch{
			OnMatch: &xdsmatcherv3.Matcher_OnMatch_Action{
				Action: &core.TypedExtensionConfig{
					Name:        canonicalNames[KindCustomResponse] + ".local_response",
					TypedConfig: policyAny,
				},
			},
		},
	}, nil
}

func (c CustomResponseConfig) Marshal() (*anypb.Any, error) {
	m, err := c.matcher()
	if err != nil {
		return nil, err
	}
	return anypb.New(&customresponsev3.CustomResponse{CustomResponseMatcher: m})
}

func (c CustomResponseConfig) MarshalPerRoute() (*anypb.Any, error) {
	return c.Marshal()
}
