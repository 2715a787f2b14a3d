package filterregistry

import (
	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	headermutationv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/http/header_mutation/v3"
	"google.golang.org/protobuf/types/known/anypb"
)

// HeaderEntry is one header add rule: Append=false replaces, Append=true
// appends.
type HeaderEntry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Append bool   `json:"append"`
}

// HeaderMutationConfig holds the four mutation lists: request/response
// headers to add, request/response headers to remove.
type HeaderMutationConfig struct {
	RequestHeadersToAdd     []HeaderEntry `json:"request_headers_to_add"`
	RequestHeadersToRemove  []string      `json:"request_headers_to_remove"`
	ResponseHeadersToAdd    []HeaderEntry `json:"response_headers_to_add"`
	ResponseHeadersToRemove []string      `json:"response_headers_to_remove"`
}

func (c HeaderMutationConfig) Kind() Kind               { return KindHeaderMutation }
func (c HeaderMutationConfig) CanonicalName() string    { return canonicalNames[KindHeaderMutation] }
func (c HeaderMutationConfig) DefaultPosition() Position { return PositionHeaderMutation }
func (c HeaderMutationConfig) SupportsPerRoute() bool    { return true }

func buildMutationList(add []HeaderEntry, remove []string) []*headermutationv3.HeaderMutation {
	var out []*headermutationv3.HeaderMutation
	for _, h := range add {
		out = append(out, &headermutationv3.HeaderMutation{
			Action: &headermutationv3.HeaderMutation_Append{
				Append: &core.HeaderValueOption{
					Header:       &core.HeaderValue{Key: h.Key, Value: h.Value},
					AppendAction: appendAction(h.Append),
				},
			},
		})
	}
	for _, k := range remove {
		out = append(out, &headermutationv3.HeaderMutation{
			Action: &headermutationv3.HeaderMutation_Remove{Remove: k},
		})
	}
	return out
}

func appendAction(appendVal bool) core.HeaderValueOption_HeaderAppendAction {
	if appendVal {
		return core.HeaderValueOption_APPEND_IF_EXISTS_OR_ADD
	}
	return core.HeaderValueOption_OVERWRITE_IF_EXISTS_OR_ADD
}

func (c HeaderMutationConfig) mutations() *headermutationv3.Mutations {
	return &headermutationv3.Mutations{
		RequestMutations:  buildMutationList(c.RequestHeadersToAdd, c.RequestHeadersToRemove),
		ResponseMutations: buildMutationList(c.ResponseHeadersToAdd, c.ResponseHeadersToRemove),
	}
}

func (c HeaderMutationConfig) Marshal() (*anypb.Any, error) {
	return anypb.New(&headermutationv3.HeaderMutation{Mutations: c.mutations()})
}

func (c HeaderMutationConfig) MarshalPerRoute() (*anypb.Any, error) {
	return anypb.New(&headermutationv3.HeaderMutationPerRoute{Mutations: c.mutations()})
}
