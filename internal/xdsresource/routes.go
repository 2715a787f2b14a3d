package xdsresource

import (
	"fmt"
	"regexp"

	routev3 "github.com/envoyproxy/go-control-plane/envoy/config/route/v3"
	matcherv3 "github.com/envoyproxy/go-control-plane/envoy/type/matcher/v3"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/flowplane/flowplane/internal/model"
)

// BuildRouteConfiguration translates a RouteConfiguration resource into its
// xDS wire form.
func BuildRouteConfiguration(rc model.RouteConfiguration) (*routev3.RouteConfiguration, error) {
	out := &routev3.RouteConfiguration{Name: rc.Name}
	for _, vh := range rc.VirtualHosts {
		built, err := buildVirtualHost(vh)
		if err != nil {
			return nil, fmt.Errorf("route configuration %q: %w", rc.Name, err)
		}
		out.VirtualHosts = append(out.VirtualHosts, built)
	}
	return out, nil
}

func buildVirtualHost(vh model.VirtualHost) (*routev3.VirtualHost, error) {
	out := &routev3.VirtualHost{
		Name:    vh.Name,
		Domains: vh.Domains,
	}
	for _, rule := range vh.Routes {
		built, err := buildRoute(rule)
		if err != nil {
			return nil, fmt.Errorf("virtual host %q: %w", vh.Name, err)
		}
		out.Routes = append(out.Routes, built)
	}
	perFilter, err := buildPerFilterConfig(vh.PerFilterConfig)
	if err != nil {
		return nil, fmt.Errorf("virtual host %q: %w", vh.Name, err)
	}
	out.TypedPerFilterConfig = perFilter
	return out, nil
}

func buildRoute(rule model.RouteRule) (*routev3.Route, error) {
	match, err := buildRouteMatch(rule.Match)
	if err != nil {
		return nil, fmt.Errorf("route %q: %w", rule.Name, err)
	}

	out := &routev3.Route{Name: rule.Name, Match: match}

	switch rule.Action.Kind {
	case model.ActionForward:
		ra, err := buildForwardAction(rule.Action)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", rule.Name, err)
		}
		out.Action = &routev3.Route_Route{Route: ra}
	case model.ActionWeighted:
		out.Action = &routev3.Route_Route{Route: buildWeightedAction(rule.Action)}
	case model.ActionRedirect:
		out.Action = &routev3.Route_Redirect{Redirect: buildRedirectAction(rule.Action)}
	default:
		return nil, fmt.Errorf("route %q: unknown action kind %q", rule.Name, rule.Action.Kind)
	}

	perFilter, err := buildPerFilterConfig(rule.PerFilterConfig)
	if err != nil {
		return nil, fmt.Errorf("route %q: %w", rule.Name, err)
	}
	out.TypedPerFilterConfig = perFilter

	return out, nil
}

func buildRouteMatch(m model.RouteMatch) (*routev3.RouteMatch, error) {
	out := &routev3.RouteMatch{}

	switch m.Path.Kind {
	case model.PathExact:
		out.PathSpecifier = &routev3.RouteMatch_Path{Path: m.Path.Value}
	case model.PathPrefix:
		out.PathSpecifier = &routev3.RouteMatch_Prefix{Prefix: m.Path.Value}
	case model.PathRegex:
		out.PathSpecifier = &routev3.RouteMatch_SafeRegex{SafeRegex: &matcherv3.RegexMatcher{Regex: m.Path.Value}}
	case model.PathTemplate:
		// A full uri_template matcher extension isn't wired here (no
		// grounded example of its Go shape); templates compile to an
		// equivalent anchored regex instead, which Envoy's safe_regex
		// path matcher evaluates identically for single-segment
		// placeholders like "{id}".
		out.PathSpecifier = &routev3.RouteMatch_SafeRegex{SafeRegex: &matcherv3.RegexMatcher{Regex: templateToRegex(m.Path.Value)}}
	default:
		return nil, fmt.Errorf("unknown path match kind %q", m.Path.Kind)
	}

	for _, h := range m.Headers {
		out.Headers = append(out.Headers, buildHeaderMatcher(h))
	}
	for _, q := range m.QueryParams {
		out.QueryParameters = append(out.QueryParameters, buildQueryParamMatcher(q))
	}

	return out, nil
}

var templatePlaceholder = regexp.MustCompile(`\{[^/{}]+\}`)

func templateToRegex(template string) string {
	var out []byte
	last := 0
	for _, loc := range templatePlaceholder.FindAllStringIndex(template, -1) {
		out = append(out, []byte(regexp.QuoteMeta(template[last:loc[0]]))...)
		out = append(out, []byte("[^/]+")...)
		last = loc[1]
	}
	out = append(out, []byte(regexp.QuoteMeta(template[last:]))...)
	return "^" + string(out) + "$"
}

func buildHeaderMatcher(h model.HeaderMatch) *routev3.HeaderMatcher {
	out := &routev3.HeaderMatcher{
		Name:        h.Name,
		InvertMatch: h.InvertMatch,
	}
	switch {
	case h.PresentOnly:
		out.HeaderMatchSpecifier = &routev3.HeaderMatcher_PresentMatch{PresentMatch: true}
	case h.RegexMatch != "":
		out.HeaderMatchSpecifier = &routev3.HeaderMatcher_StringMatch{
			StringMatch: &matcherv3.StringMatcher{MatchPattern: &matcherv3.StringMatcher_SafeRegex{
				SafeRegex: &matcherv3.RegexMatcher{Regex: h.RegexMatch},
			}},
		}
	case h.PrefixMatch != "":
		out.HeaderMatchSpecifier = &routev3.HeaderMatcher_StringMatch{
			StringMatch: &matcherv3.StringMatcher{MatchPattern: &matcherv3.StringMatcher_Prefix{Prefix: h.PrefixMatch}},
		}
	default:
		out.HeaderMatchSpecifier = &routev3.HeaderMatcher_StringMatch{
			StringMatch: &matcherv3.StringMatcher{MatchPattern: &matcherv3.StringMatcher_Exact{Exact: h.ExactMatch}},
		}
	}
	return out
}

func buildQueryParamMatcher(q model.QueryParamMatch) *routev3.QueryParameterMatcher {
	out := &routev3.QueryParameterMatcher{Name: q.Name}
	switch {
	case q.PresentOnly:
		out.QueryParameterMatchSpecifier = &routev3.QueryParameterMatcher_PresentMatch{PresentMatch: true}
	case q.RegexMatch != "":
		out.QueryParameterMatchSpecifier = &routev3.QueryParameterMatcher_StringMatch{
			StringMatch: &matcherv3.StringMatcher{MatchPattern: &matcherv3.StringMatcher_SafeRegex{
				SafeRegex: &matcherv3.RegexMatcher{Regex: q.RegexMatch},
			}},
		}
	default:
		out.QueryParameterMatchSpecifier = &routev3.QueryParameterMatcher_StringMatch{
			StringMatch: &matcherv3.StringMatcher{MatchPattern: &matcherv3.StringMatcher_Exact{Exact: q.ExactMatch}},
		}
	}
	return out
}

func buildForwardAction(a model.RouteAction) (*routev3.RouteAction, error) {
	if a.Cluster == "" {
		return nil, fmt.Errorf("forward action has no cluster")
	}
	out := &routev3.RouteAction{
		ClusterSpecifier: &routev3.RouteAction_Cluster{Cluster: a.Cluster},
		PrefixRewrite:    a.PrefixRewrite,
	}
	if a.TimeoutMs > 0 {
		out.Timeout = durationpb.New(millis(a.TimeoutMs))
	}
	if a.RegexRewrite != nil {
		out.RegexRewrite = &matcherv3.RegexMatchAndSubstitute{
			Pattern:      &matcherv3.RegexMatcher{Regex: a.RegexRewrite.Pattern},
			Substitution: a.RegexRewrite.Substitution,
		}
	}
	if a.Retry != nil {
		out.RetryPolicy = &routev3.RetryPolicy{
			RetryOn:       a.Retry.RetryOn,
			NumRetries:    wrapperspb.UInt32(a.Retry.NumRetries),
			PerTryTimeout: durationpb.New(millis(a.Retry.PerTryTimeout)),
		}
	}
	return out, nil
}

func buildWeightedAction(a model.RouteAction) *routev3.RouteAction {
	wc := &routev3.WeightedCluster{TotalWeight: wrapperspb.UInt32(a.TotalWeight)}
	for _, c := range a.WeightedClusters {
		wc.Clusters = append(wc.Clusters, &routev3.WeightedCluster_ClusterWeight{
			Name:   c.Cluster,
			Weight: wrapperspb.UInt32(c.Weight),
		})
	}
	return &routev3.RouteAction{
		ClusterSpecifier: &routev3.RouteAction_WeightedClusters{WeightedClusters: wc},
	}
}

func buildRedirectAction(a model.RouteAction) *routev3.RedirectAction {
	out := &routev3.RedirectAction{
		HostRedirect: a.RedirectHost,
	}
	if a.RedirectPath != "" {
		out.PathRewriteSpecifier = &routev3.RedirectAction_PathRedirect{PathRedirect: a.RedirectPath}
	}
	switch a.RedirectResponseCode {
	case 302:
		out.ResponseCode = routev3.RedirectAction_FOUND
	case 303:
		out.ResponseCode = routev3.RedirectAction_SEE_OTHER
	case 307:
		out.ResponseCode = routev3.RedirectAction_TEMPORARY_REDIRECT
	case 308:
		out.ResponseCode = routev3.RedirectAction_PERMANENT_REDIRECT
	default:
		out.ResponseCode = routev3.RedirectAction_MOVED_PERMANENTLY
	}
	return out
}
