package model

// PathMatchKind enumerates the supported route path match strategies.
type PathMatchKind string

const (
	PathExact    PathMatchKind = "exact"
	PathPrefix   PathMatchKind = "prefix"
	PathRegex    PathMatchKind = "regex"
	PathTemplate PathMatchKind = "template"
)

// PathMatch is the match criteria for a route rule's path.
type PathMatch struct {
	Kind  PathMatchKind `json:"kind" validate:"required,oneof=exact prefix regex template"`
	Value string        `json:"value" validate:"required"`
}

// HeaderMatch matches a single request header.
type HeaderMatch struct {
	Name        string `json:"name" validate:"required"`
	ExactMatch  string `json:"exactMatch,omitempty"`
	PrefixMatch string `json:"prefixMatch,omitempty"`
	RegexMatch  string `json:"regexMatch,omitempty"`
	PresentOnly bool   `json:"presentOnly,omitempty"`
	InvertMatch bool   `json:"invertMatch,omitempty"`
}

// QueryParamMatch matches a single query parameter.
type QueryParamMatch struct {
	Name       string `json:"name" validate:"required"`
	ExactMatch string `json:"exactMatch,omitempty"`
	RegexMatch string `json:"regexMatch,omitempty"`
	PresentOnly bool  `json:"presentOnly,omitempty"`
}

// RouteMatch is the full match criteria for a route rule: path, method
// (modeled as a header matcher on ":method"), headers, and query params.
type RouteMatch struct {
	Path        PathMatch         `json:"path"`
	Headers     []HeaderMatch     `json:"headers,omitempty"`
	QueryParams []QueryParamMatch `json:"queryParams,omitempty"`
}

// WeightedCluster is one member of a weighted-cluster route action. Weights
// across a rule's WeightedClusters must sum to TotalWeight.
type WeightedCluster struct {
	Cluster string `json:"cluster" validate:"required"`
	Weight  uint32 `json:"weight" validate:"min=1"`
}

// RetryPolicy configures upstream retries for a forward action. Retries are
// bounded to [0, 10].
type RetryPolicy struct {
	RetryOn       string `json:"retryOn,omitempty"`
	NumRetries    uint32 `json:"numRetries" validate:"max=10"`
	PerTryTimeout uint64 `json:"perTryTimeoutMs,omitempty"`
}

// ActionKind enumerates the three route rule action kinds.
type ActionKind string

const (
	ActionForward  ActionKind = "forward"
	ActionWeighted ActionKind = "weighted"
	ActionRedirect ActionKind = "redirect"
)

// RouteAction is a oneof over the three action kinds. Exactly one of the
// kind-specific fields is populated, matching Kind.
type RouteAction struct {
	Kind ActionKind `json:"kind" validate:"required,oneof=forward weighted redirect"`

	// forward
	Cluster     string       `json:"cluster,omitempty"`
	PrefixRewrite string     `json:"prefixRewrite,omitempty"`
	RegexRewrite  *RegexRewrite `json:"regexRewrite,omitempty"`
	Retry       *RetryPolicy `json:"retry,omitempty"`
	TimeoutMs   uint64       `json:"timeoutMs,omitempty"`

	// weighted
	WeightedClusters []WeightedCluster `json:"weightedClusters,omitempty"`
	TotalWeight      uint32            `json:"totalWeight,omitempty"`

	// redirect
	RedirectHost         string `json:"redirectHost,omitempty"`
	RedirectPath         string `json:"redirectPath,omitempty"`
	RedirectResponseCode uint32 `json:"redirectResponseCode,omitempty"`
}

// RegexRewrite rewrites the matched path using a regex substitution.
type RegexRewrite struct {
	Pattern      string `json:"pattern" validate:"required"`
	Substitution string `json:"substitution"`
}

// RouteRule is a single ordered rule within a virtual host. PerFilterConfig
// is keyed by public route-override alias (resolved to the filter's
// canonical name when internal/xdsresource builds the route) and
// holds the raw override value — "disabled", a requirement-name string, or
// an object — exactly as accepted from the admin API.
type RouteRule struct {
	Name             string                 `json:"name,omitempty"`
	Match            RouteMatch             `json:"match"`
	Action           RouteAction            `json:"action"`
	PerFilterConfig  map[string]any         `json:"perFilterConfig,omitempty"`
}

// VirtualHost groups an ordered set of route rules under a set of domain
// patterns. PerFilterConfig holds vhost-scoped filter overrides in the same
// alias-keyed raw shape as RouteRule.PerFilterConfig. This is where a
// globally-declared filter's real policy lands when the filter's HCM-level
// activation carries no configuration of its own — CORS is the case in
// point: envoy.filters.http.cors has no meaningful global fields, so the
// policy a caller declares as a listener-wide CORS filter is stamped here
// instead, onto every virtual host the associated route config serves.
type VirtualHost struct {
	Name            string         `json:"name" validate:"required"`
	Domains         []string       `json:"domains" validate:"required,min=1"`
	Routes          []RouteRule    `json:"routes"`
	PerFilterConfig map[string]any `json:"perFilterConfig,omitempty"`
}

// RouteConfiguration is the named, ordered set of virtual hosts.
type RouteConfiguration struct {
	Envelope
	VirtualHosts []VirtualHost `json:"virtualHosts" validate:"required,min=1,dive"`
}

// ReferencedClusters returns every cluster name this route configuration
// forwards to, used by the repository's referential-integrity checks.
func (rc RouteConfiguration) ReferencedClusters() []string {
	var out []string
	for _, vh := range rc.VirtualHosts {
		for _, r := range vh.Routes {
			switch r.Action.Kind {
			case ActionForward:
				if r.Action.Cluster != "" {
					out = append(out, r.Action.Cluster)
				}
			case ActionWeighted:
				for _, wc := range r.Action.WeightedClusters {
					out = append(out, wc.Cluster)
				}
			}
		}
	}
	return out
}
