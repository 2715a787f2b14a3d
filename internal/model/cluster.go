package model

import "strconv"

// LBPolicy enumerates the load-balancing policies a Cluster may use.
type LBPolicy string

const (
	LBRoundRobin      LBPolicy = "ROUND_ROBIN"
	LBLeastRequest    LBPolicy = "LEAST_REQUEST"
	LBRandom          LBPolicy = "RANDOM"
	LBRingHash        LBPolicy = "RING_HASH"
	LBMaglev          LBPolicy = "MAGLEV"
	LBClusterProvided LBPolicy = "CLUSTER_PROVIDED"
)

// DNSFamily controls how Envoy resolves hostnames configured as upstream
// endpoints.
type DNSFamily string

const (
	DNSAuto  DNSFamily = "AUTO"
	DNSV4    DNSFamily = "V4_ONLY"
	DNSV6    DNSFamily = "V6_ONLY"
	DNSAll   DNSFamily = "ALL"
)

// Endpoint is a single upstream target. Port must be in [1, 65535].
type Endpoint struct {
	Host string `json:"host" validate:"required"`
	Port uint32 `json:"port" validate:"required,min=1,max=65535"`
}

// HealthCheck describes one active health check Envoy runs against a
// cluster's endpoints.
type HealthCheck struct {
	Path               string `json:"path,omitempty"`
	IntervalSeconds    uint32 `json:"intervalSeconds" validate:"min=1"`
	TimeoutSeconds     uint32 `json:"timeoutSeconds" validate:"min=1"`
	HealthyThreshold   uint32 `json:"healthyThreshold" validate:"min=1"`
	UnhealthyThreshold uint32 `json:"unhealthyThreshold" validate:"min=1"`
}

// CircuitBreakerThresholds bounds the concurrency Envoy allows against a
// cluster at a given priority. Values are validated within [1, 10000].
type CircuitBreakerThresholds struct {
	MaxConnections     uint32 `json:"maxConnections" validate:"min=1,max=10000"`
	MaxPendingRequests uint32 `json:"maxPendingRequests" validate:"min=1,max=10000"`
	MaxRequests        uint32 `json:"maxRequests" validate:"min=1,max=10000"`
	MaxRetries         uint32 `json:"maxRetries" validate:"min=1,max=10000"`
}

// CircuitBreakers holds the default and high-priority threshold sets.
type CircuitBreakers struct {
	Default      *CircuitBreakerThresholds `json:"default,omitempty"`
	HighPriority *CircuitBreakerThresholds `json:"highPriority,omitempty"`
}

// OutlierDetection configures passive health checking via response-code
// ejection.
type OutlierDetection struct {
	ConsecutiveErrors uint32 `json:"consecutiveErrors" validate:"min=1"`
	IntervalSeconds   uint32 `json:"intervalSeconds" validate:"min=1"`
	BaseEjectionTime  uint32 `json:"baseEjectionTimeSeconds" validate:"min=1"`
	MaxEjectionPct    uint32 `json:"maxEjectionPercent" validate:"max=100"`
}

// TLSSettings describes upstream TLS origination for a cluster.
type TLSSettings struct {
	SNI          string `json:"sni,omitempty"`
	CASecretName string `json:"caSecretName,omitempty"`
}

// Cluster is the normalized upstream target group.
type Cluster struct {
	Envelope
	Endpoints        []Endpoint                `json:"endpoints" validate:"required,min=1,dive"`
	ConnectTimeoutMs uint64                     `json:"connectTimeoutMs" validate:"min=1"`
	TLS              *TLSSettings               `json:"tls,omitempty"`
	DNSFamily        DNSFamily                  `json:"dnsFamily,omitempty"`
	LBPolicy         LBPolicy                   `json:"lbPolicy" validate:"required,oneof=ROUND_ROBIN LEAST_REQUEST RANDOM RING_HASH MAGLEV CLUSTER_PROVIDED"`
	HealthChecks     []HealthCheck              `json:"healthChecks,omitempty"`
	CircuitBreakers  *CircuitBreakers           `json:"circuitBreakers,omitempty"`
	OutlierDetection *OutlierDetection          `json:"outlierDetection,omitempty"`
	UseEDS           bool                       `json:"useEds,omitempty"`
}

// ContentKey returns a key built from the cluster's endpoint host:port pairs
// and TLS SNI. Nothing in the repository calls it; the Platform Compiler
// derives its reusable cluster names separately.
func (c Cluster) ContentKey() string {
	key := ""
	for _, ep := range c.Endpoints {
		key += ep.Host + ":" + strconv.FormatUint(uint64(ep.Port), 10) + ","
	}
	if c.TLS != nil {
		key += "tls:" + c.TLS.SNI
	}
	return key
}
