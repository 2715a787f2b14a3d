package platformcompiler

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/flowplane/flowplane/internal/flowerrors"
	"github.com/flowplane/flowplane/internal/model"
)

const defaultConnectTimeoutMs = 5000

// compileClusters builds one cluster per distinct (host, port, TLS) server
// entry, content-addressing the cluster name so a re-import of the same
// document reuses the existing cluster instead of recreating it. The
// returned map keys every server URL string to the cluster name an
// operation's route action should forward to.
func compileClusters(doc *openapi3.T, opts Options) ([]model.Cluster, map[string]string, error) {
	if len(doc.Servers) == 0 {
		return nil, nil, flowerrors.Configuration("OpenAPI document has no servers")
	}

	exists := opts.ClusterExists
	if exists == nil {
		exists = func(string) bool { return false }
	}

	var clusters []model.Cluster
	byServerURL := make(map[string]string, len(doc.Servers))
	seen := make(map[string]bool)

	for _, server := range doc.Servers {
		host, port, tls, err := parseServerURL(server.URL)
		if err != nil {
			return nil, nil, err
		}
		name := clusterName(host, port, tls)
		byServerURL[server.URL] = name
		if seen[name] {
			continue
		}
		seen[name] = true
		if exists(name) {
			continue
		}

		c := model.Cluster{
			Envelope:         model.Envelope{Name: name, Team: opts.Team},
			Endpoints:        []model.Endpoint{{Host: host, Port: port}},
			ConnectTimeoutMs: defaultConnectTimeoutMs,
			LBPolicy:         model.LBRoundRobin,
			DNSFamily:        model.DNSAuto,
		}
		if tls {
			c.TLS = &model.TLSSettings{SNI: host}
		}
		clusters = append(clusters, c)
	}

	return clusters, byServerURL, nil
}

func clusterName(host string, port uint32, tls bool) string {
	scheme := "http"
	if tls {
		scheme = "https"
	}
	return fmt.Sprintf("upstream-%s-%s-%d", scheme, sanitizeName(host), port)
}

func parseServerURL(raw string) (host string, port uint32, tls bool, err error) {
	u, parseErr := url.Parse(raw)
	if parseErr != nil || u.Hostname() == "" {
		return "", 0, false, flowerrors.Configuration("server URL %q is not valid", raw)
	}
	tls = u.Scheme == "https"

	if p := u.Port(); p != "" {
		parsed, convErr := strconv.ParseUint(p, 10, 32)
		if convErr != nil {
			return "", 0, false, flowerrors.Configuration("server URL %q has an invalid port", raw)
		}
		return u.Hostname(), uint32(parsed), tls, nil
	}
	if tls {
		return u.Hostname(), 443, tls, nil
	}
	return u.Hostname(), 80, tls, nil
}
