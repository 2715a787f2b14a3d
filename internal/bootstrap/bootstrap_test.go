package bootstrap

import (
	"testing"

	bootstrapv3 "github.com/envoyproxy/go-control-plane/envoy/config/bootstrap/v3"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"gopkg.in/yaml.v3"

	"github.com/flowplane/flowplane/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestGenerateJSONPointsAtADSEndpointAndAdminPort(t *testing.T) {
	cfg := testConfig(t)
	out, err := Generate(cfg, "checkout", FormatJSON, MTLS{})
	require.NoError(t, err)

	var doc bootstrapv3.Bootstrap
	require.NoError(t, protojson.Unmarshal(out, &doc))

	require.Equal(t, "checkout", doc.GetNode().GetCluster())
	require.Equal(t, uint32(cfg.TeamAdminPort("checkout")), doc.GetAdmin().GetAddress().GetSocketAddress().GetPortValue())
	require.Len(t, doc.GetStaticResources().GetClusters(), 1)
	require.Equal(t, xdsClusterName, doc.GetStaticResources().GetClusters()[0].GetName())
}

func TestGenerateYAMLIsValidYAML(t *testing.T) {
	cfg := testConfig(t)
	out, err := Generate(cfg, "checkout", FormatYAML, MTLS{})
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &generic))
	require.Contains(t, generic, "node")
}

func TestGenerateIsDeterministicForSameInput(t *testing.T) {
	cfg := testConfig(t)
	a, err := Generate(cfg, "checkout", FormatJSON, MTLS{})
	require.NoError(t, err)
	b, err := Generate(cfg, "checkout", FormatJSON, MTLS{})
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestGenerateRejectsEmptyTeam(t *testing.T) {
	cfg := testConfig(t)
	_, err := Generate(cfg, "", FormatJSON, MTLS{})
	require.Error(t, err)
}

func TestGenerateRejectsPartialMTLS(t *testing.T) {
	cfg := testConfig(t)
	_, err := Generate(cfg, "checkout", FormatJSON, MTLS{ClientCertPath: "/etc/cert.pem"})
	require.Error(t, err)
}

func TestGenerateWithMTLSSetsUpstreamTransportSocket(t *testing.T) {
	cfg := testConfig(t)
	out, err := Generate(cfg, "checkout", FormatJSON, MTLS{
		ClientCertPath: "/etc/flowplane/client.pem",
		ClientKeyPath:  "/etc/flowplane/client-key.pem",
		CABundlePath:   "/etc/flowplane/ca.pem",
	})
	require.NoError(t, err)

	var doc bootstrapv3.Bootstrap
	require.NoError(t, protojson.Unmarshal(out, &doc))
	require.NotNil(t, doc.GetStaticResources().GetClusters()[0].GetTransportSocket())
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	cfg := testConfig(t)
	_, err := Generate(cfg, "checkout", Format("toml"), MTLS{})
	require.Error(t, err)
}

func TestDifferentTeamsGetDifferentAdminPorts(t *testing.T) {
	cfg := testConfig(t)
	outA, err := Generate(cfg, "checkout", FormatJSON, MTLS{})
	require.NoError(t, err)
	outB, err := Generate(cfg, "payments", FormatJSON, MTLS{})
	require.NoError(t, err)

	var a, b bootstrapv3.Bootstrap
	require.NoError(t, protojson.Unmarshal(outA, &a))
	require.NoError(t, protojson.Unmarshal(outB, &b))
	require.NotEqual(t, a.GetAdmin().GetAddress().GetSocketAddress().GetPortValue(), b.GetAdmin().GetAddress().GetSocketAddress().GetPortValue())
}
