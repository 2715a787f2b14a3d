package xds

import (
	"testing"

	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func testNode(cluster, id, team string) *core.Node {
	node := &core.Node{Cluster: cluster, Id: id}
	if team != "" {
		node.Metadata, _ = structpb.NewStruct(map[string]interface{}{"team": team})
	}
	return node
}

func TestNodeHashIDCombinesClusterAndID(t *testing.T) {
	node := testNode("checkout-gw", "envoy-1", "checkout")
	require.Equal(t, "checkout-gw/envoy-1", NodeHash{}.ID(node))
}

func TestNodeHashIDHandlesNilNode(t *testing.T) {
	require.Equal(t, "", NodeHash{}.ID(nil))
}

func TestNodeTeamReadsMetadataField(t *testing.T) {
	node := testNode("checkout-gw", "envoy-1", "checkout")
	require.Equal(t, "checkout", nodeTeam(node))
}

func TestNodeTeamEmptyWhenMetadataMissing(t *testing.T) {
	node := &core.Node{Cluster: "checkout-gw", Id: "envoy-1"}
	require.Equal(t, "", nodeTeam(node))
}

func TestNodeTeamEmptyWhenNodeNil(t *testing.T) {
	require.Equal(t, "", nodeTeam(nil))
}
