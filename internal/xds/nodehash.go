package xds

import (
	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
)

// NodeHash derives the snapshot cache key from a data plane's advertised
// identity. A node is the (cluster, id) pair, not id alone, so two fleets
// that happen to reuse the same node id under different Envoy `cluster`
// values never collide on one cache entry.
type NodeHash struct{}

// ID implements cachev3.NodeHash.
func (NodeHash) ID(node *core.Node) string {
	if node == nil {
		return ""
	}
	return node.GetCluster() + "/" + node.GetId()
}

// nodeTeam extracts the "team" tag from a node's metadata. A node with no
// team tag only ever sees shared-gateway resources.
func nodeTeam(node *core.Node) string {
	if node == nil || node.GetMetadata() == nil {
		return ""
	}
	v, ok := node.GetMetadata().GetFields()["team"]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}
