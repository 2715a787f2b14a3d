package xds

import (
	"context"
	"log/slog"
	"sync"

	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	discovery "github.com/envoyproxy/go-control-plane/envoy/service/discovery/v3"
)

// Callbacks observes the ADS stream lifecycle for node registration and
// ACK/NACK logging: a NACK keeps the last
// accepted version canonical and is only ever surfaced through the audit
// log, never propagated back to a repository caller.
type Callbacks struct {
	cache *Cache
	log   *slog.Logger

	mu      sync.Mutex
	streams map[int64]*core.Node
}

func NewCallbacks(cache *Cache, log *slog.Logger) *Callbacks {
	return &Callbacks{cache: cache, log: log, streams: make(map[int64]*core.Node)}
}

func (c *Callbacks) OnStreamOpen(context.Context, int64, string) error { return nil }

func (c *Callbacks) OnStreamClosed(id int64, node *core.Node) {
	c.mu.Lock()
	delete(c.streams, id)
	c.mu.Unlock()
	c.log.Debug("ADS stream closed", "stream_id", id, "node", NodeHash{}.ID(node))
}

// OnStreamRequest registers the node on first contact and logs NACKs: a
// parse error keeps the last-good version and surfaces in the audit log
// with the data-plane node id.
func (c *Callbacks) OnStreamRequest(id int64, req *discovery.DiscoveryRequest) error {
	if req.GetErrorDetail() != nil {
		c.log.Warn("NACK from data plane",
			"stream_id", id,
			"node", NodeHash{}.ID(req.GetNode()),
			"type_url", req.GetTypeUrl(),
			"error", req.GetErrorDetail().GetMessage(),
		)
		return nil
	}

	node := req.GetNode()
	if node == nil {
		return nil
	}

	c.mu.Lock()
	_, seen := c.streams[id]
	c.streams[id] = node
	c.mu.Unlock()

	if !seen {
		if err := c.cache.RegisterNode(context.Background(), node); err != nil {
			c.log.Error("failed to register xDS node", "stream_id", id, "error", err)
		}
	}
	return nil
}

func (c *Callbacks) OnStreamResponse(context.Context, int64, *discovery.DiscoveryRequest, *discovery.DiscoveryResponse) {
}

func (c *Callbacks) OnFetchRequest(context.Context, *discovery.DiscoveryRequest) error { return nil }

func (c *Callbacks) OnFetchResponse(*discovery.DiscoveryRequest, *discovery.DiscoveryResponse) {}

func (c *Callbacks) OnDeltaStreamOpen(context.Context, int64, string) error { return nil }

func (c *Callbacks) OnDeltaStreamClosed(id int64, node *core.Node) {
	c.mu.Lock()
	delete(c.streams, id)
	c.mu.Unlock()
	c.log.Debug("delta ADS stream closed", "stream_id", id, "node", NodeHash{}.ID(node))
}

func (c *Callbacks) OnStreamDeltaRequest(id int64, req *discovery.DeltaDiscoveryRequest) error {
	if req.GetErrorDetail() != nil {
		c.log.Warn("NACK from data plane (delta)",
			"stream_id", id,
			"node", NodeHash{}.ID(req.GetNode()),
			"type_url", req.GetTypeUrl(),
			"error", req.GetErrorDetail().GetMessage(),
		)
		return nil
	}

	node := req.GetNode()
	if node == nil {
		return nil
	}

	c.mu.Lock()
	_, seen := c.streams[id]
	c.streams[id] = node
	c.mu.Unlock()

	if !seen {
		if err := c.cache.RegisterNode(context.Background(), node); err != nil {
			c.log.Error("failed to register xDS node", "stream_id", id, "error", err)
		}
	}
	return nil
}

func (c *Callbacks) OnStreamDeltaResponse(int64, *discovery.DeltaDiscoveryRequest, *discovery.DeltaDiscoveryResponse) {
}
