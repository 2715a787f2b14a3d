// Package xdsresource translates Flowplane's normalized model types into
// Envoy xDS protobuf messages. It is the single point where a model.Cluster,
// model.RouteConfiguration, model.Listener, or model.Secret becomes the
// go-control-plane struct the cache hands to Envoy — generalized from a
// control plane that did the same translation for a single hard-coded
// service shape.
package xdsresource
