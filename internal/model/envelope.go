// Package model holds the normalized, storage-facing JSON representation of
// every Flowplane resource. These types never touch an Envoy protobuf
// message directly — translation to xDS wire types lives in
// internal/xdsresource. Keeping the two separate means the repository can
// validate and version plain Go structs without pulling in the protobuf
// toolchain, and a resource's persisted form never drifts from what the
// admin API accepts.
package model

import "time"

// Envelope carries the identity and lifecycle fields every resource type
// shares: (team, name) identity, a monotonically increasing version bumped
// on every mutation, and creation/update timestamps.
type Envelope struct {
	Name      string    `json:"name" validate:"required,min=1,max=253"`
	Team      string    `json:"team" validate:"required,min=1,max=63"`
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ResourceType enumerates the five standard Envoy xDS resource types. Used
// as the map key for
// change-event routing and xDS cache rebuilds.
type ResourceType string

const (
	ResourceCluster  ResourceType = "cluster"
	ResourceEndpoint ResourceType = "endpoint"
	ResourceRoute    ResourceType = "route"
	ResourceListener ResourceType = "listener"
	ResourceSecret   ResourceType = "secret"
)

// AllResourceTypes lists every type in the dependency order publication
// must follow: EDS before CDS, CDS before (RDS, LDS), RDS before LDS, SDS
// before any referrer.
func AllResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceSecret,
		ResourceEndpoint,
		ResourceCluster,
		ResourceRoute,
		ResourceListener,
	}
}
