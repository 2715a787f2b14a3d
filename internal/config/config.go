// Package config loads and validates the control plane configuration from
// environment variables. All settings have sensible defaults so the binary
// works out of the box for local development without any .env file.
package config

import (
	"fmt"
	"hash/fnv"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the control plane.
// Values are loaded once at startup via Load() and then treated as immutable.
type Config struct {
	// XDSAddr is the gRPC listen address for the ADS server (SotW + Delta).
	XDSAddr string

	// APIAddr is the HTTP listen address for the admin REST API.
	APIAddr string

	// DefaultTeam is read from FLOWPLANE_DEFAULT_TEAM and logged at startup.
	// The admin API does not assign it: every resource must name its team.
	DefaultTeam string

	// SharedTeam names the team whose resources are visible to every data
	// plane node regardless of its own team tag. Empty disables cross-team
	// sharing.
	SharedTeam string

	// ListenerPortMin/Max bound the deterministic hash/fnv allocation range
	// for listener-isolation mode.
	ListenerPortMin uint32
	ListenerPortMax uint32

	// AdminPortMin/Max bound the per-team admin port TeamAdminPort derives
	// for a bootstrap document's admin address.
	AdminPortMin uint32
	AdminPortMax uint32
}

// Load reads configuration from environment variables. Missing variables
// fall back to defaults suitable for local development. An error is
// returned only if a variable fails to parse once set.
func Load() (*Config, error) {
	cfg := &Config{
		XDSAddr:         getEnv("FLOWPLANE_XDS_ADDR", ":9090"),
		APIAddr:         getEnv("FLOWPLANE_API_ADDR", ":8080"),
		DefaultTeam:     getEnv("FLOWPLANE_DEFAULT_TEAM", "default"),
		SharedTeam:      getEnv("FLOWPLANE_SHARED_TEAM", "shared"),
		ListenerPortMin: 20000,
		ListenerPortMax: 29999,
		AdminPortMin:    30000,
		AdminPortMax:    39999,
	}

	var err error
	if cfg.ListenerPortMin, err = getEnvUint32("FLOWPLANE_LISTENER_PORT_MIN", cfg.ListenerPortMin); err != nil {
		return nil, err
	}
	if cfg.ListenerPortMax, err = getEnvUint32("FLOWPLANE_LISTENER_PORT_MAX", cfg.ListenerPortMax); err != nil {
		return nil, err
	}
	if cfg.AdminPortMin, err = getEnvUint32("FLOWPLANE_ADMIN_PORT_MIN", cfg.AdminPortMin); err != nil {
		return nil, err
	}
	if cfg.AdminPortMax, err = getEnvUint32("FLOWPLANE_ADMIN_PORT_MAX", cfg.AdminPortMax); err != nil {
		return nil, err
	}
	if cfg.ListenerPortMin >= cfg.ListenerPortMax {
		return nil, fmt.Errorf("listener port range is empty: min=%d max=%d", cfg.ListenerPortMin, cfg.ListenerPortMax)
	}
	if cfg.AdminPortMin >= cfg.AdminPortMax {
		return nil, fmt.Errorf("admin port range is empty: min=%d max=%d", cfg.AdminPortMin, cfg.AdminPortMax)
	}
	return cfg, nil
}

// TeamAdminPort deterministically derives the bootstrap admin port for a
// team, hashed into [AdminPortMin,
// AdminPortMax] the same way the Platform Compiler hashes listener-isolation
// ports — no collision-avoidance probing here, since admin ports are a
// per-team constant rather than an allocated-on-demand pool.
func (c *Config) TeamAdminPort(team string) uint32 {
	span := c.AdminPortMax - c.AdminPortMin + 1
	h := fnv.New32a()
	_, _ = h.Write([]byte(team))
	return c.AdminPortMin + (h.Sum32() % span)
}

// IsShared reports whether team is the cross-team shared-gateway team.
func (c *Config) IsShared(team string) bool {
	return c.SharedTeam != "" && team == c.SharedTeam
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvUint32(key string, fallback uint32) (uint32, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return uint32(parsed), nil
}
