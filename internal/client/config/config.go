// Package config holds settings for the shackstack CLI: where the server
// is, the access token to present, and how long to wait for it.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the server's gRPC endpoint.
//   - AccessToken: JWT sent with owner calls. May also be entered at the
//     prompt with the "token" command.
//   - RequestTimeout: deadline for one call. Creates wait for on-chain
//     confirmation, so this is generous by default.
//   - OnlineCheckInterval: how often the CLI pings the server.
type Config struct {
	ServerEndpointAddr  string
	AccessToken         string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 3 * time.Minute
	c.OnlineCheckInterval = 5 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
