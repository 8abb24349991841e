package config

import (
	"flag"
	"fmt"
)

// Config is the full set of validated, numeric limits, timeouts, and
// feature flags the server runs with. It is deeply immutable after
// New/Preset returns: nothing downstream of server startup should
// mutate it.
type Config struct {
	Port           int    `config:"port"`
	Address        string `config:"address"`
	MaxConnections int    `config:"max.connections"`

	ReadTimeoutMs      int `config:"read.timeout.ms"`
	WriteTimeoutMs     int `config:"write.timeout.ms"`
	KeepaliveTimeoutMs int `config:"keepalive.timeout.ms"`

	BufferSize int `config:"buffer.size"`
	MaxBuffers int `config:"max.buffers"`

	MaxRoutes      int `config:"max.routes"`
	MaxRouteParams int `config:"max.route.params"`
	MaxMiddlewares int `config:"max.middlewares"`

	ConnectionTimeoutMs int `config:"connection.timeout.ms"`
	RequestTimeoutMs    int `config:"request.timeout.ms"`
	HeaderTimeoutMs     int `config:"header.timeout.ms"`
	BodyTimeoutMs       int `config:"body.timeout.ms"`
	IdleTimeoutMs       int `config:"idle.timeout.ms"`

	MaxRequestSize           int64 `config:"max.request.size"`
	MaxHeaderCount           int   `config:"max.header.count"`
	MaxHeaderSize            int   `config:"max.header.size"`
	MaxURILength             int   `config:"max.uri.length"`
	MaxBodySize              int64 `config:"max.body.size"`
	BodyReadThresholdPercent int   `config:"body.read.threshold.percent"`

	EnableRequestValidation bool `config:"enable.request.validation"`
	EnableTimeoutProtection bool `config:"enable.timeout.protection"`
	EnableKeepAlive         bool `config:"enable.keep.alive"`
	EnableCompression       bool `config:"enable.compression"`
	EnableCORS              bool `config:"enable.cors"`

	LogLevel string `config:"log.level"`
}

// Default returns the reference configuration's defaults, matching the
// wire contract's configuration table exactly.
func Default() *Config {
	return &Config{
		Port:           8080,
		Address:        "127.0.0.1",
		MaxConnections: 1000,

		ReadTimeoutMs:      30000,
		WriteTimeoutMs:     30000,
		KeepaliveTimeoutMs: 60000,

		BufferSize: 8192,
		MaxBuffers: 200,

		MaxRoutes:      100,
		MaxRouteParams: 20,
		MaxMiddlewares: 50,

		ConnectionTimeoutMs: 30000,
		RequestTimeoutMs:    30000,
		HeaderTimeoutMs:     10000,
		BodyTimeoutMs:       60000,
		IdleTimeoutMs:       5000,

		MaxRequestSize:           1 << 20,
		MaxHeaderCount:           100,
		MaxHeaderSize:            8192,
		MaxURILength:             2048,
		MaxBodySize:              10 << 20,
		BodyReadThresholdPercent: 10,

		EnableRequestValidation: true,
		EnableTimeoutProtection: true,
		EnableKeepAlive:         false,
		EnableCompression:       false,
		EnableCORS:              false,

		LogLevel: "info",
	}
}

// Basic is the permissive preset: generous limits, validation and
// timeout protection on, nothing exotic.
func Basic() *Config {
	return Default()
}

// Secure hardens the defaults for an untrusted network: tighter
// timeouts and a lower connection ceiling, CORS left off.
func Secure() *Config {
	c := Default()
	c.MaxConnections = 500
	c.ConnectionTimeoutMs = 15000
	c.HeaderTimeoutMs = 5000
	c.IdleTimeoutMs = 3000
	c.MaxBodySize = 2 << 20
	c.LogLevel = "warning"
	return c
}

// Dev relaxes timeouts for local iteration and turns on debug logging.
func Dev() *Config {
	c := Default()
	c.MaxConnections = 100
	c.ConnectionTimeoutMs = 120000
	c.IdleTimeoutMs = 60000
	c.EnableCORS = true
	c.LogLevel = "debug"
	return c
}

// Preset resolves the --mode flag value to a named configuration.
// Unrecognized modes return an error; callers are expected to exit
// nonzero rather than fall back to a default silently.
func Preset(mode string) (*Config, error) {
	switch mode {
	case "basic":
		return Basic(), nil
	case "secure":
		return Secure(), nil
	case "dev":
		return Dev(), nil
	default:
		return nil, fmt.Errorf("unknown mode %q: want basic, secure, or dev", mode)
	}
}

// Validate checks the invariants the wire contract requires (port
// nonzero, positive limits); it does not mutate c.
func (c *Config) Validate() error {
	if c.Port == 0 {
		return fmt.Errorf("port must be nonzero")
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive")
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be positive")
	}
	if c.MaxBodySize <= 0 {
		return fmt.Errorf("max_body_size must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error", "critical":
	default:
		return fmt.Errorf("unrecognized log_level %q", c.LogLevel)
	}
	return nil
}

// LoadFromEnv overlays environment variables prefixed with prefix (e.g.
// "LIBXEV_MAX_CONNECTIONS" under prefix "LIBXEV") onto cfg, using the
// teacher's reflection-based Manager as the loader rather than a
// hand-rolled os.Getenv scan. Fields with no matching variable are left
// untouched.
func LoadFromEnv(cfg *Config, prefix string) error {
	m := NewManager()
	m.LoadFromEnv(prefix)
	return m.Unmarshal("", cfg)
}

// New parses flags into a Config seeded from Default, preserving the
// teacher's flag-driven entry point for callers that want CLI overrides
// on top of a preset.
func New() *Config {
	cfg := Default()

	flag.IntVar(&cfg.Port, "port", cfg.Port, "TCP port bound")
	flag.StringVar(&cfg.Address, "address", cfg.Address, "interface to bind")
	flag.IntVar(&cfg.MaxConnections, "max-connections", cfg.MaxConnections, "admission ceiling")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warning|error|critical")

	flag.Parse()

	return cfg
}
