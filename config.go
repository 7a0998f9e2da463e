package goSession

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/navigation"
)

// Config is the complete session configuration.
type Config struct {
	API     APIConfig
	Store   StoreConfig
	Cache   CacheConfig
	Routes  RoutesConfig
	Health  HealthConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// APIConfig locates the remote API.
type APIConfig struct {
	BaseURL    string
	LoginPath  string
	UserPath   string
	HealthPath string
	Timeout    time.Duration
	// OmitEmptyAuthorization drops the Authorization header when no
	// credential is held. By default "Bearer " is sent with an empty value.
	OmitEmptyAuthorization bool
}

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// StoreConfig selects the credential store built by [Builder.Build] when no
// store is supplied with [Builder.WithStore].
type StoreConfig struct {
	Backend string
	// Path is the credential file for the file backend. When empty, a file
	// named after the API base URL is created under Dir.
	Path string
	Dir  string
	// RedisPrefix and Key form the Redis key "<prefix>:<key>".
	RedisPrefix string
	Key         string
}

// CacheConfig bounds the profile cache.
type CacheConfig struct {
	ProfileTTL  time.Duration
	MaxProfiles int
}

// RoutesConfig names the client's route surface.
type RoutesConfig struct {
	Login     string
	Home      string
	Protected []string
	Public    []string
}

// HealthConfig controls WaitHealthy polling.
type HealthConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// AuditConfig controls audit dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// Retain lists event types kept even when DropIfFull is set.
	Retain []string
}

// MetricsConfig controls in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration of the task client against a local API.
func DefaultConfig() Config {
	routes := navigation.DefaultRoutes()
	return Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000/api",
			LoginPath:  "/auth/login",
			UserPath:   "/users/{id}",
			HealthPath: "/health",
			Timeout:    30 * time.Second,
		},
		Store: StoreConfig{
			Backend:     StoreMemory,
			RedisPrefix: "taskflow",
			Key:         credential.DefaultKey,
		},
		Cache: CacheConfig{
			ProfileTTL:  5 * time.Minute,
			MaxProfiles: 64,
		},
		Routes: RoutesConfig{
			Login:     routes.Login,
			Home:      routes.Home,
			Protected: routes.Protected,
			Public:    routes.Public,
		},
		Health: HealthConfig{
			InitialInterval: 250 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
			Retain:     []string{
				auditEventLoginSuccess,
				auditEventLoginFailure,
				auditEventCredentialStored,
				auditEventLogout,
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Routes.Protected = append([]string(nil), cfg.Routes.Protected...)
	out.Routes.Public = append([]string(nil), cfg.Routes.Public...)
	out.Audit.Retain = append([]string(nil), cfg.Audit.Retain...)
	return out
}

func (c RoutesConfig) navigation() navigation.Routes {
	return navigation.Routes{
		Login:     c.Login,
		Home:      c.Home,
		Protected: c.Protected,
		Public:    c.Public,
	}
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("API BaseURL must be set")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("API BaseURL must be an absolute http(s) URL")
	}
	if c.API.UserPath != "" && !strings.Contains(c.API.UserPath, "{id}") {
		return errors.New("API UserPath must contain {id}")
	}
	if c.API.Timeout < 0 {
		return errors.New("API Timeout must be >= 0")
	}

	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return errors.New("Store Backend must be memory, file or redis")
	}

	if c.Cache.ProfileTTL <= 0 {
		return errors.New("Cache ProfileTTL must be > 0")
	}
	if c.Cache.MaxProfiles <= 0 {
		return errors.New("Cache MaxProfiles must be > 0")
	}

	if !strings.HasPrefix(c.Routes.Login, "/") || !strings.HasPrefix(c.Routes.Home, "/") {
		return errors.New("Routes Login and Home must be absolute paths")
	}
	if navigation.Clean(c.Routes.Login) == navigation.Clean(c.Routes.Home) {
		return errors.New("Routes Login and Home must differ")
	}

	if c.Health.InitialInterval <= 0 || c.Health.MaxInterval < c.Health.InitialInterval {
		return errors.New("Health intervals must be > 0 and MaxInterval >= InitialInterval")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	return nil
}
