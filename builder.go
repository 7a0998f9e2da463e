package goSession

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/goSession/api"
	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/guard"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/MrEthical07/goSession/transport"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Builder assembles a [Session]. A Builder can be built once.
type Builder struct {
	config Config
	redis  redis.Cmdable

	store     credential.Store
	navigator navigation.Navigator
	auditSink AuditSink
	logger    zerolog.Logger
	base      http.RoundTripper
	now       func() time.Time

	built bool
}

// New returns a Builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the configuration. cfg is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore supplies the credential store and overrides Config.Store.
func (b *Builder) WithStore(store credential.Store) *Builder {
	b.store = store
	return b
}

// WithRedis supplies the client used by the redis store backend.
func (b *Builder) WithRedis(client redis.Cmdable) *Builder {
	b.redis = client
	return b
}

// WithNavigator sets where Logout, SignIn and Open send the user.
func (b *Builder) WithNavigator(nav navigation.Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithAuditSink sets the sink fed by the audit dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger used by the session and its transport.
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.logger = log
	return b
}

// WithTransport sets the RoundTripper under the authentication chain.
func (b *Builder) WithTransport(rt http.RoundTripper) *Builder {
	b.base = rt
	return b
}

// WithClock replaces time.Now for expiry checks and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the API latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Session.
func (b *Builder) Build() (*Session, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		var err error
		if store, err = b.buildStore(cfg); err != nil {
			return nil, err
		}
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	nav := b.navigator
	if nav == nil {
		nav = navigation.Nop{}
	}

	s := &Session{
		config:    cfg,
		store:     store,
		guard:     guard.New(store, guard.WithClock(now)),
		navigator: nav,
		metrics:   internalmetrics.New(cfg.Metrics.Enabled, cfg.Metrics.EnableLatencyHistograms),
		log:       b.logger,
		now:       now,
		profiles:  expirable.NewLRU[string, *Profile](cfg.Cache.MaxProfiles, nil, cfg.Cache.ProfileTTL),
	}

	s.httpClient = transport.NewClient(store, transport.ClientOptions{
		Base:                   b.base,
		Timeout:                cfg.API.Timeout,
		Logger:                 b.logger,
		OmitEmptyAuthorization: cfg.API.OmitEmptyAuthorization,
		Observer:               s.observeRequest,
	})

	client, err := api.NewClient(cfg.API.BaseURL, s.httpClient, api.Paths{
		Login:  cfg.API.LoginPath,
		User:   cfg.API.UserPath,
		Health: cfg.API.HealthPath,
	})
	if err != nil {
		return nil, err
	}
	s.api = client

	s.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Retain:     cfg.Audit.Retain,
	}, b.auditSink)

	b.built = true
	return s, nil
}

func (b *Builder) buildStore(cfg Config) (credential.Store, error) {
	switch cfg.Store.Backend {
	case StoreFile:
		if cfg.Store.Path != "" {
			return credential.NewFileStore(cfg.Store.Path), nil
		}
		return credential.NewServerFileStore(cfg.Store.Dir, cfg.API.BaseURL)
	case StoreRedis:
		if b.redis == nil {
			return nil, fmt.Errorf("store backend %q requires a redis client", StoreRedis)
		}
		return credential.NewRedisStore(b.redis, cfg.Store.RedisPrefix, cfg.Store.Key), nil
	default:
		return credential.NewMemoryStore(), nil
	}
}
