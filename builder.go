package authkit

import (
	"fmt"

	"github.com/MrEthical07/authkit/internal/rate"
	"github.com/MrEthical07/authkit/jwt"
	"github.com/MrEthical07/authkit/password"
	"github.com/MrEthical07/authkit/refresh"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine] from explicit dependencies. A builder is
// single-use: Build succeeds at most once.
type Builder struct {
	config Config
	redis  *redis.Client

	tokenStore refresh.Store
	provider   IdentityProvider
	auditSink  AuditSink

	built bool
}

// New returns a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration. The config is cloned;
// later mutation of cfg by the caller has no effect.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the default token store and
// the rate limiters.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithTokenStore overrides the refresh-token store. When set, Redis is only
// required if a throttle or the login guard is enabled.
func (b *Builder) WithTokenStore(store refresh.Store) *Builder {
	b.tokenStore = store
	return b
}

// WithIdentityProvider supplies the externally-owned identity source.
// Required.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

// WithAuditSink supplies the audit event consumer. Only consulted when
// Audit.Enabled is set; defaults to a no-op sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the engine counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and dependency set and assembles the
// Engine, starting its background goroutines (audit dispatcher, sweeper).
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, fmt.Errorf("%w: builder already used", ErrConfiguration)
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.provider == nil {
		return nil, fmt.Errorf("%w: identity provider required", ErrConfiguration)
	}

	if b.redis == nil {
		if b.tokenStore == nil {
			return nil, fmt.Errorf("%w: redis client required", ErrConfiguration)
		}
		if cfg.Throttle.Enabled {
			return nil, fmt.Errorf("%w: refresh throttle requires redis client", ErrConfiguration)
		}
		if cfg.Login.Enabled {
			return nil, fmt.Errorf("%w: login guard requires redis client", ErrConfiguration)
		}
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	jm, err := jwt.NewManager(jwt.Config{
		SigningSecret:  cloneBytes(cfg.JWT.SigningSecret),
		AccessLifetime: cfg.JWT.AccessLifetime,
		Issuer:         cfg.JWT.Issuer,
		Leeway:         cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	store := b.tokenStore
	if store == nil {
		store = refresh.NewRedisStore(b.redis, cfg.Refresh.RedisPrefix)
	}

	engine := &Engine{
		config:     cfg,
		verifier:   newCredentialVerifier(b.provider, hasher),
		jwtManager: jm,
		refresh:    refresh.NewManager(store, cfg.Refresh.Lifetime),
		metrics:    NewMetrics(cfg.Metrics),
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
	}

	if b.redis != nil && (cfg.Throttle.Enabled || cfg.Login.Enabled) {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.Login.EnableIPThrottle,
			EnableRefreshThrottle: cfg.Throttle.Enabled,
			MaxLoginAttempts:      cfg.Login.MaxAttempts,
			LoginCooldown:         cfg.Login.Cooldown,
			RefreshLimit:          cfg.Throttle.LimitForPeriod,
			RefreshPeriod:         cfg.Throttle.RefreshPeriod,
			RefreshTimeout:        cfg.Throttle.TimeoutDuration,
		})
	}

	if cfg.Sweeper.Enabled {
		engine.sweeper = newSweeper(cfg.Sweeper.Interval, engine.refresh, engine.onSweepCompleted)
	}

	b.built = true

	return engine, nil
}
