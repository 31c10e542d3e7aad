package authkit

import (
	"fmt"
	"time"
)

// Config holds every tunable of the engine. Instances are cloned on intake
// and treated as immutable after [Builder.Build]; invalid values fail fast at
// startup with [ErrConfiguration], never per-request.
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	Refresh  RefreshConfig
	Throttle ThrottleConfig
	Login    LoginGuardConfig
	Sweeper  SweeperConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// JWTConfig controls access-token issuance and validation.
type JWTConfig struct {
	// SigningSecret is the HS256 key. Must be at least 32 bytes.
	SigningSecret []byte
	// AccessLifetime is the validity window of issued access tokens.
	AccessLifetime time.Duration
	Issuer         string
	// Leeway tolerates small clock skew during expiry validation.
	Leeway time.Duration
}

// RefreshConfig controls refresh-token issuance and storage.
type RefreshConfig struct {
	// Lifetime is the fixed validity window of every refresh token;
	// expiresAt − issuedAt equals this duration for all records.
	Lifetime time.Duration
	// RedisPrefix namespaces the token keys of the default Redis store.
	RedisPrefix string
}

// PasswordConfig holds Argon2id parameters for credential verification and
// transparent hash upgrades.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig bounds the refresh endpoint per caller. The window is a
// fixed window: LimitForPeriod calls per RefreshPeriod; the limiter check
// happens before any token validation or store I/O.
type ThrottleConfig struct {
	Enabled        bool
	LimitForPeriod int
	RefreshPeriod  time.Duration
	// TimeoutDuration bounds the limiter's own counter round-trip. A slow
	// counter backend rejects as internal failure instead of blocking refresh.
	TimeoutDuration time.Duration
}

// LoginGuardConfig bounds failed login attempts per identifier (and
// optionally per client IP, when the transport attaches one via
// [WithClientIP]).
type LoginGuardConfig struct {
	Enabled          bool
	MaxAttempts      int
	Cooldown         time.Duration
	EnableIPThrottle bool
}

// SweeperConfig schedules the background purge of expired refresh-token
// records. Correctness does not depend on it — validation rejects and
// deletes expired tokens lazily — it only bounds storage growth.
type SweeperConfig struct {
	Enabled  bool
	Interval time.Duration
}

// AuditConfig controls the buffered async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process atomic counters.
type MetricsConfig struct {
	Enabled bool
}

const minSigningSecretBytes = 32

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. The signing secret is
// intentionally absent and must be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessLifetime: 5 * time.Minute,
			Leeway:         0,
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Refresh: RefreshConfig{
			Lifetime:    7 * 24 * time.Hour,
			RedisPrefix: "ak",
		},
		Throttle: ThrottleConfig{
			Enabled:         true,
			LimitForPeriod:  20,
			RefreshPeriod:   time.Minute,
			TimeoutDuration: 2 * time.Second,
		},
		Login: LoginGuardConfig{
			Enabled:          true,
			MaxAttempts:      5,
			Cooldown:         15 * time.Minute,
			EnableIPThrottle: false,
		},
		Sweeper: SweeperConfig{
			Enabled:  true,
			Interval: 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.SigningSecret = cloneBytes(cfg.JWT.SigningSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for startup. Every returned error wraps
// [ErrConfiguration].
func (c *Config) Validate() error {
	if len(c.JWT.SigningSecret) < minSigningSecretBytes {
		return fmt.Errorf("%w: JWT SigningSecret must be at least %d bytes", ErrConfiguration, minSigningSecretBytes)
	}
	if c.JWT.AccessLifetime <= 0 {
		return fmt.Errorf("%w: JWT AccessLifetime must be > 0", ErrConfiguration)
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return fmt.Errorf("%w: JWT Leeway must be between 0 and 2m", ErrConfiguration)
	}

	if c.Refresh.Lifetime <= 0 {
		return fmt.Errorf("%w: Refresh Lifetime must be > 0", ErrConfiguration)
	}
	if c.Refresh.RedisPrefix == "" {
		return fmt.Errorf("%w: Refresh RedisPrefix must not be empty", ErrConfiguration)
	}

	if c.Password.Memory < 8*1024 {
		return fmt.Errorf("%w: Password Memory must be >= 8192 KB", ErrConfiguration)
	}
	if c.Password.Time < 1 {
		return fmt.Errorf("%w: Password Time must be >= 1", ErrConfiguration)
	}
	if c.Password.Parallelism < 1 {
		return fmt.Errorf("%w: Password Parallelism must be >= 1", ErrConfiguration)
	}
	if c.Password.SaltLength < 16 {
		return fmt.Errorf("%w: Password SaltLength must be >= 16", ErrConfiguration)
	}
	if c.Password.KeyLength < 16 {
		return fmt.Errorf("%w: Password KeyLength must be >= 16", ErrConfiguration)
	}

	if c.Throttle.Enabled {
		if c.Throttle.LimitForPeriod <= 0 {
			return fmt.Errorf("%w: Throttle LimitForPeriod must be > 0", ErrConfiguration)
		}
		if c.Throttle.RefreshPeriod <= 0 {
			return fmt.Errorf("%w: Throttle RefreshPeriod must be > 0", ErrConfiguration)
		}
		if c.Throttle.TimeoutDuration < 0 {
			return fmt.Errorf("%w: Throttle TimeoutDuration must be >= 0", ErrConfiguration)
		}
	}

	if c.Login.Enabled {
		if c.Login.MaxAttempts <= 0 {
			return fmt.Errorf("%w: Login MaxAttempts must be > 0", ErrConfiguration)
		}
		if c.Login.Cooldown <= 0 {
			return fmt.Errorf("%w: Login Cooldown must be > 0", ErrConfiguration)
		}
	}

	if c.Sweeper.Enabled && c.Sweeper.Interval <= 0 {
		return fmt.Errorf("%w: Sweeper Interval must be > 0 when the sweeper is enabled", ErrConfiguration)
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: Audit BufferSize must be > 0 when audit is enabled", ErrConfiguration)
	}

	return nil
}
