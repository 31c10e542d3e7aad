package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// minSecretBytes is the floor for the HS256 key. Anything shorter is a
// configuration error, not a weaker deployment.
const minSecretBytes = 32

// Parse failure reasons. The caller maps these onto its own error taxonomy.
var (
	// ErrEmptyToken is returned for a blank token string.
	ErrEmptyToken = errors.New("empty token")
	// ErrInvalidToken is returned for malformed, unsigned, or wrongly-signed
	// tokens, and for tokens whose claims fail validation for any reason
	// other than expiry.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for structurally valid, correctly signed
	// tokens past their expiry (beyond leeway).
	ErrExpiredToken = errors.New("token expired")
)

// Config holds token signing parameters.
type Config struct {
	// SigningSecret is the HS256 key, at least 32 bytes.
	SigningSecret []byte
	// AccessLifetime is the validity window of issued tokens.
	AccessLifetime time.Duration
	Issuer         string
	// Leeway tolerates clock skew during expiry validation. 0..2m.
	Leeway time.Duration
}

// Claims is the payload of an access token: subject, roles, and the
// registered time claims. The jti claim makes every issued token unique even
// for the same subject within one second.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 access tokens. Safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a token manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.SigningSecret) < minSecretBytes {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", minSecretBytes)
	}
	if cfg.AccessLifetime <= 0 {
		return nil, errors.New("invalid access lifetime")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// Issue signs a token for subject carrying the given roles. Expiry is
// issuance time plus the configured lifetime.
func (m *Manager) Issue(subject string, roles []string) (string, error) {
	now := time.Now()

	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessLifetime)),
			ID:        uuid.NewString(),
			Issuer:    m.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.SigningSecret)
}

// Parse verifies a token string and returns its claims. Failures are
// distinguished as [ErrEmptyToken], [ErrExpiredToken], or [ErrInvalidToken];
// expiry is only reported for tokens that passed signature verification.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrEmptyToken
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.SigningSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Lifetime returns the configured access-token lifetime.
func (m *Manager) Lifetime() time.Duration {
	return m.config.AccessLifetime
}
