package authkit

import (
	"context"
	"errors"
	"testing"
)

func TestLoginIssuesValidatablePair(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	pair := mustLogin(t, engine)

	result, err := engine.Validate(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Subject != testIdentifier {
		t.Fatalf("subject = %q, want %q", result.Subject, testIdentifier)
	}
	if len(result.Roles) != 2 || result.Roles[0] != "user" || result.Roles[1] != "admin" {
		t.Fatalf("roles = %v, want [user admin]", result.Roles)
	}
	if !result.ExpiresAt.After(result.IssuedAt) {
		t.Fatal("expiry not after issuance")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	_, err := engine.Login(context.Background(), testIdentifier, "not-the-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatal("invalid credentials must match the authentication-failed kind")
	}
}

func TestLoginUnknownIdentifier(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	_, err := engine.Login(context.Background(), "nobody@example.com", testPassword)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginEmptyInputIsValidation(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	if _, err := engine.Login(context.Background(), "", testPassword); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty identifier: err = %v, want ErrValidation", err)
	}
	if _, err := engine.Login(context.Background(), testIdentifier, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty secret: err = %v, want ErrValidation", err)
	}
}

func TestLoginGuardLocksOutAfterBudget(t *testing.T) {
	engine, _ := newTestEngine(t, func(cfg *Config) {
		cfg.Login.MaxAttempts = 3
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := engine.Login(ctx, testIdentifier, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: err = %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	// Budget exhausted: even the correct password is rejected.
	_, err := engine.Login(ctx, testIdentifier, testPassword)
	if !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("err = %v, want ErrLoginRateLimited", err)
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Fatal("login throttle must match the rate-limited kind")
	}
}

func TestLoginGuardResetsOnSuccess(t *testing.T) {
	engine, _ := newTestEngine(t, func(cfg *Config) {
		cfg.Login.MaxAttempts = 3
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, _ = engine.Login(ctx, testIdentifier, "wrong")
	}

	mustLogin(t, engine)

	// Counter was reset; two more failures stay under budget.
	for i := 0; i < 2; i++ {
		if _, err := engine.Login(ctx, testIdentifier, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("post-reset attempt %d: err = %v", i+1, err)
		}
	}
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	// Seed hash uses the baseline cost; the engine runs with a higher time
	// cost, so the first successful login triggers a transparent rehash.
	weakCfg := newTestConfig().Password
	engine, provider := newTestEngineWithSeedHash(t, func(cfg *Config) {
		cfg.Password.Time = 2
	}, weakCfg)

	mustLogin(t, engine)

	if provider.UpdateCalls() != 1 {
		t.Fatalf("update calls = %d, want 1 (transparent upgrade)", provider.UpdateCalls())
	}

	// Upgraded hash still verifies, and no second upgrade fires.
	mustLogin(t, engine)
	if provider.UpdateCalls() != 1 {
		t.Fatalf("update calls = %d after second login, want 1", provider.UpdateCalls())
	}
}

// newTestEngineWithSeedHash seeds the identity with a hash produced under
// seedCfg rather than the engine's own password config.
func newTestEngineWithSeedHash(t *testing.T, mutate func(*Config), seedCfg PasswordConfig) (*Engine, *mockProvider) {
	t.Helper()

	cfg := newTestConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	provider := newMockProvider()
	provider.put(Identity{
		ID:           testUserID,
		Username:     testIdentifier,
		PasswordHash: testHash(t, seedCfg, testPassword),
		Roles:        []string{"user", "admin"},
	})

	engine, err := New().
		WithConfig(cfg).
		WithRedis(newTestRedis(t)).
		WithIdentityProvider(provider).
		Build()
	if err != nil {
		t.Fatalf("engine build: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, provider
}

func TestLoginRolesRequired(t *testing.T) {
	cfg := newTestConfig()

	provider := newMockProvider()
	provider.put(Identity{
		ID:           testUserID,
		Username:     testIdentifier,
		PasswordHash: testHash(t, cfg.Password, testPassword),
		Roles:        nil,
	})

	engine, err := New().
		WithConfig(cfg).
		WithRedis(newTestRedis(t)).
		WithIdentityProvider(provider).
		Build()
	if err != nil {
		t.Fatalf("engine build: %v", err)
	}
	t.Cleanup(engine.Close)

	_, err = engine.Login(context.Background(), testIdentifier, testPassword)
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("err = %v, want ErrInternal for role-less identity", err)
	}
}
