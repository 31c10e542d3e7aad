package authkit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authkit/password"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSigningSecret = []byte("0123456789abcdef0123456789abcdef")

const (
	testUserID     = "user-1"
	testIdentifier = "alice@example.com"
	testPassword   = "correct-horse-battery"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

// newTestConfig keeps argon2 at the cheapest valid parameters so tests stay
// fast, and disables background features that individual tests opt into.
func newTestConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.SigningSecret = testSigningSecret
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Sweeper.Enabled = false
	return cfg
}

type mockProvider struct {
	mu          sync.Mutex
	byIdent     map[string]Identity
	getCalls    int
	updateCalls int
	updateErr   error
}

func newMockProvider() *mockProvider {
	return &mockProvider{byIdent: make(map[string]Identity)}
}

func (p *mockProvider) put(id Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byIdent[id.Username] = id
}

func (p *mockProvider) GetByIdentifier(_ context.Context, identifier string) (Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.getCalls++
	id, ok := p.byIdent[identifier]
	if !ok {
		return Identity{}, errors.New("identity not found")
	}
	return id, nil
}

func (p *mockProvider) UpdatePasswordHash(_ context.Context, id string, newHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.updateCalls++
	if p.updateErr != nil {
		return p.updateErr
	}
	for ident, identity := range p.byIdent {
		if identity.ID == id {
			identity.PasswordHash = newHash
			p.byIdent[ident] = identity
		}
	}
	return nil
}

func (p *mockProvider) UpdateCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateCalls
}

func testHash(t *testing.T, cfg PasswordConfig, secret string) string {
	t.Helper()

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Memory,
		Time:        cfg.Time,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
	if err != nil {
		t.Fatalf("argon2 init: %v", err)
	}

	hash, err := hasher.Hash(secret)
	if err != nil {
		t.Fatalf("argon2 hash: %v", err)
	}
	return hash
}

// newTestEngine builds an engine over miniredis with one seeded identity.
// mutate can adjust the config before Build.
func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *mockProvider) {
	t.Helper()

	cfg := newTestConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	provider := newMockProvider()
	provider.put(Identity{
		ID:           testUserID,
		Username:     testIdentifier,
		PasswordHash: testHash(t, cfg.Password, testPassword),
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

func mustLogin(t *testing.T, engine *Engine) TokenPair {
	t.Helper()

	pair, err := engine.Login(context.Background(), testIdentifier, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("login returned empty token pair")
	}
	return pair
}

func testCaller() Identity {
	return Identity{
		ID:       testUserID,
		Username: testIdentifier,
		Roles:    []string{"user", "admin"},
	}
}

func shortLifetimes(cfg *Config) {
	cfg.JWT.AccessLifetime = 50 * time.Millisecond
	cfg.Refresh.Lifetime = 50 * time.Millisecond
}
