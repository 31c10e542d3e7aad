package password

import (
	"strings"
	"testing"
)

// cheap but valid parameters so hashing stays fast under test.
func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestHasher(t *testing.T, cfg Config) *Argon2 {
	t.Helper()

	h, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	return h
}

func TestNewArgon2RejectsWeakParameters(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"low memory", func(c *Config) { c.Memory = 1024 }},
		{"zero time", func(c *Config) { c.Time = 0 }},
		{"zero parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"short salt", func(c *Config) { c.SaltLength = 8 }},
		{"short key", func(c *Config) { c.KeyLength = 8 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := NewArgon2(cfg); err == nil {
				t.Fatal("expected parameter error")
			}
		})
	}
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t, testConfig())

	encoded, err := h.Hash("hunter2-but-longer")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %s", encoded)
	}

	ok, err := h.Verify("hunter2-but-longer", encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct secret rejected")
	}

	ok, err = h.Verify("wrong-secret", encoded)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong secret accepted")
	}
}

func TestHashSaltsAreUnique(t *testing.T) {
	h := newTestHasher(t, testConfig())

	a, err := h.Hash("same-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := h.Hash("same-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same secret are identical; salt is not random")
	}
}

func TestVerifyCorruptHashIsError(t *testing.T) {
	h := newTestHasher(t, testConfig())

	cases := []string{
		"",
		"not-a-phc-string",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	}

	for _, encoded := range cases {
		if _, err := h.Verify("anything", encoded); err == nil {
			t.Fatalf("corrupt hash %q verified without error", encoded)
		}
	}
}

func TestVerifyUsesEmbeddedParameters(t *testing.T) {
	// A hash produced under one cost config must verify under another; the
	// parameters ride in the encoded string.
	weak := newTestHasher(t, testConfig())

	strongCfg := testConfig()
	strongCfg.Time = 2
	strong := newTestHasher(t, strongCfg)

	encoded, err := weak.Hash("portable-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := strong.Verify("portable-secret", encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("cross-config verification failed")
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak := newTestHasher(t, testConfig())

	encoded, err := weak.Hash("secret-to-upgrade")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	up, err := weak.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("needs upgrade: %v", err)
	}
	if up {
		t.Fatal("hash at current cost should not need an upgrade")
	}

	strongCfg := testConfig()
	strongCfg.Time = 3
	strong := newTestHasher(t, strongCfg)

	up, err = strong.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("needs upgrade: %v", err)
	}
	if !up {
		t.Fatal("hash at lower time cost should need an upgrade")
	}
}
