package authcore

import (
	"strings"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func TestDefaultConfigValidatesWithSecret(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}

	if cfg.Reset.TTL != 10*time.Minute {
		t.Fatalf("expected 10 minute reset TTL, got %v", cfg.Reset.TTL)
	}
	if cfg.Account.DefaultRole != RoleStudent {
		t.Fatalf("expected student default role, got %q", cfg.Account.DefaultRole)
	}
	if !cfg.Session.RequireActiveSession {
		t.Fatal("expected active-session enforcement on by default")
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.Token.Secret = []byte("short") }, "secret"},
		{"zero ttl", func(c *Config) { c.Token.TTL = 0 }, "TTL"},
		{"empty issuer", func(c *Config) { c.Token.Issuer = "" }, "issuer"},
		{"huge leeway", func(c *Config) { c.Token.Leeway = 5 * time.Minute }, "leeway"},
		{"zero reset ttl", func(c *Config) { c.Reset.TTL = 0 }, "reset"},
		{"weak min length", func(c *Config) { c.Password.MinLength = 4 }, "length"},
		{"few digits", func(c *Config) { c.TwoFactor.Digits = 4 }, "digits"},
		{"many digits", func(c *Config) { c.TwoFactor.Digits = 10 }, "digits"},
		{"zero period", func(c *Config) { c.TwoFactor.Period = 0 }, "period"},
		{"wide skew", func(c *Config) { c.TwoFactor.Skew = 5 }, "skew"},
		{"bad default role", func(c *Config) { c.Account.DefaultRole = "root" }, "role"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation failure")
			}
			if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tc.want)) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCloneConfigDetachesSecret(t *testing.T) {
	cfg := validTestConfig()
	clone := cloneConfig(cfg)

	clone.Token.Secret[0] ^= 0xff
	if cfg.Token.Secret[0] == clone.Token.Secret[0] {
		t.Fatal("expected cloned secret to be an independent copy")
	}
}

func TestBuilderRequirements(t *testing.T) {
	cfg := validTestConfig()
	_, client := newTestRedis(t)
	store := newMockStore()
	sink := &captureSink{}

	if _, err := New().WithConfig(cfg).WithRedis(client).WithNotifier(sink).Build(); err == nil {
		t.Fatal("expected missing credential store rejected")
	}
	if _, err := New().WithConfig(cfg).WithRedis(client).WithCredentialStore(store).Build(); err == nil {
		t.Fatal("expected missing notifier rejected")
	}
	if _, err := New().WithConfig(cfg).WithCredentialStore(store).WithNotifier(sink).Build(); err == nil {
		t.Fatal("expected missing redis rejected under active-session enforcement")
	}

	// Without active-session enforcement the engine runs stateless.
	cfg.Session.RequireActiveSession = false
	engine, err := New().WithConfig(cfg).WithCredentialStore(store).WithNotifier(sink).Build()
	if err != nil {
		t.Fatalf("stateless build failed: %v", err)
	}
	engine.Close()
}

func TestBuilderIsSingleUse(t *testing.T) {
	cfg := validTestConfig()
	_, client := newTestRedis(t)

	b := New().WithConfig(cfg).WithRedis(client).WithCredentialStore(newMockStore()).WithNotifier(&captureSink{})
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build rejected")
	}
}
