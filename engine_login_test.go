package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoginIssuesTokenAndSession(t *testing.T) {
	h := newTestEngine(t)
	reg := h.register(t, "alice", "alice@example.com", "correct-horse")

	ctx := WithClientIP(WithUserAgent(context.Background(), "curl/8"), "203.0.113.9")
	result, err := h.engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a session token")
	}
	if result.Identity.ID != reg.Identity.ID {
		t.Fatalf("identity mismatch: %q vs %q", result.Identity.ID, reg.Identity.ID)
	}

	sessions, err := h.engine.ListSessions(context.Background(), reg.Identity.ID)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	var found bool
	for _, s := range sessions {
		if s.IP == "203.0.113.9" && s.UserAgent == "curl/8" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected session record carrying IP and user agent")
	}

	if h.store.get(t, reg.Identity.ID).LastLoginAt.IsZero() {
		t.Fatal("expected last-login stamp")
	}
}

func TestLoginUniformFailure(t *testing.T) {
	h := newTestEngine(t)
	h.register(t, "alice", "alice@example.com", "correct-horse")

	_, wrongPassword := h.engine.Login(context.Background(), "alice@example.com", "wrong")
	_, unknownEmail := h.engine.Login(context.Background(), "ghost@example.com", "wrong")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatal("failure messages must not distinguish the two cases")
	}

	snap := h.engine.MetricsSnapshot()
	if snap.Counters[MetricLoginFailure] != 2 {
		t.Fatalf("expected two login failures, got %d", snap.Counters[MetricLoginFailure])
	}
}

func TestLoginGatedOnUnconfirmedEmail(t *testing.T) {
	h := newTestEngine(t, func(cfg *Config) {
		cfg.Account.RequireConfirmedEmail = true
	})
	h.register(t, "alice", "alice@example.com", "correct-horse")

	if _, err := h.engine.Login(context.Background(), "alice@example.com", "correct-horse"); !errors.Is(err, ErrEmailNotConfirmed) {
		t.Fatalf("expected ErrEmailNotConfirmed, got %v", err)
	}

	h.confirm(t)
	if _, err := h.engine.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login after confirmation failed: %v", err)
	}
}

func TestLoginRequiresStepUpWithTwoFactorEnabled(t *testing.T) {
	h := newTestEngine(t)
	reg := h.register(t, "alice", "alice@example.com", "correct-horse")
	enableTwoFactor(t, h, reg.Identity.ID)

	result, err := h.engine.Login(context.Background(), "alice@example.com", "correct-horse")
	if !errors.Is(err, ErrTwoFactorRequired) {
		t.Fatalf("expected ErrTwoFactorRequired, got %v", err)
	}
	if result == nil || !result.TwoFactorRequired {
		t.Fatal("expected TwoFactorRequired result")
	}
	if result.Token != "" {
		t.Fatal("no token may be issued before the step-up")
	}
	if result.IdentityID != reg.Identity.ID {
		t.Fatalf("expected identity id for step-up, got %q", result.IdentityID)
	}
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	h := newTestEngine(t)
	reg := h.register(t, "alice", "alice@example.com", "correct-horse")

	weak := h.store.get(t, reg.Identity.ID)
	changedAt := weak.PasswordChangedAt

	// A second engine with a raised work factor over the same store models
	// a redeploy with strengthened parameters.
	h2 := newTestEngine(t, func(cfg *Config) {
		cfg.Password.Memory = 16 * 1024
	})
	h2.store.byID = h.store.byID
	h2.store.byEmail = h.store.byEmail

	if _, err := h2.engine.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	upgraded := h2.store.get(t, reg.Identity.ID)
	if upgraded.PasswordHash == weak.PasswordHash {
		t.Fatal("expected hash re-derived under the stronger work factor")
	}
	if !upgraded.PasswordChangedAt.Equal(changedAt) {
		t.Fatal("hash upgrade must not move PasswordChangedAt")
	}

	// The upgraded hash still verifies.
	if _, err := h2.engine.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login against upgraded hash failed: %v", err)
	}
}

func TestLoginSessionTTLTracksTokenTTL(t *testing.T) {
	h := newTestEngine(t, func(cfg *Config) {
		cfg.Token.TTL = time.Hour
	})
	reg := h.register(t, "alice", "alice@example.com", "correct-horse")

	if _, err := h.engine.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	h.redis.FastForward(2 * time.Hour)

	sessions, err := h.engine.ListSessions(context.Background(), reg.Identity.ID)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected sessions expired with the tokens, got %d", len(sessions))
	}
}
