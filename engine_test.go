package authcore

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// In-memory credential store mock
// ---------------------------------------------------------------------------

type mockStore struct {
	mu      sync.Mutex
	byID    map[string]Identity
	byEmail map[string]string

	failCreate error
	failUpdate error
}

func newMockStore() *mockStore {
	return &mockStore{
		byID:    make(map[string]Identity),
		byEmail: make(map[string]string),
	}
}

func (s *mockStore) get(t *testing.T, id string) Identity {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byID[id]
	if !ok {
		t.Fatalf("identity %q not in store", id)
	}
	return identity
}

func (s *mockStore) FindByEmail(_ context.Context, email string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return Identity{}, ErrStoreNotFound
	}
	return s.byID[id], nil
}

func (s *mockStore) FindByID(_ context.Context, id string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byID[id]
	if !ok {
		return Identity{}, ErrStoreNotFound
	}
	return identity, nil
}

func (s *mockStore) Create(_ context.Context, identity Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	if _, taken := s.byEmail[identity.Email]; taken {
		return ErrStoreDuplicate
	}
	for _, existing := range s.byID {
		if existing.Username == identity.Username {
			return ErrStoreDuplicate
		}
	}
	s.byID[identity.ID] = identity
	s.byEmail[identity.Email] = identity.ID
	return nil
}

func (s *mockStore) UpdatePasswordHash(_ context.Context, id, newHash string, changedAt time.Time) error {
	if s.failUpdate != nil {
		return s.failUpdate
	}
	return s.update(id, func(identity *Identity) {
		identity.PasswordHash = newHash
		identity.PasswordChangedAt = changedAt
	})
}

func (s *mockStore) SetConfirmationToken(_ context.Context, id string, hash [32]byte) error {
	return s.update(id, func(identity *Identity) {
		identity.ConfirmTokenHash = hash
	})
}

func (s *mockStore) ConsumeConfirmationToken(_ context.Context, hash [32]byte) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hash == ([32]byte{}) {
		return Identity{}, ErrStoreNotFound
	}
	for id, identity := range s.byID {
		if identity.ConfirmTokenHash == hash {
			identity.ConfirmTokenHash = [32]byte{}
			identity.EmailConfirmed = true
			s.byID[id] = identity
			return identity, nil
		}
	}
	return Identity{}, ErrStoreNotFound
}

func (s *mockStore) ClearConfirmationToken(_ context.Context, id string) error {
	return s.update(id, func(identity *Identity) {
		identity.ConfirmTokenHash = [32]byte{}
	})
}

func (s *mockStore) SetResetToken(_ context.Context, id string, hash [32]byte, expiresAt time.Time) error {
	return s.update(id, func(identity *Identity) {
		identity.ResetTokenHash = hash
		identity.ResetExpiresAt = expiresAt
	})
}

func (s *mockStore) ConsumeResetToken(_ context.Context, hash [32]byte, now time.Time) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hash == ([32]byte{}) {
		return Identity{}, ErrStoreNotFound
	}
	for id, identity := range s.byID {
		if identity.ResetTokenHash != hash {
			continue
		}
		if now.After(identity.ResetExpiresAt) {
			return Identity{}, ErrStoreNotFound
		}
		identity.ResetTokenHash = [32]byte{}
		identity.ResetExpiresAt = time.Time{}
		s.byID[id] = identity
		return identity, nil
	}
	return Identity{}, ErrStoreNotFound
}

func (s *mockStore) ClearResetToken(_ context.Context, id string) error {
	return s.update(id, func(identity *Identity) {
		identity.ResetTokenHash = [32]byte{}
		identity.ResetExpiresAt = time.Time{}
	})
}

func (s *mockStore) SetTwoFactor(_ context.Context, id string, secret []byte, enabled bool) error {
	return s.update(id, func(identity *Identity) {
		identity.TwoFactorSecret = secret
		identity.TwoFactorEnabled = enabled
	})
}

func (s *mockStore) SetLastLogin(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(identity *Identity) {
		identity.LastLoginAt = at
	})
}

func (s *mockStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byID[id]
	if !ok {
		return ErrStoreNotFound
	}
	delete(s.byEmail, identity.Email)
	delete(s.byID, id)
	return nil
}

func (s *mockStore) update(id string, fn func(*Identity)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byID[id]
	if !ok {
		return ErrStoreNotFound
	}
	fn(&identity)
	s.byID[id] = identity
	return nil
}

// ---------------------------------------------------------------------------
// Capturing notification sink
// ---------------------------------------------------------------------------

type sentMail struct {
	Recipient string
	Subject   string
	Body      string
}

type captureSink struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (c *captureSink) Send(_ context.Context, recipient, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sentMail{Recipient: recipient, Subject: subject, Body: body})
	return nil
}

func (c *captureSink) last(t *testing.T) sentMail {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatal("no mail captured")
	}
	return c.sent[len(c.sent)-1]
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

// tokenFromMail extracts the single-use code, mailed as the last
// whitespace-separated field of the body.
func tokenFromMail(t *testing.T, mail sentMail) string {
	t.Helper()
	fields := strings.Fields(mail.Body)
	if len(fields) == 0 {
		t.Fatalf("mail body carries no token: %q", mail.Body)
	}
	return fields[len(fields)-1]
}

// ---------------------------------------------------------------------------
// Engine harness
// ---------------------------------------------------------------------------

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	// Floor-level work factor keeps the suite fast.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Audit.Enabled = false
	return cfg
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type testHarness struct {
	engine *Engine
	store  *mockStore
	sink   *captureSink
	redis  *miniredis.Miniredis

	// clock is the value engine.now returns; advance() moves it.
	mu    sync.Mutex
	clock time.Time
}

func (h *testHarness) advance(d time.Duration) {
	h.mu.Lock()
	h.clock = h.clock.Add(d)
	h.mu.Unlock()
	h.redis.FastForward(d)
}

func (h *testHarness) now() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clock
}

func newTestEngine(t *testing.T, mutate ...func(*Config)) *testHarness {
	t.Helper()

	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	mr, client := newTestRedis(t)
	store := newMockStore()
	sink := &captureSink{}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithCredentialStore(store).
		WithNotifier(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	h := &testHarness{
		engine: engine,
		store:  store,
		sink:   sink,
		redis:  mr,
		clock:  time.Now().Truncate(time.Second),
	}
	engine.now = h.now

	return h
}

// register is shorthand for a successful registration.
func (h *testHarness) register(t *testing.T, username, email, plaintext string) *RegisterResult {
	t.Helper()
	result, err := h.engine.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    email,
		Password: plaintext,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return result
}

// confirm consumes the most recently mailed confirmation token.
func (h *testHarness) confirm(t *testing.T) {
	t.Helper()
	token := tokenFromMail(t, h.sink.last(t))
	if err := h.engine.ConfirmEmail(context.Background(), token); err != nil {
		t.Fatalf("ConfirmEmail failed: %v", err)
	}
}
