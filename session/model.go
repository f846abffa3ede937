package session

// Record describes one logged-in session. It is created at login, removed
// on revoke, and never mutated otherwise.
type Record struct {
	SessionID  string
	IdentityID string
	CreatedAt  int64
	IP         string
	UserAgent  string
}
