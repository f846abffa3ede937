// Package token manages session-token issuance and verification using a
// process-wide HS256 signing secret and strict validation semantics.
//
// # Architecture boundaries
//
// This package owns claim layout, signing, and validation. It does NOT
// load identities, check password-change timestamps, or consult session
// records — those responsibilities belong to the Engine's guard.
package token
