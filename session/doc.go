// Package session provides Redis-backed bookkeeping of active sessions
// with a compact binary record encoding.
//
// One record is written per login and indexed per identity, which is what
// makes "list my sessions", per-session revocation, and revoke-all
// possible. Records expire with the token TTL, so the index is pruned
// lazily on read.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Record] model.
// It does NOT interpret tokens or decide authentication policy — those
// responsibilities belong to the Engine.
package session
