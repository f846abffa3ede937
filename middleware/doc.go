// Package middleware exposes HTTP adapters over the authcore engine: a
// bearer-token guard and role wrappers for net/http handler chains.
//
// # Guards
//
//   - [Guard] — authenticates the request and injects the identity.
//   - [RequireRoles] — layers a role check over an already-guarded route.
//   - [RequireOwnerOrRoles] — ownership check with role bypass.
//
// The guard reads the Authorization header, falling back to the "token"
// cookie for browser clients, calls Engine.Authenticate, and injects the
// resolved identity into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; all decisions are delegated to
// Engine.Authenticate and the authcore guard predicates.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond the authcore predicates.
package middleware
