package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/classware/authcore"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity injected by [Guard].
func IdentityFromContext(ctx context.Context) (authcore.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(authcore.Identity)
	return identity, ok
}

// Guard authenticates every request through the engine and injects the
// resolved identity into the request context. Requests without a usable
// token get a 401 JSON body.
func Guard(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			token, ok := requestToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			identity, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects guarded requests whose identity holds none of the
// listed roles. It must run inside [Guard].
func RequireRoles(roles ...authcore.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if err := authcore.RequireRole(identity, roles...); err != nil {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOrRoles rejects guarded requests unless the identity owns
// the addressed resource or holds a bypass role. The owner id is resolved
// per request, usually from a path parameter.
func RequireOwnerOrRoles(ownerID func(*http.Request) string, bypass ...authcore.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if err := authcore.RequireOwnerOrRole(identity, ownerID(r), bypass...); err != nil {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestToken extracts the bearer token, preferring the Authorization
// header and falling back to the "token" cookie set for browser clients.
func requestToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
