package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var errNoToken = errors.New("auth: no authorization header")

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write
// the identity in a request context — no collisions with other packages.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth enforces authentication on protected routes.
//
// It reads the token from the Authorization header ("Bearer <token>",
// though a bare token is also accepted), validates it, and stores the
// Identity in the request context. Missing or invalid tokens get a
// 401 JSON response and the chain stops.
//
// The token travels in a header, not a cookie: the frontend is a static
// page making fetch() calls, and it attaches the header itself from
// localStorage. A 401 is its signal to drop the stored token and send
// the user back to the login page.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated caller from the request
// context. Returns (nil, false) if the request carried no valid token —
// which on a RequireAuth-protected route should never happen.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

func extractIdentity(r *http.Request, tokens *TokenService) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errNoToken
	}

	// "Bearer <token>" is the documented form; tolerate a bare token
	// the way the original backend did.
	token := strings.TrimPrefix(header, "Bearer ")

	return tokens.Validate(token)
}
