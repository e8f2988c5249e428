// Package auth provides identity tokens, password hashing, and Google
// sign-in verification.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User registers or logs in (password or Google) → server issues a JWT
// 2. The client stores the token and sends it on every API call as
//    "Authorization: Bearer <token>"
// 3. RequireAuth middleware validates the token and puts the Identity
//    in the request context
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store
// session data. Everything needed (user id, email, username, expiry) is
// inside the signed token, and the signature ensures nobody can tamper
// with it without the secret key. Validation is a pure computation: no
// DB lookup per request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/seifsameh007/sciptivity/internal/model"
)

const issuer = "sciptivity"

// tokenTTL is the token lifetime. Seven days matches the product's
// "stay signed in on this device for a while" expectation — there is no
// refresh-token flow; after expiry the client logs the user out and
// redirects to the login page.
const tokenTTL = 7 * 24 * time.Hour

// Identity is what a validated token proves about the caller.
// Email and Username ride along in the token so the UI can show them
// without an extra /me round trip.
type Identity struct {
	UserID   string
	Email    string
	Username string
}

// TokenService signs and verifies identity tokens with an HMAC secret.
// The same secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. RegisteredClaims covers the standard fields
// (Subject holds the user ID); email and username are custom claims.
type claims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Generate creates and signs a token for the given user.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, and fine for
// a single-server deployment. Validate refuses anything else.
func (s *TokenService) Generate(user *model.User) (string, error) {
	return s.generate(user, tokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry.
// Used by tests to produce already-expired tokens.
func (s *TokenService) GenerateWithDuration(user *model.User, d time.Duration) (string, error) {
	return s.generate(user, d)
}

func (s *TokenService) generate(user *model.User, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns the Identity
// it encodes.
//
// Checks performed by the jwt library:
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired
//   - Issuer matches (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks —
//     without WithValidMethods an attacker could send alg "none")
func (s *TokenService) Validate(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}

	return &Identity{
		UserID:   c.Subject,
		Email:    c.Email,
		Username: c.Username,
	}, nil
}
