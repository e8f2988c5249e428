// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the store
//
// Services accept primitives and return domain errors (apperror
// sentinels), never HTTP types or status codes. They take repository
// INTERFACES, so tests inject in-memory mocks and the services never
// import the sqlite package.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/seifsameh007/sciptivity/internal/apperror"
	"github.com/seifsameh007/sciptivity/internal/auth"
	"github.com/seifsameh007/sciptivity/internal/model"
	"github.com/seifsameh007/sciptivity/internal/repository"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// emailPattern is the same loose shape check the register form applies:
// something, an @, something, a dot, something. Real validation happens
// when mail is actually sent; this only catches obvious typos.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthService handles registration and sign-in.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	google    *auth.GoogleVerifier
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// google may be nil when Google sign-in is not configured; GoogleSignIn
// then fails cleanly.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	google *auth.GoogleVerifier,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		google:    google,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued token so the handler
// can respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a password account and signs the new user in.
//
// Validation mirrors the register form: username at least 3 characters,
// password at least 6, email must look like an email. A duplicate email
// is a validation error (400), not a conflict — the client shows it
// inline on the email field either way, and we also rely on the UNIQUE
// constraint to close the check-then-insert race.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if username == "" || email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "all fields are required")
	}
	if len(username) < MinUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be at least %d characters", MinUsernameLength))
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if !emailPattern.MatchString(email) {
		return nil, apperror.ValidationFailed("email", "invalid email format")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.ValidationFailed("email", "user with this email already exists")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issue(user)
}

// Login signs in a password account.
//
// All three failures — unknown email, Google-only account, wrong
// password — are validation errors with distinct messages, matching what
// the login form shows. (This product tells the user which of the three
// happened; the usual "don't confirm account existence" tradeoff was
// decided the other way here.)
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.ValidationFailed("email", "no account found with this email")
	}

	if !user.HasPassword() {
		return nil, apperror.ValidationFailed("email",
			"this account uses Google sign-in, please use Google to log in")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.ValidationFailed("password", "incorrect password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issue(user)
}

// GoogleSignIn verifies a Google ID-token credential and signs the
// matching account in, creating or linking it as needed.
func (s *AuthService) GoogleSignIn(ctx context.Context, credential string) (*AuthResult, error) {
	if s.google == nil {
		return nil, fmt.Errorf("service/auth: google sign-in is not configured")
	}

	gUser, err := s.google.VerifyIDToken(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("service/auth: verifying google credential: %w", err)
	}

	return s.LoginOrRegisterGoogle(ctx, gUser)
}

// LoginOrRegisterGoogle resolves a verified Google profile to a local
// account. Three cases:
//
//  1. An account already linked to this Google ID → sign it in
//  2. An account with the same email → link the Google ID (and adopt
//     the avatar) onto it, then sign it in
//  3. No account → create one, username from the Google display name or
//     the email's local part
//
// Shared by both sign-in paths (credential POST and OAuth callback).
func (s *AuthService) LoginOrRegisterGoogle(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, error) {
	if gUser == nil || gUser.Sub == "" {
		return nil, fmt.Errorf("service/auth: google user must not be nil")
	}

	user, err := s.users.GetByGoogleID(ctx, gUser.Sub)
	if err != nil {
		// Not linked yet — look for an existing account by email.
		user, err = s.users.GetByEmail(ctx, gUser.Email)
		if err == nil {
			user.GoogleID = gUser.Sub
			if gUser.Picture != "" {
				user.AvatarURL = gUser.Picture
			}
			if err := s.users.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("service/auth: linking google identity: %w", err)
			}
			s.logger.Info("google identity linked", slog.String("userID", user.ID))
		} else {
			username := strings.TrimSpace(gUser.Name)
			if username == "" {
				username, _, _ = strings.Cut(gUser.Email, "@")
			}
			user = &model.User{
				Username:  username,
				Email:     strings.ToLower(gUser.Email),
				GoogleID:  gUser.Sub,
				AvatarURL: gUser.Picture,
			}
			if err := s.users.Create(ctx, user); err != nil {
				return nil, fmt.Errorf("service/auth: creating google user: %w", err)
			}
			s.logger.Info("user registered via google", slog.String("userID", user.ID))
		}
	}

	return s.issue(user)
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/auth/me handler after the middleware validates the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
