package service

import (
	"context"
	"errors"
	"testing"

	"github.com/seifsameh007/sciptivity/internal/apperror"
	"github.com/seifsameh007/sciptivity/internal/auth"
)

// newTestAuthService returns an AuthService wired with fake dependencies.
// The TokenService uses a short secret, suitable for tests only.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	// Cost 4 is bcrypt minimum — makes tests fast
	ps := auth.NewPasswordServiceForTest(4)

	return NewAuthService(repo, ts, ps, nil, testLogger())
}

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.Register(context.Background(), "seif", "Seif@Example.com", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if result.Token == "" {
		t.Fatal("Register() returned empty Token")
	}
	if result.User.Email != "seif@example.com" {
		t.Errorf("email = %q, want lowercased %q", result.User.Email, "seif@example.com")
	}
	if result.User.ID == "" {
		t.Error("User.ID should be set after create")
	}
	if result.User.PasswordHash == "secret1" {
		t.Error("password must be stored hashed, not plaintext")
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"missing username", "", "a@b.com", "secret1"},
		{"missing email", "seif", "", "secret1"},
		{"missing password", "seif", "a@b.com", ""},
		{"short username", "ab", "a@b.com", "secret1"},
		{"short password", "seif", "a@b.com", "12345"},
		{"bad email", "seif", "not-an-email", "secret1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			svc := newTestAuthService(t, repo)

			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want validation error", err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "first", "dupe@example.com", "secret1"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), "second", "dupe@example.com", "secret2")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("duplicate Register() error = %v, want validation error", err)
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	registered, err := svc.Register(context.Background(), "seif", "seif@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(context.Background(), "SEIF@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.ID != registered.User.ID {
		t.Errorf("logged in as %q, registered as %q", result.User.ID, registered.User.ID)
	}
	if result.Token == "" {
		t.Error("Login() returned empty Token")
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	_, err := svc.Login(context.Background(), "nobody@example.com", "secret1")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Login() error = %v, want validation error", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "seif", "seif@example.com", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Login(context.Background(), "seif@example.com", "wrong-password")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Login() error = %v, want validation error", err)
	}
}

func TestLogin_GoogleOnlyAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	// Account created through Google has no password hash
	if _, err := svc.LoginOrRegisterGoogle(context.Background(), &auth.GoogleUser{
		Sub:   "google-sub-1",
		Email: "gonly@example.com",
		Name:  "Google Only",
	}); err != nil {
		t.Fatalf("LoginOrRegisterGoogle() error = %v", err)
	}

	_, err := svc.Login(context.Background(), "gonly@example.com", "whatever")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Login() error = %v, want validation error for google-only account", err)
	}
}

// =========================================================================
// LoginOrRegisterGoogle TESTS
// =========================================================================

func TestLoginOrRegisterGoogle_NewUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.LoginOrRegisterGoogle(context.Background(), &auth.GoogleUser{
		Sub:     "sub-42",
		Email:   "New@Example.com",
		Name:    "New Person",
		Picture: "https://example.com/p.png",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGoogle() error = %v", err)
	}

	if result.User.Username != "New Person" {
		t.Errorf("Username = %q, want display name", result.User.Username)
	}
	if result.User.Email != "new@example.com" {
		t.Errorf("Email = %q, want lowercased", result.User.Email)
	}
	if result.User.GoogleID != "sub-42" {
		t.Errorf("GoogleID = %q, want %q", result.User.GoogleID, "sub-42")
	}
	if result.Token == "" {
		t.Error("returned empty Token")
	}
}

func TestLoginOrRegisterGoogle_UsernameFallsBackToEmailLocalPart(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.LoginOrRegisterGoogle(context.Background(), &auth.GoogleUser{
		Sub:   "sub-43",
		Email: "localpart@example.com",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGoogle() error = %v", err)
	}
	if result.User.Username != "localpart" {
		t.Errorf("Username = %q, want %q", result.User.Username, "localpart")
	}
}

func TestLoginOrRegisterGoogle_LinksExistingPasswordAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	registered, err := svc.Register(context.Background(), "seif", "seif@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.LoginOrRegisterGoogle(context.Background(), &auth.GoogleUser{
		Sub:     "sub-99",
		Email:   "seif@example.com",
		Name:    "Seif",
		Picture: "https://example.com/avatar.png",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGoogle() error = %v", err)
	}

	if result.User.ID != registered.User.ID {
		t.Fatalf("linked into user %q, want existing %q", result.User.ID, registered.User.ID)
	}
	if result.User.GoogleID != "sub-99" {
		t.Errorf("GoogleID = %q, want linked %q", result.User.GoogleID, "sub-99")
	}
	if result.User.AvatarURL != "https://example.com/avatar.png" {
		t.Errorf("AvatarURL = %q, want adopted from Google", result.User.AvatarURL)
	}

	// Password login must still work after linking
	if _, err := svc.Login(context.Background(), "seif@example.com", "secret1"); err != nil {
		t.Errorf("Login() after linking error = %v", err)
	}
}

func TestLoginOrRegisterGoogle_SecondSignInReusesAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	gUser := &auth.GoogleUser{Sub: "sub-7", Email: "seven@example.com", Name: "Seven"}

	first, err := svc.LoginOrRegisterGoogle(context.Background(), gUser)
	if err != nil {
		t.Fatalf("first sign-in error = %v", err)
	}
	second, err := svc.LoginOrRegisterGoogle(context.Background(), gUser)
	if err != nil {
		t.Fatalf("second sign-in error = %v", err)
	}

	if first.User.ID != second.User.ID {
		t.Errorf("second sign-in created a new account: %q vs %q", first.User.ID, second.User.ID)
	}
	if len(repo.users) != 1 {
		t.Errorf("user count = %d, want 1", len(repo.users))
	}
}

func TestLoginOrRegisterGoogle_NilUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.LoginOrRegisterGoogle(context.Background(), nil); err == nil {
		t.Fatal("LoginOrRegisterGoogle() should return error for nil user")
	}
	if _, err := svc.LoginOrRegisterGoogle(context.Background(), &auth.GoogleUser{Email: "x@y.com"}); err == nil {
		t.Fatal("LoginOrRegisterGoogle() should return error for empty subject")
	}
}

// =========================================================================
// GetUserByID TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	registered, err := svc.Register(context.Background(), "seif", "seif@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.GetUserByID(context.Background(), registered.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if user.Username != "seif" {
		t.Errorf("Username = %q, want %q", user.Username, "seif")
	}

	if _, err := svc.GetUserByID(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID(missing) error = %v, want not found", err)
	}
	if _, err := svc.GetUserByID(context.Background(), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetUserByID(empty) error = %v, want validation error", err)
	}
}

// Tokens issued by the service must validate through the same TokenService.
func TestIssuedTokenRoundTrip(t *testing.T) {
	repo := newFakeUserRepo()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	svc := NewAuthService(repo, ts, auth.NewPasswordServiceForTest(4), nil, testLogger())

	result, err := svc.Register(context.Background(), "seif", "seif@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	identity, err := ts.Validate(result.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if identity.UserID != result.User.ID {
		t.Errorf("token subject = %q, want %q", identity.UserID, result.User.ID)
	}
	if identity.Email != "seif@example.com" {
		t.Errorf("token email = %q, want %q", identity.Email, "seif@example.com")
	}
}
