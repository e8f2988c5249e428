package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// googleUserInfoURL is the OpenID Connect userinfo endpoint. Its response
// fields (sub, email, name, picture) map directly onto GoogleUser.
const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleProvider wraps golang.org/x/oauth2 for the redirect-based
// Authorization Code flow — the alternative to the in-page credential
// button for browsers that block third-party scripts.
//
// FLOW:
// 1. GET /auth/google/login redirects to Google's consent page with our
//    client ID and a CSRF state value
// 2. Google redirects back to the callback URL with a short-lived code
// 3. We exchange the code for an access token (server-to-server, using
//    the client secret — the token never touches the browser)
// 4. We call the userinfo endpoint to learn who authorized us
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider creates a provider with the given credentials.
// callbackURL must exactly match the redirect URI registered in the
// Google Cloud console.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the consent-page URL to redirect the user to.
//
// The state is a random value the handler stores in a short-lived cookie
// before redirecting; the callback verifies the returned state matches.
// That proves the callback completes a flow THIS server started, not one
// a CSRF attacker initiated.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the flow: trades the authorization code for the
// Google profile of the user who approved it.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging oauth code: %w", err)
	}

	// config.Client returns an *http.Client that attaches the
	// Authorization header on every request.
	client := p.config.Client(ctx, token)

	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: google userinfo returned status %d", resp.StatusCode)
	}

	var gUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&gUser); err != nil {
		return nil, fmt.Errorf("auth: decoding google userinfo: %w", err)
	}

	if gUser.Sub == "" {
		return nil, fmt.Errorf("auth: google returned an invalid user (empty sub)")
	}

	return &gUser, nil
}
