package ghimport

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// ErrOAuthNotConfigured is returned when the OAuth app credentials are unset.
var ErrOAuthNotConfigured = errors.New("github oauth is not configured")

// Identity is the GitHub account behind an access token.
type Identity struct {
	ProviderID string
	Login      string
	Email      string
}

// OAuth completes GitHub's OAuth code flow: it exchanges authorization codes
// for access tokens and resolves the account behind them.
type OAuth struct {
	conf    *oauth2.Config
	apiBase string
}

// OAuthOption tweaks OAuth construction.
type OAuthOption func(*OAuth)

// WithOAuthEndpoints points the exchanger at a different token URL and API
// root, trailing slash required on the API root. Used by tests.
func WithOAuthEndpoints(tokenURL, apiBase string) OAuthOption {
	return func(o *OAuth) {
		o.conf.Endpoint = oauth2.Endpoint{TokenURL: tokenURL}
		o.apiBase = apiBase
	}
}

// NewOAuth creates an exchanger for the given OAuth app. Blank credentials
// are allowed; Login then fails with ErrOAuthNotConfigured.
func NewOAuth(clientID, clientSecret string, opts ...OAuthOption) *OAuth {
	o := &OAuth{conf: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     githuboauth.Endpoint,
	}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Login exchanges the authorization code for an access token and resolves
// the GitHub identity it belongs to.
func (o *OAuth) Login(ctx context.Context, code string) (string, *Identity, error) {
	if o.conf.ClientID == "" || o.conf.ClientSecret == "" {
		return "", nil, ErrOAuthNotConfigured
	}

	tok, err := o.conf.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	api := github.NewClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok)))
	if o.apiBase != "" {
		if u, err := api.BaseURL.Parse(o.apiBase); err == nil {
			api.BaseURL = u
		}
	}

	user, _, err := api.Users.Get(ctx, "")
	if err != nil {
		return "", nil, fmt.Errorf("fetch github user: %w", err)
	}
	if user.GetLogin() == "" {
		return "", nil, errors.New("github user has no login")
	}

	id := &Identity{
		ProviderID: strconv.FormatInt(user.GetID(), 10),
		Login:      user.GetLogin(),
		Email:      user.GetEmail(),
	}
	if id.Email == "" {
		// Profiles may hide the email; the primary address is still
		// visible to the token itself.
		if emails, _, err := api.Users.ListEmails(ctx, nil); err == nil {
			for _, e := range emails {
				if e.GetPrimary() {
					id.Email = e.GetEmail()
					break
				}
			}
			if id.Email == "" && len(emails) > 0 {
				id.Email = emails[0].GetEmail()
			}
		}
	}
	return tok.AccessToken, id, nil
}
