package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// ErrNoCredentials is returned when no authentication scheme can be configured.
var ErrNoCredentials = errors.New("no Jira credentials configured: set JIRA_EMAIL and JIRA_API_TOKEN, JIRA_PAT, or an OAuth token")

// Atlassian OAuth 2.0 (3LO) endpoints.
var atlassianEndpoint = oauth2.Endpoint{
	AuthURL:  "https://auth.atlassian.com/authorize",
	TokenURL: "https://auth.atlassian.com/oauth/token",
}

// Authenticator decorates outgoing requests with credentials.
type Authenticator interface {
	Authenticate(req *http.Request) error
	Mode() AuthMode
}

type basicAuth struct {
	email string
	token string
}

func (a basicAuth) Authenticate(req *http.Request) error {
	req.SetBasicAuth(a.email, a.token)
	return nil
}

func (basicAuth) Mode() AuthMode { return AuthBasic }

type patAuth struct {
	token string
}

func (a patAuth) Authenticate(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+a.token)
	return nil
}

func (patAuth) Mode() AuthMode { return AuthPAT }

type oauthAuth struct {
	source oauth2.TokenSource
}

func (a oauthAuth) Authenticate(req *http.Request) error {
	tok, err := a.source.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain OAuth access token: %w", err)
	}
	tok.SetAuthHeader(req)
	return nil
}

func (oauthAuth) Mode() AuthMode { return AuthOAuth }

// NewAuthenticator picks the configured scheme. In auto mode OAuth wins over a
// personal access token, which wins over basic auth.
func NewAuthenticator(ctx context.Context, cfg Config) (Authenticator, error) {
	mode := cfg.AuthMode
	if mode == "" || mode == AuthAuto {
		mode = detectMode(cfg)
	}

	switch mode {
	case AuthOAuth:
		if cfg.OAuth.AccessToken == "" && cfg.OAuth.RefreshToken == "" {
			return nil, fmt.Errorf("oauth: %w", ErrNoCredentials)
		}
		return oauthAuth{source: oauthTokenSource(ctx, cfg.OAuth)}, nil
	case AuthPAT:
		if cfg.PAT == "" {
			return nil, fmt.Errorf("pat: %w", ErrNoCredentials)
		}
		return patAuth{token: cfg.PAT}, nil
	case AuthBasic:
		if cfg.Email == "" || cfg.APIToken == "" {
			return nil, fmt.Errorf("basic: %w", ErrNoCredentials)
		}
		return basicAuth{email: cfg.Email, token: cfg.APIToken}, nil
	case "":
		return nil, ErrNoCredentials
	default:
		return nil, fmt.Errorf("unknown Jira auth mode %q", mode)
	}
}

func detectMode(cfg Config) AuthMode {
	switch {
	case cfg.OAuth.AccessToken != "" || cfg.OAuth.RefreshToken != "":
		return AuthOAuth
	case cfg.PAT != "":
		return AuthPAT
	case cfg.Email != "" && cfg.APIToken != "":
		return AuthBasic
	}
	return ""
}

// oauthTokenSource refreshes through Atlassian when a refresh token and client id
// are available, and otherwise serves the access token as is.
func oauthTokenSource(ctx context.Context, cfg OAuthConfig) oauth2.TokenSource {
	tok := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		TokenType:    "Bearer",
	}
	if cfg.RefreshToken == "" || cfg.ClientID == "" {
		return oauth2.StaticTokenSource(tok)
	}
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     atlassianEndpoint,
	}
	return oauth2.ReuseTokenSource(tok, conf.TokenSource(ctx, tok))
}
