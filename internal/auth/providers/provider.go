package providers

import (
	"context"

	"golang.org/x/oauth2"
)

// OAuthUser is the GitHub identity of a would-be operator. Only a
// verified Email is matched against the configured operator emails.
type OAuthUser struct {
	ID            string
	Login         string
	Email         string
	EmailVerified bool
	Name          string
}

// OAuthProvider is the GitHub operator login flow implemented by
// GitHubProvider. Handler tests substitute a fake.
type OAuthProvider interface {
	Name() string
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	GetUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUser, error)
}
