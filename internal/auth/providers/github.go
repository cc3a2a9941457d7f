package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
)

const githubAPIURL = "https://api.github.com"

type githubUser struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

type GitHubProvider struct {
	config *oauth2.Config
	apiURL string
}

func NewGitHubProvider(config *oauth2.Config) *GitHubProvider {
	return &GitHubProvider{config: config, apiURL: githubAPIURL}
}

func (p *GitHubProvider) Name() string {
	return "github"
}

func (p *GitHubProvider) GetAuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GitHubProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	logger := slog.With("provider", "github", "operation", "exchange_code")

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		logger.Error("Failed to exchange GitHub authorization code", "error", err)
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

// GetUserInfo resolves the GitHub account and its primary verified e-mail.
// The /user endpoint's email field is only the public one, so the verified
// address always comes from /user/emails.
func (p *GitHubProvider) GetUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUser, error) {
	logger := slog.With("provider", "github", "operation", "get_user_info")
	client := p.config.Client(ctx, token)

	var user githubUser
	if err := p.getJSON(client, "/user", &user); err != nil {
		logger.Error("Failed to fetch GitHub user", "error", err)
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("GitHub user info missing user ID")
	}

	var emails []githubEmail
	if err := p.getJSON(client, "/user/emails", &emails); err != nil {
		logger.Warn("Failed to fetch GitHub emails", "error", err, "github_user_id", user.ID)
	}

	info := &OAuthUser{
		ID:    strconv.Itoa(user.ID),
		Login: user.Login,
		Name:  user.Name,
	}
	if email, ok := pickEmail(emails); ok {
		info.Email = email
		info.EmailVerified = true
	} else {
		info.Email = user.Email
	}

	logger.Debug("Retrieved GitHub user info",
		"github_user_id", user.ID,
		"login", user.Login,
		"email_verified", info.EmailVerified)
	return info, nil
}

func (p *GitHubProvider) getJSON(client *http.Client, path string, dst any) error {
	resp, err := client.Get(p.apiURL + path)
	if err != nil {
		return fmt.Errorf("failed to request %s from GitHub: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GitHub API %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode GitHub %s response: %w", path, err)
	}
	return nil
}

// pickEmail prefers the primary verified address, then any verified one.
func pickEmail(emails []githubEmail) (string, bool) {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, true
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, true
		}
	}
	return "", false
}
