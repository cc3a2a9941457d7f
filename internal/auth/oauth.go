package auth

import (
	"log/slog"

	"galaxy-server/internal/auth/providers"
	"galaxy-server/internal/shared/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

type OAuthConfig struct {
	GitHubProvider   *providers.GitHubProvider
	GitHubConfigured bool
}

func InitOAuth() *OAuthConfig {
	cfg := config.GlobalConfig
	logger := slog.With("component", "oauth", "operation", "init")

	githubConfig := &oauth2.Config{
		ClientID:     cfg.OAuth.GitHub.ClientID,
		ClientSecret: cfg.OAuth.GitHub.ClientSecret,
		RedirectURL:  cfg.OAuth.GitHub.RedirectURL,
		Scopes:       cfg.OAuth.GitHub.Scopes,
		Endpoint:     github.Endpoint,
	}
	configured := cfg.GitHubOAuthConfigured()

	logger.Info("OAuth configuration completed",
		"github_configured", configured,
		"github_redirect", githubConfig.RedirectURL,
		"operator_emails", len(cfg.Admin.Emails),
	)
	if !configured {
		logger.Warn("GitHub OAuth not configured - operator login disabled")
	}

	return &OAuthConfig{
		GitHubProvider:   providers.NewGitHubProvider(githubConfig),
		GitHubConfigured: configured,
	}
}
