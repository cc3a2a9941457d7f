package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"galaxy-server/internal/auth"
	"galaxy-server/internal/auth/providers"
	"galaxy-server/internal/shared/config"
	"galaxy-server/internal/shared/cookies"
	"galaxy-server/internal/shared/errors"
	"galaxy-server/internal/shared/response"
)

// OAuthHandler logs operators in through GitHub and hands them
// an auth cookie carrying their role.
type OAuthHandler struct {
	provider     providers.OAuthProvider
	states       *auth.StateManager
	isConfigured bool
}

func NewOAuthHandler(provider providers.OAuthProvider, states *auth.StateManager, isConfigured bool) *OAuthHandler {
	return &OAuthHandler{
		provider:     provider,
		states:       states,
		isConfigured: isConfigured,
	}
}

func (h *OAuthHandler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	name := h.provider.Name()
	logger := slog.With("handler", name+"_oauth_init")

	if !h.isConfigured {
		response.Error(w, r, logger, errors.External(fmt.Sprintf("%s OAuth is not properly configured", name)))
		return
	}

	state, err := h.states.GenerateState(name, r.UserAgent())
	if err != nil {
		response.Error(w, r, logger, errors.WrapInternal("failed to initialize OAuth flow", err))
		return
	}

	http.Redirect(w, r, h.provider.GetAuthURL(state), http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	name := h.provider.Name()
	query := r.URL.Query()
	code := query.Get("code")

	logger := slog.With(
		"handler", name+"_oauth_callback",
		"user_agent", r.UserAgent(),
		"ip", r.RemoteAddr,
		"has_code", code != "",
	)

	if errorParam := query.Get("error"); errorParam != "" {
		logger.Warn("OAuth authorization denied",
			"oauth_error", errorParam,
			"error_description", query.Get("error_description"))
		redirectWithError(w, r, "oauth_denied", "Authorization was denied")
		return
	}

	if err := h.states.ValidateState(query.Get("state"), name, r.UserAgent()); err != nil {
		logger.Warn("OAuth state validation failed", "error", err)
		redirectWithError(w, r, "oauth_error", "Invalid request state")
		return
	}

	if code == "" {
		logger.Error("OAuth callback missing authorization code")
		redirectWithError(w, r, "oauth_error", "Missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	token, err := h.provider.ExchangeCode(ctx, code)
	if err != nil {
		logger.Error("Failed to exchange authorization code", "error", err)
		redirectWithError(w, r, "oauth_error", "Failed to exchange authorization code")
		return
	}

	userInfo, err := h.provider.GetUserInfo(ctx, token)
	if err != nil {
		logger.Error("Failed to get user info", "error", err)
		redirectWithError(w, r, "oauth_error", "Failed to retrieve user information")
		return
	}

	userLogger := logger.With(
		"user_email", userInfo.Email,
		"provider_user_id", userInfo.ID,
		"login", userInfo.Login)

	if userInfo.Email == "" || !userInfo.EmailVerified {
		userLogger.Warn("User missing verified email")
		redirectWithError(w, r, "oauth_error", "A verified email address is required")
		return
	}

	role := auth.RoleFor(userInfo.Email)
	jwtToken, err := auth.GenerateJWT(userInfo.Email, userInfo.Login, role)
	if err != nil {
		userLogger.Error("Failed to generate JWT token", "error", err)
		redirectWithError(w, r, "auth_error", "Failed to create authentication token")
		return
	}

	cookies.SetAuthCookie(w, jwtToken)

	userLogger.Info("OAuth authentication successful", "role", role)

	successURL := fmt.Sprintf("%s/auth/callback?success=true", config.GlobalConfig.Frontend.URL)
	http.Redirect(w, r, successURL, http.StatusTemporaryRedirect)
}

// redirectWithError sends the browser back to the frontend's login error
// page; the callback is a top-level navigation, so a JSON body would be lost.
func redirectWithError(w http.ResponseWriter, r *http.Request, errorType, message string) {
	params := url.Values{"error": {errorType}, "message": {message}}
	http.Redirect(w, r, config.GlobalConfig.Frontend.URL+"/auth/error?"+params.Encode(), http.StatusTemporaryRedirect)
}
