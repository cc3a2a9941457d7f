package server

import (
	"log/slog"
	"net/http"

	"galaxy-server/internal/auth"
	authHandlers "galaxy-server/internal/auth/handlers"
	"galaxy-server/internal/galaxy"
	galaxyHandlers "galaxy-server/internal/galaxy/handlers"
	"galaxy-server/internal/middleware"
	serverHandlers "galaxy-server/internal/server/handlers"
)

type Routes struct {
	db            serverHandlers.Pinger
	cache         serverHandlers.Pinger
	galaxyService *galaxy.Service
	oauthConfig   *auth.OAuthConfig
	states        *auth.StateManager
	logger        *slog.Logger
}

func NewRoutes(db, cache serverHandlers.Pinger, galaxyService *galaxy.Service, oauthConfig *auth.OAuthConfig, states *auth.StateManager, logger *slog.Logger) *Routes {
	return &Routes{
		db:            db,
		cache:         cache,
		galaxyService: galaxyService,
		oauthConfig:   oauthConfig,
		states:        states,
		logger:        logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db, r.cache, r.galaxyService)
	galaxyHandler := galaxyHandlers.NewGalaxyHandler(r.galaxyService, r.logger)
	githubAuthHandler := authHandlers.NewOAuthHandler(
		r.oauthConfig.GitHubProvider,
		r.states,
		r.oauthConfig.GitHubConfigured,
	)

	// Public endpoints
	mux.Handle("GET /api/server/health", healthHandler)
	mux.HandleFunc("GET /api/galaxy/parameters", galaxyHandler.Parameters)
	mux.HandleFunc("GET /api/galaxy/parameters/history", galaxyHandler.History)
	mux.HandleFunc("GET /api/galaxy/controls", galaxyHandler.Controls)
	mux.HandleFunc("GET /api/galaxy/buffer", galaxyHandler.Buffer)
	mux.HandleFunc("GET /api/galaxy/status", galaxyHandler.Status)

	// Authenticated endpoints
	mux.Handle("GET /api/operators/me", middleware.JWTMiddleware(authHandlers.NewMeHandler()))

	// Operator-only endpoints
	mux.Handle("PUT /api/galaxy/parameters", middleware.RequireOperator(http.HandlerFunc(galaxyHandler.Parameters)))

	// OAuth endpoints
	mux.HandleFunc("GET /auth/github", githubAuthHandler.HandleAuth)
	mux.HandleFunc("GET /auth/github/callback", githubAuthHandler.HandleCallback)
	mux.Handle("POST /auth/logout", authHandlers.NewLogoutHandler())

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/galaxy/parameters", "/api/galaxy/parameters/history", "/api/galaxy/controls", "/api/galaxy/buffer", "/api/galaxy/status"},
		"protected_endpoints", []string{"/api/operators/me"},
		"operator_endpoints", []string{"PUT /api/galaxy/parameters"},
		"auth_endpoints", []string{"/auth/github", "/auth/logout"},
	)

	return mux
}
