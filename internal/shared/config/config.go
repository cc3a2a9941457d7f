package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"galaxy-server/internal/shared/utils"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	OAuth     OAuthConfig
	Frontend  FrontendConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Galaxy    GalaxyConfig
	Admin     AdminConfig
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type ServerConfig struct {
	Port            string
	URL             string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

type AuthConfig struct {
	JWTSecret       string
	TokenExpiration time.Duration
	CookieSecure    bool
	CookieSameSite  string
}

type OAuthConfig struct {
	GitHub GitHubOAuthConfig
}

type GitHubOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	JSONFormat bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TrustProxy        bool
}

// GalaxyConfig holds the parameters used when no snapshot has been stored yet.
type GalaxyConfig struct {
	Count             int
	ParticleSize      float64
	Radius            float64
	Branches          int
	Spin              float64
	Randomness        float64
	RandomnessPower   float64
	InsideColor       string
	OutsideColor      string
	Seed              uint64
	Seeded            bool
	GenerationTimeout time.Duration
	HistoryLimit      int
}

type AdminConfig struct {
	// Emails allowed to edit galaxy parameters after GitHub login.
	Emails []string
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

// load reads every section and reports all malformed values at once.
func load() (*Config, error) {
	var env utils.Env

	environment := env.String("ENVIRONMENT", "development")
	serverURL := env.String("SERVER_URL", "http://localhost:8080")
	production := environment == "production"

	config := &Config{
		Server: ServerConfig{
			Port:            env.String("SERVER_PORT", "8080"),
			URL:             serverURL,
			Environment:     environment,
			ReadTimeout:     env.Duration("SERVER_READ_TIMEOUT_SECONDS", 15, time.Second),
			WriteTimeout:    env.Duration("SERVER_WRITE_TIMEOUT_SECONDS", 60, time.Second),
			IdleTimeout:     env.Duration("SERVER_IDLE_TIMEOUT_SECONDS", 60, time.Second),
			ShutdownTimeout: env.Duration("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 10, time.Second),
		},
		Database: DatabaseConfig{
			Host:            env.String("DB_HOST", "localhost"),
			Port:            env.String("DB_PORT", "5432"),
			User:            env.String("DB_USER", "postgres"),
			Password:        env.String("DB_PASSWORD", "postgres"),
			Name:            env.String("DB_NAME", "galaxy"),
			SSLMode:         env.String("DB_SSLMODE", "disable"),
			MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: env.Duration("DB_CONN_MAX_LIFETIME_MINUTES", 5, time.Minute),
			MigrationsPath:  env.String("DB_MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Enabled:  env.Bool("REDIS_ENABLED", true),
			URL:      env.String("REDIS_URL", ""),
			Host:     env.String("REDIS_HOST", "localhost"),
			Port:     env.String("REDIS_PORT", "6379"),
			Password: env.String("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
			CacheTTL: env.Duration("REDIS_CACHE_TTL_MINUTES", 60, time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:       env.String("JWT_SECRET", ""),
			TokenExpiration: env.Duration("JWT_EXPIRATION_HOURS", 24, time.Hour),
			CookieSecure:    env.Bool("COOKIE_SECURE", production),
			CookieSameSite:  env.String("COOKIE_SAME_SITE", "lax"),
		},
		OAuth: OAuthConfig{
			GitHub: GitHubOAuthConfig{
				ClientID:     env.String("GITHUB_CLIENT_ID", ""),
				ClientSecret: env.String("GITHUB_CLIENT_SECRET", ""),
				RedirectURL:  serverURL + "/auth/github/callback",
				Scopes:       []string{"read:user", "user:email"},
			},
		},
		Frontend: FrontendConfig{
			URL:       env.String("FRONTEND_URL", "http://localhost:3000"),
			CORSDebug: env.Bool("CORS_DEBUG", false),
		},
		Logging: loadLoggingConfig(&env),
		RateLimit: RateLimitConfig{
			Enabled:           env.Bool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: env.Float("RATE_LIMIT_REQUESTS_PER_SECOND", 10),
			BurstSize:         env.Int("RATE_LIMIT_BURST_SIZE", 20),
			TrustProxy:        env.Bool("RATE_LIMIT_TRUST_PROXY", false),
		},
		Galaxy: loadGalaxyConfig(&env),
		Admin:  AdminConfig{Emails: env.List("ADMIN_EMAILS")},
	}

	if err := env.Err(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadStandalone reads only the galaxy and logging settings, for tools that
// run without the database and auth configuration.
func LoadStandalone() (GalaxyConfig, LoggingConfig, error) {
	_ = godotenv.Load()

	var env utils.Env
	galaxy := loadGalaxyConfig(&env)
	logging := loadLoggingConfig(&env)
	if err := env.Err(); err != nil {
		return GalaxyConfig{}, LoggingConfig{}, fmt.Errorf("failed to load galaxy configuration: %w", err)
	}
	return galaxy, logging, nil
}

func loadLoggingConfig(env *utils.Env) LoggingConfig {
	format := env.String("LOG_FORMAT", "text")
	return LoggingConfig{
		Level:      env.String("LOG_LEVEL", "debug"),
		Format:     format,
		JSONFormat: format == "json" || env.String("ENVIRONMENT", "development") == "production",
	}
}

func loadGalaxyConfig(env *utils.Env) GalaxyConfig {
	return GalaxyConfig{
		Count:             env.Int("GALAXY_COUNT", 50000),
		ParticleSize:      env.Float("GALAXY_PARTICLE_SIZE", 0.01),
		Radius:            env.Float("GALAXY_RADIUS", 5),
		Branches:          env.Int("GALAXY_BRANCHES", 3),
		Spin:              env.Float("GALAXY_SPIN", 1),
		Randomness:        env.Float("GALAXY_RANDOMNESS", 0.2),
		RandomnessPower:   env.Float("GALAXY_RANDOMNESS_POWER", 3),
		InsideColor:       env.String("GALAXY_INSIDE_COLOR", "#ff6030"),
		OutsideColor:      env.String("GALAXY_OUTSIDE_COLOR", "#1b3984"),
		Seed:              env.Uint64("GALAXY_SEED", 0),
		Seeded:            env.Set("GALAXY_SEED"),
		GenerationTimeout: env.Duration("GALAXY_GENERATION_TIMEOUT_SECONDS", 30, time.Second),
		HistoryLimit:      env.Int("GALAXY_HISTORY_LIMIT", 50),
	}
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.Server.URL == "" {
		return fmt.Errorf("SERVER_URL is required")
	}

	if c.Galaxy.GenerationTimeout <= 0 {
		return fmt.Errorf("GALAXY_GENERATION_TIMEOUT_SECONDS must be positive")
	}

	return nil
}

func (c *Config) GitHubOAuthConfigured() bool {
	return c.OAuth.GitHub.ClientID != "" && c.OAuth.GitHub.ClientSecret != ""
}

// IsAdminEmail reports whether email belongs to a configured operator.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, admin := range c.Admin.Emails {
		if admin == email {
			return true
		}
	}
	return false
}

// ConnectionString renders the lib/pq URL form, which escapes credentials
// containing spaces or quotes.
func (c *Config) ConnectionString() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return dsn.String()
}
