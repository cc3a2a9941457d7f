package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGalaxyDefaults(t *testing.T) {
	cfg, err := load()
	require.NoError(t, err)

	g := cfg.Galaxy
	assert.Equal(t, 50000, g.Count)
	assert.Equal(t, 0.01, g.ParticleSize)
	assert.Equal(t, 5.0, g.Radius)
	assert.Equal(t, 3, g.Branches)
	assert.Equal(t, 1.0, g.Spin)
	assert.Equal(t, 0.2, g.Randomness)
	assert.Equal(t, 3.0, g.RandomnessPower)
	assert.Equal(t, "#ff6030", g.InsideColor)
	assert.Equal(t, "#1b3984", g.OutsideColor)
	assert.False(t, g.Seeded)
	assert.Equal(t, 30*time.Second, g.GenerationTimeout)
}

func TestLoadGalaxyFromEnv(t *testing.T) {
	t.Setenv("GALAXY_COUNT", "1200")
	t.Setenv("GALAXY_BRANCHES", "5")
	t.Setenv("GALAXY_SPIN", "-1.5")
	t.Setenv("GALAXY_SEED", "42")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, 1200, cfg.Galaxy.Count)
	assert.Equal(t, 5, cfg.Galaxy.Branches)
	assert.Equal(t, -1.5, cfg.Galaxy.Spin)
	assert.True(t, cfg.Galaxy.Seeded)
	assert.Equal(t, uint64(42), cfg.Galaxy.Seed)
}

func TestLoadRejectsMalformedGalaxyValues(t *testing.T) {
	t.Setenv("GALAXY_RADIUS", "wide")

	_, err := load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GALAXY_RADIUS")
}

func TestValidateRequiresJWTSecret(t *testing.T) {
	cfg, err := load()
	require.NoError(t, err)

	cfg.Auth.JWTSecret = ""
	require.ErrorContains(t, cfg.validate(), "JWT_SECRET is required")

	cfg.Auth.JWTSecret = "short"
	require.ErrorContains(t, cfg.validate(), "at least 32 characters")

	cfg.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
	require.NoError(t, cfg.validate())
}

func TestIsAdminEmail(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", "Ops@Example.com, second@example.com ,")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, []string{"ops@example.com", "second@example.com"}, cfg.Admin.Emails)
	assert.True(t, cfg.IsAdminEmail("ops@example.com"))
	assert.True(t, cfg.IsAdminEmail(" SECOND@example.com"))
	assert.False(t, cfg.IsAdminEmail("visitor@example.com"))
}

func TestLoadReportsEveryMalformedValue(t *testing.T) {
	t.Setenv("GALAXY_COUNT", "lots")
	t.Setenv("RATE_LIMIT_BURST_SIZE", "-x")
	t.Setenv("REDIS_ENABLED", "maybe")

	_, err := load()
	require.Error(t, err)
	for _, key := range []string{"GALAXY_COUNT", "RATE_LIMIT_BURST_SIZE", "REDIS_ENABLED"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestCookieSecureFollowsEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	cfg, err := load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.True(t, cfg.Logging.JSONFormat)

	t.Setenv("COOKIE_SECURE", "false")
	cfg, err = load()
	require.NoError(t, err)
	assert.False(t, cfg.Auth.CookieSecure)
}

func TestConnectionStringEscapesCredentials(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "galaxy",
		Password: "p@ss word",
		Name:     "galaxy",
		SSLMode:  "require",
	}}

	assert.Equal(t, "postgres://galaxy:p%40ss%20word@db:5432/galaxy?sslmode=require", cfg.ConnectionString())
}
