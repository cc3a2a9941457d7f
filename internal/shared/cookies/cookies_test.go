package cookies

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"galaxy-server/internal/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(frontend, sameSite string, secure bool) *config.Config {
	return &config.Config{
		Frontend: config.FrontendConfig{URL: frontend},
		Auth: config.AuthConfig{
			TokenExpiration: 2 * time.Hour,
			CookieSecure:    secure,
			CookieSameSite:  sameSite,
		},
	}
}

func TestCookieDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://localhost:3000", ""},
		{"http://127.0.0.1:3000", ""},
		{"http://[::1]:3000", ""},
		{"https://galaxy.example.com", "galaxy.example.com"},
		{"https://galaxy.example.com:8443/app", "galaxy.example.com"},
		{"not a url", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cookieDomain(tt.url), tt.url)
	}
}

func TestPolicyFrom(t *testing.T) {
	p := PolicyFrom(testConfig("https://galaxy.example.com", "Strict", true))
	assert.Equal(t, "galaxy.example.com", p.Domain)
	assert.True(t, p.Secure)
	assert.Equal(t, http.SameSiteStrictMode, p.SameSite)
	assert.Equal(t, 7200, p.MaxAge)
}

func TestInsecureSameSiteNoneFallsBackToLax(t *testing.T) {
	p := PolicyFrom(testConfig("http://localhost:3000", "none", false))
	c := p.cookie("token", p.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	p.Secure = true
	c = p.cookie("token", p.MaxAge)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
}

func TestSetAndClearAuthCookie(t *testing.T) {
	previous := config.GlobalConfig
	config.GlobalConfig = testConfig("https://galaxy.example.com", "lax", true)
	t.Cleanup(func() { config.GlobalConfig = previous })

	rec := httptest.NewRecorder()
	SetAuthCookie(rec, "signed")
	set := rec.Result().Cookies()
	require.Len(t, set, 1)
	assert.Equal(t, AuthCookieName, set[0].Name)
	assert.Equal(t, "signed", set[0].Value)
	assert.Equal(t, 7200, set[0].MaxAge)
	assert.True(t, set[0].HttpOnly)

	rec = httptest.NewRecorder()
	ClearAuthCookie(rec)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
	assert.Equal(t, -1, cleared[0].MaxAge)
}
