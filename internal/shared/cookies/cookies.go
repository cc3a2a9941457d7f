package cookies

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"galaxy-server/internal/shared/config"
)

// AuthCookieName carries the operator session token.
const AuthCookieName = "galaxy_session"

// Policy holds the attributes shared by every session cookie.
type Policy struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

// PolicyFrom derives the session cookie policy from configuration.
func PolicyFrom(cfg *config.Config) Policy {
	return Policy{
		Domain:   cookieDomain(cfg.Frontend.URL),
		Secure:   cfg.Auth.CookieSecure,
		SameSite: parseSameSite(cfg.Auth.CookieSameSite),
		MaxAge:   int(cfg.Auth.TokenExpiration.Seconds()),
	}
}

func SetAuthCookie(w http.ResponseWriter, token string) {
	policy := PolicyFrom(config.GlobalConfig)
	http.SetCookie(w, policy.cookie(token, policy.MaxAge))
}

func ClearAuthCookie(w http.ResponseWriter) {
	policy := PolicyFrom(config.GlobalConfig)
	http.SetCookie(w, policy.cookie("", -1))
}

func (p Policy) cookie(value string, maxAge int) *http.Cookie {
	sameSite := p.SameSite
	// browsers drop SameSite=None cookies that are not Secure
	if sameSite == http.SameSiteNoneMode && !p.Secure {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     AuthCookieName,
		Value:    value,
		Path:     "/",
		Domain:   p.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: sameSite,
	}
}

// cookieDomain scopes the cookie to the frontend host. Loopback and bare IP
// hosts get a host-only cookie.
func cookieDomain(frontendURL string) string {
	parsed, err := url.Parse(frontendURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := parsed.Hostname()
	if host == "localhost" || net.ParseIP(host) != nil {
		return ""
	}
	return host
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
