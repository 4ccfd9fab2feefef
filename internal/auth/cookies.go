package auth

import (
	"net/http"
	"time"
)

// AccessCookieName carries the access token for browser sessions; RequireAuth
// falls back to it when a /v1 write arrives without an Authorization header.
const AccessCookieName = "lumi_access"

type CookieConfig struct {
	Domain string
	Secure bool
}

func SetAccessCookie(w http.ResponseWriter, cfg CookieConfig, accessToken string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    accessToken,
		Path:     "/",
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func ClearAccessCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
