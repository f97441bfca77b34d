package auth

import (
	"net/http"
	"strings"
	"time"
)

const DefaultCookieName = "token"

type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func (o CookieOptions) name() string {
	if o.Name == "" {
		return DefaultCookieName
	}
	return o.Name
}

func (o CookieOptions) SessionCookie(token string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     o.name(),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if o.MaxAge > 0 {
		cookie.MaxAge = int(o.MaxAge.Seconds())
		cookie.Expires = time.Now().Add(o.MaxAge)
	}
	return cookie
}

// ExpiredCookie clears the session cookie with an expiry in the past.
func (o CookieOptions) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     o.name(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}
}

// TokenFromHeader extracts the session token from a raw Cookie header.
// Malformed pairs are skipped, so a broken unrelated cookie behaves like a
// missing one.
func (o CookieOptions) TokenFromHeader(header string) string {
	for _, part := range strings.Split(header, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		cookies, err := http.ParseCookie(part)
		if err != nil {
			continue
		}
		for _, cookie := range cookies {
			if cookie.Name == o.name() {
				return cookie.Value
			}
		}
	}
	return ""
}
