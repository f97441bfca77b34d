package auth

import (
	"testing"
	"time"
)

func TestTokenFromHeader(t *testing.T) {
	opts := CookieOptions{}

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty", header: "", want: ""},
		{name: "only token", header: "token=abc", want: "abc"},
		{name: "among others", header: "theme=dark; token=abc.def.ghi; lang=en", want: "abc.def.ghi"},
		{name: "missing", header: "theme=dark", want: ""},
		{name: "similar name", header: "token2=abc", want: ""},
		{name: "garbage", header: ";;;", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := opts.TokenFromHeader(tc.header); got != tc.want {
				t.Fatalf("TokenFromHeader(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}

func TestTokenFromHeaderCustomName(t *testing.T) {
	opts := CookieOptions{Name: "sid"}
	if got := opts.TokenFromHeader("token=wrong; sid=right"); got != "right" {
		t.Fatalf("expected custom cookie value, got %q", got)
	}
}

func TestExpiredCookieIsInThePast(t *testing.T) {
	cookie := CookieOptions{Secure: true}.ExpiredCookie()
	if cookie.Name != DefaultCookieName {
		t.Fatalf("expected cookie %q, got %q", DefaultCookieName, cookie.Name)
	}
	if cookie.Value != "" {
		t.Fatalf("expected empty value, got %q", cookie.Value)
	}
	if cookie.MaxAge >= 0 {
		t.Fatalf("expected negative MaxAge, got %d", cookie.MaxAge)
	}
	if !cookie.Expires.Before(time.Now()) {
		t.Fatalf("expected expiry in the past, got %v", cookie.Expires)
	}
	if !cookie.Secure || !cookie.HttpOnly {
		t.Fatalf("expected secure http-only cookie")
	}
}

func TestSessionCookieMaxAge(t *testing.T) {
	cookie := CookieOptions{MaxAge: time.Hour}.SessionCookie("abc")
	if cookie.Value != "abc" {
		t.Fatalf("expected value abc, got %q", cookie.Value)
	}
	if cookie.MaxAge != 3600 {
		t.Fatalf("expected MaxAge 3600, got %d", cookie.MaxAge)
	}

	session := CookieOptions{}.SessionCookie("abc")
	if session.MaxAge != 0 || !session.Expires.IsZero() {
		t.Fatalf("expected browser-session cookie without expiry")
	}
}

func TestPasswordHashing(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Fatalf("expected error for short password")
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !CheckPassword("correct horse", hash) {
		t.Fatalf("expected password to match")
	}
	if CheckPassword("wrong horse", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}
