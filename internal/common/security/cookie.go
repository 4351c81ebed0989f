package security

import (
	"net/http"
	"strings"
	"time"
)

const SessionCookieName = "subhub_token"

// ExtractToken finds the session cookie in a raw Cookie header value.
// The value is returned undecoded and split only on the first '=', so values
// that themselves contain '=' survive intact. An empty value counts as absent.
func ExtractToken(cookieHeader string) (string, bool) {
	if cookieHeader == "" {
		return "", false
	}
	for _, part := range strings.Split(cookieHeader, ";") {
		name, value, _ := strings.Cut(strings.TrimLeft(part, " \t"), "=")
		if name != SessionCookieName {
			continue
		}
		if value == "" {
			return "", false
		}
		return value, true
	}
	return "", false
}

// CookieHeader joins every Cookie header of r, since clients may send several.
func CookieHeader(r *http.Request) string {
	return strings.Join(r.Header.Values("Cookie"), "; ")
}

// SessionCookie carries token to the client for lifetime.
func SessionCookie(token string, lifetime time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(lifetime / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie tells the client to discard the session immediately.
// Tokens cannot be revoked server-side, so this is the only way to end one early.
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // rendered as Max-Age=0
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
