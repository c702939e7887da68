package auth

import (
	"net/http"
	"strings"
)

// DefaultCookieName is the cookie that carries the token for browser clients.
const DefaultCookieName = "auth_token"

// ExtractToken returns the token of r.
// An "Authorization: Bearer <token>" header wins over the cookie named cookieName.
// The Cookie header is parsed by net/http, so cookie values are never split by hand.
func ExtractToken(r *http.Request, cookieName string) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token, nil
			}
		}
	}

	cookie, err := r.Cookie(cookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", ErrNoToken
}
