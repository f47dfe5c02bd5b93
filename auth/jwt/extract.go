package jwt

import (
	"net/http"
	"strings"
)

// extract finds the raw token in the Authorization header, the query
// string or a cookie, in that order.
func (a *Authenticator) extract(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.Fields(h)
		if len(parts) == 2 && a.acceptsType(parts[0]) {
			return parts[1]
		}
	}
	if a.cfg.HeaderOnly {
		return ""
	}
	if t := r.URL.Query().Get(a.cfg.URLKey); t != "" {
		return t
	}
	if c, err := r.Cookie(a.cfg.CookieKey); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

func (a *Authenticator) acceptsType(word string) bool {
	return strings.EqualFold(word, "Bearer") ||
		(a.cfg.TokenType != "" && strings.EqualFold(word, a.cfg.TokenType))
}
