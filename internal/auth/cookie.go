package auth

import (
	"net/http"
	"time"
)

// Cookie names of the token pair.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// CookieConfig controls the attributes of the session cookies. With Secure
// set the cookies are SameSite=None so a separately hosted frontend can send
// them; without it (local development) they fall back to Lax.
type CookieConfig struct {
	Domain string
	Secure bool
}

// SetSession writes both token cookies.
func (c CookieConfig) SetSession(w http.ResponseWriter, access, refresh string, accessTTL, refreshTTL time.Duration) {
	http.SetCookie(w, c.cookie(AccessCookie, access, accessTTL))
	http.SetCookie(w, c.cookie(RefreshCookie, refresh, refreshTTL))
}

// ClearSession expires both token cookies.
func (c CookieConfig) ClearSession(w http.ResponseWriter) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		http.SetCookie(w, ck)
	}
}

func (c CookieConfig) cookie(name, value string, ttl time.Duration) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if c.Secure {
		sameSite = http.SameSiteNoneMode
	}
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: sameSite,
	}
	if ttl > 0 {
		ck.MaxAge = int(ttl.Seconds())
		ck.Expires = time.Now().Add(ttl)
	}
	return ck
}
