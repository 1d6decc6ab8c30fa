package security

import "net/http"

const RefreshCookieName = "refreshToken"

// CookiePolicy describes how the refresh token is carried. The same attributes are used
// to set and to clear it, otherwise browsers keep the old cookie.
type CookiePolicy struct {
	Secure bool
	Path   string
}

func (p CookiePolicy) path() string {
	if p.Path == "" {
		return "/"
	}
	return p.Path
}

func (p CookiePolicy) Refresh(token string) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     p.path(),
		MaxAge:   int(RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (p CookiePolicy) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     p.path(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
