package security_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tazhibayda/rental-service/internal/security"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestAccessRoundTrip(t *testing.T) {
	tm := security.NewTokenManager("access", "refresh").WithClock(fixedClock(epoch))

	tok, err := tm.IssueAccess("u1")
	if err != nil {
		t.Fatal(err)
	}
	c, err := tm.ParseAccess(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.UserID != "u1" || c.Subject != "u1" {
		t.Fatalf("claims mismatch: %#v", c)
	}
	if got := c.ExpiresAt.Sub(c.IssuedAt.Time); got != security.AccessTTL {
		t.Fatalf("access ttl = %s", got)
	}
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	tm := security.NewTokenManager("access", "refresh").WithClock(fixedClock(epoch))

	ref, _ := tm.IssueRefresh("u1")
	if _, err := tm.ParseAccess(ref); !errors.Is(err, security.ErrTokenInvalid) {
		t.Fatalf("refresh must not verify as access, got %v", err)
	}
	acc, _ := tm.IssueAccess("u1")
	if _, err := tm.ParseRefresh(acc); !errors.Is(err, security.ErrTokenInvalid) {
		t.Fatalf("access must not verify as refresh, got %v", err)
	}
}

func TestRefreshExpiryBoundary(t *testing.T) {
	issuer := security.NewTokenManager("access", "refresh").WithClock(fixedClock(epoch))
	tok, err := issuer.IssueRefresh("u1")
	if err != nil {
		t.Fatal(err)
	}

	justBefore := issuer.WithClock(fixedClock(epoch.Add(security.RefreshTTL - time.Second)))
	if _, err := justBefore.ParseRefresh(tok); err != nil {
		t.Fatalf("1s before expiry must verify: %v", err)
	}

	after := issuer.WithClock(fixedClock(epoch.Add(security.RefreshTTL + time.Second)))
	if _, err := after.ParseRefresh(tok); !errors.Is(err, security.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAccessExpiresAfterFifteenMinutes(t *testing.T) {
	issuer := security.NewTokenManager("access", "refresh").WithClock(fixedClock(epoch))
	tok, _ := issuer.IssueAccess("u1")

	later := issuer.WithClock(fixedClock(epoch.Add(16 * time.Minute)))
	if _, err := later.ParseAccess(tok); !errors.Is(err, security.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRejectsForeignAlgorithmAndGarbage(t *testing.T) {
	tm := security.NewTokenManager("access", "refresh")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, security.Claims{UserID: "u1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	for _, tok := range []string{"", "garbage", "a.b.c", unsigned} {
		if _, err := tm.ParseRefresh(tok); !errors.Is(err, security.ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", tok, err)
		}
	}
}

func TestTokensAreUnique(t *testing.T) {
	tm := security.NewTokenManager("access", "refresh").WithClock(fixedClock(epoch))
	a, _ := tm.IssueAccess("u1")
	b, _ := tm.IssueAccess("u1")
	if a == b {
		t.Fatal("two tokens issued in the same second must differ")
	}
}

func TestCookiePolicy(t *testing.T) {
	p := security.CookiePolicy{Secure: true}

	set := p.Refresh("tok")
	if set.Name != "refreshToken" || !set.HttpOnly || !set.Secure || set.SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected cookie: %#v", set)
	}
	if set.MaxAge != 604800 || set.Path != "/" {
		t.Fatalf("unexpected max-age/path: %d %s", set.MaxAge, set.Path)
	}

	clr := p.Clear()
	if clr.MaxAge >= 0 || clr.Value != "" || clr.Path != set.Path || clr.SameSite != set.SameSite {
		t.Fatalf("clear cookie must mirror set attributes: %#v", clr)
	}
}
