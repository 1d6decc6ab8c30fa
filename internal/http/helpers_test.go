package http_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	api "github.com/tazhibayda/rental-service/internal/http"
	"github.com/tazhibayda/rental-service/internal/queue"
	"github.com/tazhibayda/rental-service/internal/repo"
	"github.com/tazhibayda/rental-service/internal/security"
	"github.com/tazhibayda/rental-service/internal/service"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	T      *testing.T
	Store  *repo.MemoryStore
	Events *queue.Recorder
	Tokens *security.TokenManager
	Router *gin.Engine
}

func newTestEnv(t *testing.T, opts api.RouterOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l := zaptest.NewLogger(t)
	st := repo.NewMemoryStore()
	rec := &queue.Recorder{}
	hasher := security.NewPasswordHasher(bcrypt.MinCost)
	tm := security.NewTokenManager("access-secret-for-tests", "refresh-secret-for-tests")

	h := api.NewHandler(
		service.NewRegistrar(st, hasher, rec, l),
		service.NewSessions(st, hasher, tm, security.CookiePolicy{Secure: true}, rec, l),
		service.NewAccounts(st, rec, l),
		st,
		l,
	)
	return &testEnv{T: t, Store: st, Events: rec, Tokens: tm, Router: api.NewRouter(h, opts)}
}

func (e *testEnv) do(method, path, body string, hdr map[string]string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == security.RefreshCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response; headers=%v", security.RefreshCookieName, w.Header())
	return nil
}
