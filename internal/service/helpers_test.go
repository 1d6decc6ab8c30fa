package service_test

import (
	"testing"

	"github.com/tazhibayda/rental-service/internal/queue"
	"github.com/tazhibayda/rental-service/internal/repo"
	"github.com/tazhibayda/rental-service/internal/security"
	"github.com/tazhibayda/rental-service/internal/service"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	Store    *repo.MemoryStore
	Events   *queue.Recorder
	Tokens   *security.TokenManager
	Reg      *service.Registrar
	Sessions *service.Sessions
	Accounts *service.Accounts
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := repo.NewMemoryStore()
	rec := &queue.Recorder{}
	hasher := security.NewPasswordHasher(bcrypt.MinCost)
	tm := security.NewTokenManager("access-secret-for-tests", "refresh-secret-for-tests")
	return &env{
		Store:    st,
		Events:   rec,
		Tokens:   tm,
		Reg:      service.NewRegistrar(st, hasher, rec, nil),
		Sessions: service.NewSessions(st, hasher, tm, security.CookiePolicy{Secure: true}, rec, nil),
		Accounts: service.NewAccounts(st, rec, nil),
	}
}

func validInput(email string) service.RegisterInput {
	return service.RegisterInput{
		Email:    email,
		Password: "StrongP@ss1",
		Profile: service.ProfileInput{
			FirstName: "Awa",
			LastName:  "Jallow",
			TermCheck: true,
		},
		ImageURLs: []string{"https://cdn.example.com/a.png"},
	}
}
