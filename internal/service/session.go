package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tazhibayda/rental-service/internal/domain"
	"github.com/tazhibayda/rental-service/internal/helper"
	"github.com/tazhibayda/rental-service/internal/metrics"
	"github.com/tazhibayda/rental-service/internal/queue"
	"github.com/tazhibayda/rental-service/internal/repo"
	"github.com/tazhibayda/rental-service/internal/security"
	"go.uber.org/zap"
)

// LoginResult is what a successful login hands back to the transport layer.
type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	Cookie       *http.Cookie
}

// Sessions implements login, access refresh and logout. No session state is stored server side;
// a refresh token is valid exactly while its signature and expiry check out.
type Sessions struct {
	repo   repo.Repository
	hasher security.PasswordHasher
	tokens *security.TokenManager
	cookie security.CookiePolicy
	events queue.Publisher
	log    *zap.Logger

	dummyHash string
}

func NewSessions(r repo.Repository, hasher security.PasswordHasher, tokens *security.TokenManager,
	cookie security.CookiePolicy, events queue.Publisher, log *zap.Logger) *Sessions {
	if events == nil {
		events = queue.NewNoop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sessions{
		repo:   r,
		hasher: hasher,
		tokens: tokens,
		cookie: cookie,
		events: events,
		log:    log.Named("session"),
	}
	// unknown emails still pay for one bcrypt comparison
	s.dummyHash, _ = hasher.HashPassword("dummy-password-for-timing")
	return s
}

// Login verifies the credentials and issues a fresh token pair. Unknown email, wrong password
// and inactive account all return domain.ErrInvalidCredentials.
func (s *Sessions) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	log := s.log.With(zap.String("email_hash", helper.Hash8(email)))

	if email == "" || password == "" {
		metrics.Logins.WithLabelValues("invalid").Inc()
		return nil, domain.NewValidationError("credentials", "email and password are required")
	}

	u, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		log.Error("lookup user", zap.Error(err))
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	if u == nil {
		s.hasher.CheckPassword(s.dummyHash, password)
		metrics.Logins.WithLabelValues("rejected").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.CheckPassword(u.PasswordHash, password) || !u.Active() {
		log.Info("login rejected", zap.String("user_id", u.ID.Hex()))
		metrics.Logins.WithLabelValues("rejected").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	uid := u.ID.Hex()
	access, err := s.tokens.IssueAccess(uid)
	if err != nil {
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: issue access: %w", domain.ErrInternal, err)
	}
	refresh, err := s.tokens.IssueRefresh(uid)
	if err != nil {
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: issue refresh: %w", domain.ErrInternal, err)
	}

	metrics.Logins.WithLabelValues("ok").Inc()
	log.Info("login ok", zap.String("user_id", uid))
	if err := s.events.Publish(context.WithoutCancel(ctx), queue.KeyUserLoggedIn,
		queue.UserLoggedIn{UserID: uid, Email: u.Email}, helper.RequestID(ctx)); err != nil {
		log.Warn("publish user.loggedin", zap.Error(err))
	}

	return &LoginResult{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
		Cookie:       s.RefreshCookie(refresh),
	}, nil
}

// RefreshCookie is the cookie that carries token to the client.
func (s *Sessions) RefreshCookie(token string) *http.Cookie {
	return s.cookie.Refresh(token)
}

// RefreshAccess exchanges a valid refresh token for a new access token.
// The refresh token itself is not rotated and stays valid until it expires.
// Token problems wrap security.ErrTokenInvalid; a token naming a deleted user does not.
func (s *Sessions) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		metrics.Refreshes.WithLabelValues("missing").Inc()
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthorized, security.ErrTokenInvalid)
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	switch {
	case errors.Is(err, security.ErrTokenExpired):
		metrics.Refreshes.WithLabelValues("expired").Inc()
		return "", domain.ErrRefreshExpired
	case err != nil:
		metrics.Refreshes.WithLabelValues("invalid").Inc()
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthorized, security.ErrTokenInvalid)
	}

	id, err := repo.ParseID(claims.UserID)
	if err != nil {
		metrics.Refreshes.WithLabelValues("invalid").Inc()
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthorized, security.ErrTokenInvalid)
	}
	u, err := s.repo.FindUserByID(ctx, id)
	if err != nil {
		s.log.Error("lookup user", zap.String("user_id", claims.UserID), zap.Error(err))
		metrics.Refreshes.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	if u == nil {
		metrics.Refreshes.WithLabelValues("unknown_user").Inc()
		return "", domain.ErrUnauthorized
	}

	access, err := s.tokens.IssueAccess(claims.UserID)
	if err != nil {
		metrics.Refreshes.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: issue access: %w", domain.ErrInternal, err)
	}
	metrics.Refreshes.WithLabelValues("ok").Inc()
	return access, nil
}

// Authenticate resolves an access token to the user id it was issued for.
func (s *Sessions) Authenticate(accessToken string) (string, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return "", domain.ErrUnauthorized
	}
	return claims.UserID, nil
}

// Logout returns the cookie that removes the refresh token from the client.
// It needs no credentials and always succeeds.
func (s *Sessions) Logout() *http.Cookie {
	return s.cookie.Clear()
}

