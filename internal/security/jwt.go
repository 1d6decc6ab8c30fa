package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies the access/refresh pair. Each kind has its own secret,
// so a refresh token never verifies as an access token and vice versa.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

func NewTokenManager(accessSecret, refreshSecret string) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
}

// WithClock returns a copy that reads the current time from now.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *TokenManager) IssueAccess(userID string) (string, error) {
	return sign(m.accessSecret, userID, m.now(), AccessTTL)
}

func (m *TokenManager) IssueRefresh(userID string) (string, error) {
	return sign(m.refreshSecret, userID, m.now(), RefreshTTL)
}

func (m *TokenManager) ParseAccess(token string) (*Claims, error) {
	return parse(m.accessSecret, token, m.now)
}

func (m *TokenManager) ParseRefresh(token string) (*Claims, error) {
	return parse(m.refreshSecret, token, m.now)
}

func sign(secret []byte, uid string, now time.Time, ttl time.Duration) (string, error) {
	c := Claims{
		UserID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString(secret)
}

// parse is a pure function of (token, secret, clock). Expiry is checked by the jwt validator.
func parse(secret []byte, token string, now func() time.Time) (*Claims, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}
	c := &Claims{}
	t, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Join(ErrTokenInvalid, err)
	}
	if !t.Valid || c.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return c, nil
}
