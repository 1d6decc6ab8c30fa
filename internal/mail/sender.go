package mail

import (
	"net/url"

	"go.uber.org/zap"
)

// Sender delivers account mail. Delivery is a structured log line; an SMTP relay plugs in here.
type Sender struct {
	Log *zap.Logger
}

func NewSender(l *zap.Logger) *Sender {
	if l == nil {
		l = zap.NewNop()
	}
	return &Sender{Log: l.Named("mail")}
}

func (s *Sender) Send(to, subject, body string) error {
	s.Log.Info("mail sent", zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
	return nil
}

// VerifyLink builds the link that consumes a verification token.
func VerifyLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		u = &url.URL{Scheme: "http", Host: "localhost:8080"}
	}
	u.Path = "/api/auth/verify"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String()
}
