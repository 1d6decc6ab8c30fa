package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tazhibayda/rental-service/internal/queue"
	"go.uber.org/zap"
)

// Notifier turns account events into mail.
type Notifier struct {
	sender    *Sender
	publicURL string
	log       *zap.Logger
}

func NewNotifier(sender *Sender, publicURL string, l *zap.Logger) *Notifier {
	if l == nil {
		l = zap.NewNop()
	}
	return &Notifier{sender: sender, publicURL: publicURL, log: l.Named("notifier")}
}

// Handle is a queue.Handler. Undecodable bodies are errors so the consumer can nack them;
// unknown routing keys are acknowledged and ignored.
func (n *Notifier) Handle(_ context.Context, key string, body []byte) error {
	switch key {
	case queue.KeyUserRegistered:
		var ev queue.UserRegistered
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		return n.welcome(ev)
	case queue.KeyUserDeleted:
		var ev queue.UserDeleted
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		n.log.Info("account closed", zap.String("user_id", ev.UserID))
		return nil
	case queue.KeyUserLoggedIn:
		return nil
	default:
		n.log.Debug("ignored event", zap.String("key", key))
		return nil
	}
}

func (n *Notifier) welcome(ev queue.UserRegistered) error {
	if ev.Email == "" {
		return fmt.Errorf("%s: empty email", queue.KeyUserRegistered)
	}
	name := ev.Name
	if name == "" {
		name = ev.Email
	}
	body := fmt.Sprintf("Hi %s, welcome aboard. Your email address is your user ID.", name)
	if ev.VerifyToken != "" {
		body += " Confirm it here: " + VerifyLink(n.publicURL, ev.VerifyToken)
	}
	return n.sender.Send(ev.Email, "Welcome to the rental marketplace", body)
}
