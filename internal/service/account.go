package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tazhibayda/rental-service/internal/domain"
	"github.com/tazhibayda/rental-service/internal/helper"
	"github.com/tazhibayda/rental-service/internal/queue"
	"github.com/tazhibayda/rental-service/internal/repo"
	"go.uber.org/zap"
)

// ErrForbidden is returned when a caller acts on an account that is not its own.
var ErrForbidden = errors.New("forbidden")

type Accounts struct {
	repo   repo.Repository
	events queue.Publisher
	log    *zap.Logger
}

func NewAccounts(r repo.Repository, events queue.Publisher, log *zap.Logger) *Accounts {
	if events == nil {
		events = queue.NewNoop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Accounts{repo: r, events: events, log: log.Named("account")}
}

// Details loads a user with its settings and profile image.
func (a *Accounts) Details(ctx context.Context, userID string) (*domain.UserDetails, error) {
	id, err := repo.ParseID(userID)
	if err != nil {
		return nil, domain.NewValidationError("userId", "must be a valid id")
	}
	u, err := a.repo.FindUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	st, err := a.repo.FindSettingsByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	img, err := a.repo.FindProfileImageByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	return &domain.UserDetails{User: u, Settings: st, ProfileImage: img}, nil
}

// Delete removes the target account with its settings, profile image and pending tokens
// in one transaction. Only the account owner may delete it.
func (a *Accounts) Delete(ctx context.Context, callerID, targetID string) error {
	id, err := repo.ParseID(targetID)
	if err != nil {
		return domain.NewValidationError("userId", "must be a valid id")
	}
	if callerID != targetID {
		a.log.Warn("delete refused", zap.String("caller", callerID), zap.String("target", targetID))
		return ErrForbidden
	}

	var deleted bool
	err = a.repo.InTx(ctx, func(tx repo.Tx) error {
		var err error
		deleted, err = tx.DeleteUserCascade(id)
		return err
	})
	if err != nil {
		a.log.Error("delete rolled back", zap.String("user_id", targetID), zap.Error(err))
		return fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	if !deleted {
		return domain.ErrNotFound
	}

	a.log.Info("user deleted", zap.String("user_id", targetID))
	if err := a.events.Publish(context.WithoutCancel(ctx), queue.KeyUserDeleted,
		queue.UserDeleted{UserID: targetID}, helper.RequestID(ctx)); err != nil {
		a.log.Warn("publish user.deleted", zap.Error(err))
	}
	return nil
}

// VerifyEmail consumes a verification token and marks its owner verified.
// Unknown, expired and already used tokens all yield domain.ErrNotFound.
func (a *Accounts) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.NewValidationError("token", "is required")
	}
	et, err := a.repo.UseEmailToken(ctx, token, domain.PurposeVerify)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	if err := a.repo.SetVerified(ctx, et.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	a.log.Info("email verified", zap.String("user_id", et.UserID.Hex()))
	return nil
}
