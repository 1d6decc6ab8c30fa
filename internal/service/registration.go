package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tazhibayda/rental-service/internal/domain"
	"github.com/tazhibayda/rental-service/internal/helper"
	"github.com/tazhibayda/rental-service/internal/metrics"
	"github.com/tazhibayda/rental-service/internal/queue"
	"github.com/tazhibayda/rental-service/internal/repo"
	"github.com/tazhibayda/rental-service/internal/security"
	"go.uber.org/zap"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores anything past 72 bytes
)

type RegisterInput struct {
	Email     string
	Password  string
	Profile   ProfileInput
	Settings  SettingsInput
	ImageURLs []string
}

type ProfileInput struct {
	FirstName           string
	LastName            string
	Location            string
	Gender              string
	PhoneNumber         string
	CompanyName         string
	WebSite             string
	TermCheck           bool
	SocialMediaAccounts []string
}

// SettingsInput overrides the defaults of domain.DefaultSettings. Nil and empty fields keep the default.
type SettingsInput struct {
	PushNotification     *bool
	ReceivedMessages     *bool
	EmailNotifications   *bool
	RentalAvailability   *bool
	ExchangeAvailability *bool
	Currency             string
	Location             string
}

func (in SettingsInput) apply(st *domain.Settings) {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&st.PushNotification, in.PushNotification)
	set(&st.ReceivedMessages, in.ReceivedMessages)
	set(&st.EmailNotifications, in.EmailNotifications)
	set(&st.RentalAvailability, in.RentalAvailability)
	set(&st.ExchangeAvailability, in.ExchangeAvailability)
	if c := strings.TrimSpace(in.Currency); c != "" {
		st.Currency = strings.ToUpper(c)
	}
	if l := strings.TrimSpace(in.Location); l != "" {
		st.Location = l
	}
}

// Registrar creates a user together with its settings and profile image, all or nothing.
type Registrar struct {
	repo      repo.Repository
	hasher    security.PasswordHasher
	events    queue.Publisher
	validate  *validator.Validate
	verifyTTL time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewRegistrar(r repo.Repository, hasher security.PasswordHasher, events queue.Publisher, log *zap.Logger) *Registrar {
	if events == nil {
		events = queue.NewNoop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registrar{
		repo:      r,
		hasher:    hasher,
		events:    events,
		validate:  validator.New(),
		verifyTTL: 24 * time.Hour,
		log:       log.Named("registration"),
		now:       time.Now,
	}
}

// WithVerifyTTL sets how long the email verification token stays valid.
func (s *Registrar) WithVerifyTTL(ttl time.Duration) *Registrar {
	if ttl > 0 {
		s.verifyTTL = ttl
	}
	return s
}

// NormalizeEmail is the canonical form of an identity string.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register runs the registration transaction. On success exactly one User, one Settings and
// one ProfileImage exist and reference each other; on any failure none of them do.
// The returned error is always a *domain.RegistrationError.
func (s *Registrar) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := NormalizeEmail(in.Email)
	log := s.log.With(zap.String("email_hash", helper.Hash8(email)))

	if err := s.check(email, in); err != nil {
		metrics.Registrations.WithLabelValues("invalid").Inc()
		return nil, &domain.RegistrationError{Cause: domain.CauseValidation, Err: err}
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		log.Error("hash password", zap.Error(err))
		metrics.Registrations.WithLabelValues("error").Inc()
		return nil, &domain.RegistrationError{Cause: domain.CauseUnknown, Err: err}
	}

	u := &domain.User{
		Email:               email,
		PasswordHash:        hash,
		AccountStatus:       domain.AccountActive,
		FirstName:           strings.TrimSpace(in.Profile.FirstName),
		LastName:            strings.TrimSpace(in.Profile.LastName),
		Location:            strings.TrimSpace(in.Profile.Location),
		Gender:              strings.TrimSpace(in.Profile.Gender),
		PhoneNumber:         strings.TrimSpace(in.Profile.PhoneNumber),
		CompanyName:         strings.TrimSpace(in.Profile.CompanyName),
		WebSite:             strings.TrimSpace(in.Profile.WebSite),
		TermCheck:           in.Profile.TermCheck,
		SocialMediaAccounts: in.Profile.SocialMediaAccounts,
	}

	err = s.repo.InTx(ctx, func(tx repo.Tx) error {
		existing, err := tx.FindUserByEmail(email)
		if err != nil {
			return fmt.Errorf("lookup identity: %w", err)
		}
		if existing != nil {
			return domain.ErrDuplicateIdentity
		}

		if err := tx.InsertUser(u); err != nil {
			return err
		}

		st := domain.DefaultSettings()
		in.Settings.apply(&st)
		st.UserID = u.ID
		if err := tx.InsertSettings(&st); err != nil {
			return err
		}

		img := &domain.ProfileImage{UserID: u.ID, ImageURLs: in.ImageURLs}
		if err := tx.InsertProfileImage(img); err != nil {
			return err
		}

		if err := tx.LinkUserRefs(u.ID, st.ID, img.ID); err != nil {
			return err
		}
		u.SettingsID, u.ProfileImageID = &st.ID, &img.ID
		return nil
	})
	if err != nil {
		rerr := classifyRegistration(err)
		if rerr.Cause == domain.CauseDuplicateKey {
			log.Info("identity already taken")
			metrics.Registrations.WithLabelValues("duplicate").Inc()
		} else {
			log.Error("registration rolled back", zap.String("cause", string(rerr.Cause)), zap.Error(err))
			metrics.Registrations.WithLabelValues("error").Inc()
		}
		return nil, rerr
	}

	metrics.Registrations.WithLabelValues("created").Inc()
	log.Info("user registered", zap.String("user_id", u.ID.Hex()))
	s.afterCommit(ctx, u, log)
	return u, nil
}

func (s *Registrar) check(email string, in RegisterInput) error {
	fields := map[string]string{}
	if err := s.validate.Var(email, "required,email,max=254"); err != nil {
		fields["email"] = "must be a valid email address"
	}
	switch {
	case len(in.Password) < minPasswordLen:
		fields["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLen)
	case len(in.Password) > maxPasswordLen:
		fields["password"] = fmt.Sprintf("must be at most %d bytes", maxPasswordLen)
	}
	if err := s.validate.Var(in.ImageURLs, "omitempty,dive,url"); err != nil {
		fields["imageUrls"] = "must contain valid URLs"
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// afterCommit issues the verification token and announces the new account.
// Neither step can undo the registration; failures are only logged.
func (s *Registrar) afterCommit(ctx context.Context, u *domain.User, log *zap.Logger) {
	ctx = context.WithoutCancel(ctx)

	token, err := security.NewOpaqueToken()
	if err == nil {
		err = s.repo.CreateEmailToken(ctx, domain.EmailToken{
			UserID:    u.ID,
			Token:     token,
			Purpose:   domain.PurposeVerify,
			ExpiresAt: s.now().Add(s.verifyTTL).UTC(),
		})
	}
	if err != nil {
		log.Warn("verification token not issued", zap.Error(err))
		token = ""
	}

	ev := queue.UserRegistered{
		UserID:      u.ID.Hex(),
		Email:       u.Email,
		Name:        strings.TrimSpace(u.FirstName + " " + u.LastName),
		VerifyToken: token,
	}
	if err := s.events.Publish(ctx, queue.KeyUserRegistered, ev, helper.RequestID(ctx)); err != nil {
		log.Warn("publish user.registered", zap.Error(err))
	}
}

func classifyRegistration(err error) *domain.RegistrationError {
	var rerr *domain.RegistrationError
	if errors.As(err, &rerr) {
		return rerr
	}
	cause := domain.CauseUnknown
	switch {
	case errors.Is(err, domain.ErrDuplicateIdentity), repo.IsDup(err), repo.IsWriteConflict(err):
		cause = domain.CauseDuplicateKey
	case errors.Is(err, domain.ErrValidation), repo.IsDocumentValidation(err):
		cause = domain.CauseValidation
	case repo.IsCast(err):
		cause = domain.CauseCast
	}
	return &domain.RegistrationError{Cause: cause, Err: err}
}
