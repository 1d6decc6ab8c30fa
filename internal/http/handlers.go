package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/tazhibayda/rental-service/internal/domain"
	"github.com/tazhibayda/rental-service/internal/log"
	"github.com/tazhibayda/rental-service/internal/security"
	"github.com/tazhibayda/rental-service/internal/service"
	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Reg      *service.Registrar
	Sessions *service.Sessions
	Accounts *service.Accounts
	Health   Pinger
	Log      *zap.Logger
}

func NewHandler(reg *service.Registrar, sessions *service.Sessions, accounts *service.Accounts, health Pinger, l *zap.Logger) *Handler {
	if l == nil {
		l = log.L()
	}
	return &Handler{Reg: reg, Sessions: sessions, Accounts: accounts, Health: health, Log: l}
}

const (
	msgBadBody      = "Invalid request body."
	msgInternal     = "Something went wrong. Please try again later."
	msgInvalidLogin = "Invalid email or password."
)

type settingsReq struct {
	PushNotification     *bool  `json:"pushNotification"`
	ReceivedMessages     *bool  `json:"receivedMessages"`
	EmailNotifications   *bool  `json:"emailNotifications"`
	RentalAvailability   *bool  `json:"rentalAvailability"`
	ExchangeAvailability *bool  `json:"exchangeAvailability"`
	Currency             string `json:"currency" binding:"omitempty,len=3,alpha"`
	Location             string `json:"location" binding:"max=120"`
}

type registerReq struct {
	Email               string       `json:"email" binding:"required"`
	Password            string       `json:"password" binding:"required"`
	FirstName           string       `json:"firstName" binding:"max=80"`
	LastName            string       `json:"lastName" binding:"max=80"`
	Location            string       `json:"location" binding:"max=120"`
	Gender              string       `json:"gender" binding:"max=20"`
	PhoneNumber         string       `json:"phoneNumber" binding:"max=32"`
	CompanyName         string       `json:"companyName" binding:"max=120"`
	WebSite             string       `json:"webSite" binding:"omitempty,url"`
	TermCheck           bool         `json:"termCheck"`
	SocialMediaAccounts []string     `json:"socialMediaAccounts"`
	Settings            *settingsReq `json:"settings"`
	ImageURLs           []string     `json:"imageUrls"`
}

func (r registerReq) input() service.RegisterInput {
	in := service.RegisterInput{
		Email:    r.Email,
		Password: r.Password,
		Profile: service.ProfileInput{
			FirstName:           r.FirstName,
			LastName:            r.LastName,
			Location:            r.Location,
			Gender:              r.Gender,
			PhoneNumber:         r.PhoneNumber,
			CompanyName:         r.CompanyName,
			WebSite:             r.WebSite,
			TermCheck:           r.TermCheck,
			SocialMediaAccounts: r.SocialMediaAccounts,
		},
		ImageURLs: r.ImageURLs,
	}
	if s := r.Settings; s != nil {
		in.Settings = service.SettingsInput{
			PushNotification:     s.PushNotification,
			ReceivedMessages:     s.ReceivedMessages,
			EmailNotifications:   s.EmailNotifications,
			RentalAvailability:   s.RentalAvailability,
			ExchangeAvailability: s.ExchangeAvailability,
			Currency:             s.Currency,
			Location:             s.Location,
		}
	}
	return in
}

// Register godoc
// @Summary Register user
// @Description Creates the user, its settings and its profile image in one transaction.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerReq true "register"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]any
// @Failure 409 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in registerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	var u *domain.User
	err := WithSpan(c.Request.Context(), "registration", func(ctx context.Context) error {
		var err error
		u, err = h.Reg.Register(ctx, in.input())
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			c.JSON(http.StatusConflict, gin.H{"message": fmt.Sprintf(
				"Your user ID could not be created because %s is already taken. Please choose a new one.",
				service.NormalizeEmail(in.Email))})
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": fmt.Sprintf(
		"User %q created. This email address will serve as your new user ID and cannot be changed later.", u.Email)})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string       `json:"accessToken"`
	User        *domain.User `json:"user"`
}

// Login godoc
// @Summary Login
// @Description Returns an access token and sets the refresh token cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginReq true "login"
// @Success 200 {object} loginResp
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadBody})
		return
	}
	res, err := h.Sessions.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": msgInvalidLogin})
			return
		}
		h.fail(c, err)
		return
	}
	http.SetCookie(c.Writer, res.Cookie)
	c.JSON(http.StatusOK, loginResp{AccessToken: res.AccessToken, User: res.User})
}

// Refresh godoc
// @Summary Refresh access token
// @Description Reads the refreshToken cookie and returns a new access token.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/auth/refresh [get]
func (h *Handler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(security.RefreshCookieName)
	access, err := h.Sessions.RefreshAccess(c.Request.Context(), token)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"accessToken": access})
	case errors.Is(err, domain.ErrRefreshExpired):
		c.JSON(http.StatusForbidden, gin.H{"message": "Refresh token expired"})
	case errors.Is(err, security.ErrTokenInvalid):
		c.JSON(http.StatusForbidden, gin.H{"message": "Invalid refresh token"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
	default:
		h.fail(c, err)
	}
}

// Logout godoc
// @Summary Logout
// @Description Clears the refresh token cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, h.Sessions.Logout())
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful."})
}

// VerifyEmail godoc
// @Summary Verify email
// @Tags auth
// @Produce json
// @Param token query string true "verification token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/auth/verify [get]
func (h *Handler) VerifyEmail(c *gin.Context) {
	err := h.Accounts.VerifyEmail(c.Request.Context(), c.Query("token"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Email verified."})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Verification link is invalid or has expired."})
	default:
		h.fail(c, err)
	}
}

// UserDetails godoc
// @Summary User details
// @Tags user
// @Security BearerAuth
// @Produce json
// @Param userId path string true "user id"
// @Success 200 {object} domain.UserDetails
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/user/{userId} [get]
func (h *Handler) UserDetails(c *gin.Context) {
	d, err := h.Accounts.Details(c.Request.Context(), c.Param("userId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DeleteUser godoc
// @Summary Delete user
// @Description Deletes the caller's account with its settings and profile image.
// @Tags user
// @Security BearerAuth
// @Produce json
// @Param userId path string true "user id"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/user/{userId} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	err := h.Accounts.Delete(c.Request.Context(), c.GetString(uidKey), c.Param("userId"))
	switch {
	case err == nil:
		http.SetCookie(c.Writer, h.Sessions.Logout())
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "You can only delete your own account."})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
	default:
		h.fail(c, err)
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.Health.Ping(c.Request.Context()); err != nil {
		h.Log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail maps a service error onto the response. Internal details are logged, never returned.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"message": domain.ErrValidation.Error(), "errors": verr.Fields})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": domain.ErrValidation.Error()})
	default:
		_ = c.Error(err)
		log.WithDD(c.Request.Context(), h.Log,
			zap.String("route", route(c)),
			zap.String("request_id", c.GetString(requestIDHeader)),
		).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
	}
}

// badRequest reports binding failures, with per-field messages when the validator produced them.
func badRequest(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadBody})
		return
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[jsonName(fe.Field())] = fieldMessage(fe)
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": domain.ErrValidation.Error(), "errors": fields})
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
