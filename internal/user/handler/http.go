// Package handler exposes the account endpoints: registration, profile,
// deletion, and field updates.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"ordayna/backend/internal/audit"
	"ordayna/backend/internal/auth/service"
	"ordayna/backend/internal/platform/httpx"
	"ordayna/backend/internal/security"
	"ordayna/backend/internal/user/domain"
	"ordayna/backend/internal/user/repository"
)

// OrphanSweeper removes institutions whose last member is gone. User deletion
// calls it so an account exit never leaves memberless institutions behind.
type OrphanSweeper interface {
	DeleteOrphaned(ctx context.Context) error
}

// HTTP handles the /user endpoints.
type HTTP struct {
	users   repository.Repository
	auth    *service.AuthService
	hasher  *security.Hasher
	orphans OrphanSweeper
	audit   *audit.Logger
	secure  bool
	log     zerolog.Logger
}

func NewHTTP(
	users repository.Repository,
	auth *service.AuthService,
	hasher *security.Hasher,
	orphans OrphanSweeper,
	auditLog *audit.Logger,
	secure bool,
	log zerolog.Logger,
) *HTTP {
	return &HTTP{
		users:   users,
		auth:    auth,
		hasher:  hasher,
		orphans: orphans,
		audit:   auditLog,
		secure:  secure,
		log:     log,
	}
}

// Register attaches the account routes. authed routes require an access token.
func (h *HTTP) Register(e *echo.Echo, authed echo.MiddlewareFunc) {
	e.POST("/user/create", h.Create)
	e.GET("/user/profile", h.Profile, authed)
	e.DELETE("/user/delete", h.Delete, authed)
	e.POST("/user/change/display_name", h.ChangeDisplayName, authed)
	e.POST("/user/change/phone_number", h.ChangePhoneNumber, authed)
	e.POST("/user/change/password", h.ChangePassword, authed)
}

type createRequest struct {
	DisplayName string  `json:"disp_name"`
	Email       string  `json:"email"`
	Pass        string  `json:"pass"`
	PhoneNumber *string `json:"phone_number"`
}

// Create registers a new account. Phone number is optional; a duplicate
// email answers 400 "Already exists".
func (h *HTTP) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateDisplayName(req.DisplayName); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateEmail(req.Email); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidatePassword(req.Pass); err != nil {
		return httpx.BadRequest(c)
	}
	phone := ""
	if req.PhoneNumber != nil {
		if err := domain.ValidatePhone(*req.PhoneNumber); err != nil {
			return httpx.BadRequest(c)
		}
		phone = *req.PhoneNumber
	}

	ctx := c.Request().Context()

	existing, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.log.Error().Err(err).Msg("email lookup failed")
		return httpx.Unexpected(c)
	}
	if existing != nil {
		return httpx.AlreadyExists(c)
	}

	hash, err := h.hasher.Hash([]byte(req.Pass))
	if err != nil {
		h.log.Error().Err(err).Msg("password hashing failed")
		return httpx.Unexpected(c)
	}

	user := &domain.User{
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		Phone:        phone,
		PasswordHash: hash,
	}
	if err := h.users.Create(ctx, user); err != nil {
		h.log.Error().Err(err).Msg("user creation failed")
		return httpx.Unexpected(c)
	}

	h.audit.LogEvent(ctx, user.ID, "user_created", "user", c.RealIP(), req.Email)
	return httpx.Created(c)
}

type profileResponse struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phone_number"`
}

// Profile returns the authenticated account's own data.
func (h *HTTP) Profile(c echo.Context) error {
	userID, ok := httpx.UserID(c)
	if !ok {
		return httpx.Unauthorised(c)
	}

	user, err := h.users.GetByID(c.Request().Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("profile lookup failed")
		return httpx.Unexpected(c)
	}
	if user == nil {
		return httpx.Unauthorised(c)
	}

	resp := profileResponse{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
	}
	if user.Phone != "" {
		resp.PhoneNumber = &user.Phone
	}
	return c.JSON(http.StatusOK, resp)
}

type deleteRequest struct {
	Pass string `json:"pass"`
}

// Delete removes the account after re-verifying the password, sweeps
// institutions left without members, ends every session, and clears the
// session cookies.
func (h *HTTP) Delete(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidatePassword(req.Pass); err != nil {
		return httpx.BadRequest(c)
	}
	userID, ok := httpx.UserID(c)
	if !ok {
		return httpx.Unauthorised(c)
	}

	ctx := c.Request().Context()

	if err := h.auth.VerifyPassword(ctx, userID, req.Pass); err != nil {
		if errors.Is(err, service.ErrUnauthorised) {
			return httpx.Unauthorised(c)
		}
		h.log.Error().Err(err).Msg("password verification failed")
		return httpx.Unexpected(c)
	}

	if err := h.users.Delete(ctx, userID); err != nil {
		h.log.Error().Err(err).Msg("user deletion failed")
		return httpx.Unexpected(c)
	}
	if err := h.orphans.DeleteOrphaned(ctx); err != nil {
		h.log.Error().Err(err).Msg("orphaned institution sweep failed")
		return httpx.Unexpected(c)
	}
	if err := h.auth.EndAllSessions(ctx, userID); err != nil {
		h.log.Error().Err(err).Msg("session revocation failed")
		return httpx.Unexpected(c)
	}

	h.audit.LogEvent(ctx, userID, "user_deleted", "user", c.RealIP(), "")
	httpx.ClearAllSessionCookies(c, h.secure)
	return httpx.NoContent(c)
}

type changeDisplayNameRequest struct {
	NewDisplayName string `json:"new_disp_name"`
}

func (h *HTTP) ChangeDisplayName(c echo.Context) error {
	var req changeDisplayNameRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateDisplayName(req.NewDisplayName); err != nil {
		return httpx.BadRequest(c)
	}
	userID, ok := httpx.UserID(c)
	if !ok {
		return httpx.Unauthorised(c)
	}

	if err := h.users.UpdateDisplayName(c.Request().Context(), userID, req.NewDisplayName); err != nil {
		h.log.Error().Err(err).Msg("display name update failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

type changePhoneRequest struct {
	NewPhoneNumber string `json:"new_phone_number"`
}

func (h *HTTP) ChangePhoneNumber(c echo.Context) error {
	var req changePhoneRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidatePhone(req.NewPhoneNumber); err != nil {
		return httpx.BadRequest(c)
	}
	userID, ok := httpx.UserID(c)
	if !ok {
		return httpx.Unauthorised(c)
	}

	if err := h.users.UpdatePhone(c.Request().Context(), userID, req.NewPhoneNumber); err != nil {
		h.log.Error().Err(err).Msg("phone number update failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

type changePasswordRequest struct {
	Pass    string `json:"pass"`
	NewPass string `json:"new_pass"`
}

// ChangePassword swaps the password after verifying the current one, then
// ends every session so stolen tokens die with the old credential.
func (h *HTTP) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidatePassword(req.Pass); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidatePassword(req.NewPass); err != nil {
		return httpx.BadRequest(c)
	}
	userID, ok := httpx.UserID(c)
	if !ok {
		return httpx.Unauthorised(c)
	}

	ctx := c.Request().Context()

	if err := h.auth.ChangePassword(ctx, userID, req.Pass, req.NewPass); err != nil {
		if errors.Is(err, service.ErrUnauthorised) {
			return httpx.Unauthorised(c)
		}
		h.log.Error().Err(err).Msg("password change failed")
		return httpx.Unexpected(c)
	}

	h.audit.LogEvent(ctx, userID, "password_changed", "user", c.RealIP(), "")
	httpx.ClearAllSessionCookies(c, h.secure)
	return httpx.NoContent(c)
}
