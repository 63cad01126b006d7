// Package handler exposes the institution endpoints: lifecycle, listing,
// and the invitation flow.
package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"ordayna/backend/internal/audit"
	"ordayna/backend/internal/institution/domain"
	"ordayna/backend/internal/institution/repository"
	"ordayna/backend/internal/platform/httpx"
	"ordayna/backend/internal/platform/rbac"
	userdomain "ordayna/backend/internal/user/domain"
)

// UserFinder resolves invitees by email.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// HTTP handles the institution endpoints.
type HTTP struct {
	institutions repository.Repository
	users        UserFinder
	audit        *audit.Logger
	log          zerolog.Logger
}

func NewHTTP(institutions repository.Repository, users UserFinder, auditLog *audit.Logger, log zerolog.Logger) *HTTP {
	return &HTTP{institutions: institutions, users: users, audit: auditLog, log: log}
}

// Register attaches the institution routes. All of them require an access
// token.
func (h *HTTP) Register(e *echo.Echo, authed echo.MiddlewareFunc) {
	e.POST("/create_intezmeny", h.Create, authed)
	e.DELETE("/delete_intezmeny", h.Delete, authed)
	e.GET("/get_intezmenys", h.List, authed)
	e.POST("/intezmeny/user/invite", h.Invite, authed)
	e.POST("/intezmeny/user/accept_invite", h.AcceptInvite, authed)
}

type createRequest struct {
	Name string `json:"intezmeny_name"`
}

// Create makes a new institution with the caller as its first admin.
func (h *HTTP) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return httpx.BadRequest(c)
	}
	userID, ok := httpx.UserID(c)
	if !ok {
		return httpx.Unauthorised(c)
	}

	ctx := c.Request().Context()
	if _, err := h.institutions.Create(ctx, req.Name, userID); err != nil {
		h.log.Error().Err(err).Msg("institution creation failed")
		return httpx.Unexpected(c)
	}

	h.audit.LogEvent(ctx, userID, "institution_created", "institution", c.RealIP(), req.Name)
	return httpx.Created(c)
}

type deleteRequest struct {
	InstitutionID int64 `json:"intezmeny_id"`
}

// Delete removes an institution; only an accepted admin member may do so.
func (h *HTTP) Delete(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil || req.InstitutionID <= 0 {
		return httpx.BadRequest(c)
	}
	userID, ok := httpx.UserID(c)
	if !ok {
		return httpx.Unauthorised(c)
	}

	ctx := c.Request().Context()
	if _, err := rbac.RequireAdmin(ctx, h.institutions, req.InstitutionID, userID); err != nil {
		return h.guardError(c, err)
	}

	if err := h.institutions.Delete(ctx, req.InstitutionID); err != nil {
		h.log.Error().Err(err).Msg("institution deletion failed")
		return httpx.Unexpected(c)
	}

	h.audit.LogEvent(ctx, userID, "institution_deleted", "institution", c.RealIP(), "")
	return httpx.NoContent(c)
}

type institutionResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// List returns every institution the caller belongs to, pending invites
// included.
func (h *HTTP) List(c echo.Context) error {
	userID, ok := httpx.UserID(c)
	if !ok {
		return httpx.Unauthorised(c)
	}

	institutions, err := h.institutions.ListForUser(c.Request().Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("institution listing failed")
		return httpx.Unexpected(c)
	}

	resp := make([]institutionResponse, 0, len(institutions))
	for _, inst := range institutions {
		resp = append(resp, institutionResponse{ID: inst.ID, Name: inst.Name})
	}
	return c.JSON(http.StatusOK, resp)
}

type inviteRequest struct {
	InstitutionID int64  `json:"intezmeny_id"`
	Email         string `json:"email"`
}

// Invite adds a pending membership for the user behind the given email.
// An unknown email answers 404; an existing member answers 400
// "Already exists".
func (h *HTTP) Invite(c echo.Context) error {
	var req inviteRequest
	if err := c.Bind(&req); err != nil || req.InstitutionID <= 0 {
		return httpx.BadRequest(c)
	}
	if err := userdomain.ValidateEmail(req.Email); err != nil {
		return httpx.BadRequest(c)
	}
	userID, ok := httpx.UserID(c)
	if !ok {
		return httpx.Unauthorised(c)
	}

	ctx := c.Request().Context()
	if _, err := rbac.RequireMember(ctx, h.institutions, req.InstitutionID, userID, false); err != nil {
		return h.guardError(c, err)
	}

	invitee, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.log.Error().Err(err).Msg("invitee lookup failed")
		return httpx.Unexpected(c)
	}
	if invitee == nil {
		return httpx.NotFound(c)
	}

	membership, err := h.institutions.GetMembership(ctx, req.InstitutionID, invitee.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("membership lookup failed")
		return httpx.Unexpected(c)
	}
	if membership != nil {
		return httpx.AlreadyExists(c)
	}

	if err := h.institutions.Invite(ctx, req.InstitutionID, invitee.ID); err != nil {
		h.log.Error().Err(err).Msg("invitation failed")
		return httpx.Unexpected(c)
	}

	h.audit.LogEvent(ctx, userID, "member_invited", "institution", c.RealIP(), req.Email)
	return httpx.OK(c)
}

type acceptInviteRequest struct {
	InstitutionID int64 `json:"intezmeny_id"`
}

// AcceptInvite turns the caller's pending membership into an accepted one.
// Accepting twice answers 403.
func (h *HTTP) AcceptInvite(c echo.Context) error {
	var req acceptInviteRequest
	if err := c.Bind(&req); err != nil || req.InstitutionID <= 0 {
		return httpx.BadRequest(c)
	}
	userID, ok := httpx.UserID(c)
	if !ok {
		return httpx.Unauthorised(c)
	}

	ctx := c.Request().Context()
	membership, err := h.institutions.GetMembership(ctx, req.InstitutionID, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("membership lookup failed")
		return httpx.Unexpected(c)
	}
	if membership == nil || membership.Accepted {
		return httpx.Unauthorised(c)
	}

	if err := h.institutions.AcceptInvite(ctx, req.InstitutionID, userID); err != nil {
		h.log.Error().Err(err).Msg("invite acceptance failed")
		return httpx.Unexpected(c)
	}

	h.audit.LogEvent(ctx, userID, "invite_accepted", "institution", c.RealIP(), "")
	return httpx.OK(c)
}

func (h *HTTP) guardError(c echo.Context, err error) error {
	switch err {
	case rbac.ErrNotMember, rbac.ErrNotAdmin:
		return httpx.Unauthorised(c)
	default:
		h.log.Error().Err(err).Msg("membership guard failed")
		return httpx.Unexpected(c)
	}
}
