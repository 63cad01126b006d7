// Package handler exposes the timetable endpoints.
package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"ordayna/backend/internal/platform/httpx"
	"ordayna/backend/internal/platform/rbac"
	"ordayna/backend/internal/timetable/domain"
	"ordayna/backend/internal/timetable/repository"
)

// LinkChecker verifies the optional link targets of a timetable element.
type LinkChecker interface {
	GroupExists(ctx context.Context, institutionID, id int64) (bool, error)
	LessonExists(ctx context.Context, institutionID, id int64) (bool, error)
	TeacherExists(ctx context.Context, institutionID, id int64) (bool, error)
	RoomExists(ctx context.Context, institutionID, id int64) (bool, error)
}

// HTTP handles the timetable endpoints.
type HTTP struct {
	elements    repository.Repository
	links       LinkChecker
	memberships rbac.MembershipGetter
	log         zerolog.Logger
}

func NewHTTP(elements repository.Repository, links LinkChecker, memberships rbac.MembershipGetter, log zerolog.Logger) *HTTP {
	return &HTTP{elements: elements, links: links, memberships: memberships, log: log}
}

// Register attaches the timetable routes. All of them require an access
// token.
func (h *HTTP) Register(e *echo.Echo, authed echo.MiddlewareFunc) {
	e.POST("/intezmeny/create/timetable_element", h.Create, authed)
	e.POST("/intezmeny/update/timetable_element", h.Update, authed)
	e.DELETE("/intezmeny/delete/timetable_element", h.Delete, authed)
	e.POST("/intezmeny/get/timetable", h.GetTimetable, authed)
}

type elementRequest struct {
	InstitutionID int64  `json:"intezmeny_id"`
	ElementID     int64  `json:"element_id"`
	Duration      string `json:"duration"`
	Day           int    `json:"day"`
	From          string `json:"from"`
	Until         string `json:"until"`
	GroupID       *int64 `json:"group_id"`
	LessonID      *int64 `json:"lesson_id"`
	TeacherID     *int64 `json:"teacher_id"`
	RoomID        *int64 `json:"room_id"`
}

func (r *elementRequest) element() *domain.Element {
	return &domain.Element{
		ID:            r.ElementID,
		InstitutionID: r.InstitutionID,
		Duration:      r.Duration,
		Day:           r.Day,
		From:          r.From,
		Until:         r.Until,
		GroupID:       r.GroupID,
		LessonID:      r.LessonID,
		TeacherID:     r.TeacherID,
		RoomID:        r.RoomID,
	}
}

// Create adds a timetable element. Every supplied link target must exist in
// the institution.
func (h *HTTP) Create(c echo.Context) error {
	var req elementRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	element := req.element()
	if err := element.Validate(); err != nil {
		return httpx.BadRequest(c)
	}
	if resp, done := h.member(c, req.InstitutionID); done {
		return resp
	}
	if resp, done := h.checkLinks(c, element); done {
		return resp
	}

	if err := h.elements.Create(c.Request().Context(), element); err != nil {
		h.log.Error().Err(err).Msg("timetable element creation failed")
		return httpx.Unexpected(c)
	}
	return httpx.Created(c)
}

func (h *HTTP) Update(c echo.Context) error {
	var req elementRequest
	if err := c.Bind(&req); err != nil || req.ElementID <= 0 {
		return httpx.BadRequest(c)
	}
	element := req.element()
	if err := element.Validate(); err != nil {
		return httpx.BadRequest(c)
	}
	if resp, done := h.member(c, req.InstitutionID); done {
		return resp
	}

	ctx := c.Request().Context()
	found, err := h.elements.Exists(ctx, req.InstitutionID, req.ElementID)
	if err != nil {
		h.log.Error().Err(err).Msg("timetable element lookup failed")
		return httpx.Unexpected(c)
	}
	if !found {
		return httpx.BadRequest(c)
	}
	if resp, done := h.checkLinks(c, element); done {
		return resp
	}

	if err := h.elements.Update(ctx, element); err != nil {
		h.log.Error().Err(err).Msg("timetable element update failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

type deleteRequest struct {
	InstitutionID int64 `json:"intezmeny_id"`
	ElementID     int64 `json:"timetable_element_id"`
}

func (h *HTTP) Delete(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil || req.ElementID <= 0 {
		return httpx.BadRequest(c)
	}
	if resp, done := h.member(c, req.InstitutionID); done {
		return resp
	}

	ctx := c.Request().Context()
	found, err := h.elements.Exists(ctx, req.InstitutionID, req.ElementID)
	if err != nil {
		h.log.Error().Err(err).Msg("timetable element lookup failed")
		return httpx.Unexpected(c)
	}
	if !found {
		return httpx.BadRequest(c)
	}

	if err := h.elements.Delete(ctx, req.InstitutionID, req.ElementID); err != nil {
		h.log.Error().Err(err).Msg("timetable element deletion failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

type institutionScoped struct {
	InstitutionID int64 `json:"intezmeny_id"`
}

// GetTimetable returns every element of the institution.
func (h *HTTP) GetTimetable(c echo.Context) error {
	var req institutionScoped
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if resp, done := h.member(c, req.InstitutionID); done {
		return resp
	}

	elements, err := h.elements.List(c.Request().Context(), req.InstitutionID)
	if err != nil {
		h.log.Error().Err(err).Msg("timetable listing failed")
		return httpx.Unexpected(c)
	}
	return c.JSON(http.StatusOK, elements)
}

func (h *HTTP) member(c echo.Context, institutionID int64) (resp error, done bool) {
	userID, ok := httpx.UserID(c)
	if !ok {
		return httpx.Unauthorised(c), true
	}
	if institutionID <= 0 {
		return httpx.BadRequest(c), true
	}
	_, err := rbac.RequireMember(c.Request().Context(), h.memberships, institutionID, userID, true)
	switch err {
	case nil:
		return nil, false
	case rbac.ErrNotMember:
		return httpx.Unauthorised(c), true
	default:
		h.log.Error().Err(err).Msg("membership guard failed")
		return httpx.Unexpected(c), true
	}
}

// checkLinks verifies each supplied link target; a missing one answers 400.
func (h *HTTP) checkLinks(c echo.Context, e *domain.Element) (resp error, done bool) {
	ctx := c.Request().Context()
	checks := []struct {
		id     *int64
		exists func(context.Context, int64, int64) (bool, error)
	}{
		{e.GroupID, h.links.GroupExists},
		{e.LessonID, h.links.LessonExists},
		{e.TeacherID, h.links.TeacherExists},
		{e.RoomID, h.links.RoomExists},
	}
	for _, check := range checks {
		if check.id == nil {
			continue
		}
		found, err := check.exists(ctx, e.InstitutionID, *check.id)
		if err != nil {
			h.log.Error().Err(err).Msg("timetable link check failed")
			return httpx.Unexpected(c), true
		}
		if !found {
			return httpx.BadRequest(c), true
		}
	}
	return nil, false
}
