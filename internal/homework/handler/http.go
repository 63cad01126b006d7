// Package handler exposes the homework and attachment endpoints.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"ordayna/backend/internal/homework/domain"
	"ordayna/backend/internal/homework/repository"
	"ordayna/backend/internal/platform/httpx"
	"ordayna/backend/internal/platform/rbac"
)

// LinkChecker verifies the optional lesson and teacher links of a homework.
type LinkChecker interface {
	LessonExists(ctx context.Context, institutionID, id int64) (bool, error)
	TeacherExists(ctx context.Context, institutionID, id int64) (bool, error)
}

// HTTP handles the homework endpoints.
type HTTP struct {
	homework    repository.Repository
	links       LinkChecker
	memberships rbac.MembershipGetter
	log         zerolog.Logger
}

func NewHTTP(homework repository.Repository, links LinkChecker, memberships rbac.MembershipGetter, log zerolog.Logger) *HTTP {
	return &HTTP{homework: homework, links: links, memberships: memberships, log: log}
}

// Register attaches the homework routes. All of them require an access
// token.
func (h *HTTP) Register(e *echo.Echo, authed echo.MiddlewareFunc) {
	e.POST("/intezmeny/create/homework", h.Create, authed)
	e.POST("/intezmeny/update/homework", h.Update, authed)
	e.DELETE("/intezmeny/delete/homework", h.Delete, authed)
	e.POST("/intezmeny/get/homeworks", h.GetHomeworks, authed)

	e.POST("/intezmeny/create/attachment", h.CreateAttachment, authed)
	e.DELETE("/intezmeny/delete/attachment", h.DeleteAttachment, authed)
	e.POST("/intezmeny/get/attachment", h.GetAttachment, authed)
}

type homeworkRequest struct {
	InstitutionID int64   `json:"intezmeny_id"`
	HomeworkID    int64   `json:"homework_id"`
	Due           *string `json:"due"`
	LessonID      *int64  `json:"lesson_id"`
	TeacherID     *int64  `json:"teacher_id"`
}

// parseDue validates the optional due timestamp.
func parseDue(raw *string) (*time.Time, bool) {
	if raw == nil {
		return nil, true
	}
	due, err := time.Parse(domain.DueLayout, *raw)
	if err != nil {
		return nil, false
	}
	return &due, true
}

// Create adds a homework. The due timestamp and both links are optional;
// a supplied link must resolve inside the institution.
func (h *HTTP) Create(c echo.Context) error {
	var req homeworkRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	due, ok := parseDue(req.Due)
	if !ok {
		return httpx.BadRequest(c)
	}
	if resp, done := h.member(c, req.InstitutionID); done {
		return resp
	}
	if resp, done := h.checkLinks(c, req.InstitutionID, req.LessonID, req.TeacherID); done {
		return resp
	}

	hw := &domain.Homework{
		InstitutionID: req.InstitutionID,
		Due:           due,
		LessonID:      req.LessonID,
		TeacherID:     req.TeacherID,
	}
	if err := h.homework.Create(c.Request().Context(), hw); err != nil {
		h.log.Error().Err(err).Msg("homework creation failed")
		return httpx.Unexpected(c)
	}
	return httpx.Created(c)
}

func (h *HTTP) Update(c echo.Context) error {
	var req homeworkRequest
	if err := c.Bind(&req); err != nil || req.HomeworkID <= 0 {
		return httpx.BadRequest(c)
	}
	due, ok := parseDue(req.Due)
	if !ok {
		return httpx.BadRequest(c)
	}
	if resp, done := h.member(c, req.InstitutionID); done {
		return resp
	}

	ctx := c.Request().Context()
	found, err := h.homework.Exists(ctx, req.InstitutionID, req.HomeworkID)
	if err != nil {
		h.log.Error().Err(err).Msg("homework lookup failed")
		return httpx.Unexpected(c)
	}
	if !found {
		return httpx.BadRequest(c)
	}
	if resp, done := h.checkLinks(c, req.InstitutionID, req.LessonID, req.TeacherID); done {
		return resp
	}

	hw := &domain.Homework{
		ID:            req.HomeworkID,
		InstitutionID: req.InstitutionID,
		Due:           due,
		LessonID:      req.LessonID,
		TeacherID:     req.TeacherID,
	}
	if err := h.homework.Update(ctx, hw); err != nil {
		h.log.Error().Err(err).Msg("homework update failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

// Delete removes a homework and, through the store, its attachments.
func (h *HTTP) Delete(c echo.Context) error {
	var req homeworkRequest
	if err := c.Bind(&req); err != nil || req.HomeworkID <= 0 {
		return httpx.BadRequest(c)
	}
	if resp, done := h.member(c, req.InstitutionID); done {
		return resp
	}

	ctx := c.Request().Context()
	found, err := h.homework.Exists(ctx, req.InstitutionID, req.HomeworkID)
	if err != nil {
		h.log.Error().Err(err).Msg("homework lookup failed")
		return httpx.Unexpected(c)
	}
	if !found {
		return httpx.BadRequest(c)
	}

	if err := h.homework.Delete(ctx, req.InstitutionID, req.HomeworkID); err != nil {
		h.log.Error().Err(err).Msg("homework deletion failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

type institutionScoped struct {
	InstitutionID int64 `json:"intezmeny_id"`
}

// GetHomeworks returns every homework of the institution with lesson and
// teacher names and attachments joined in.
func (h *HTTP) GetHomeworks(c echo.Context) error {
	var req institutionScoped
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if resp, done := h.member(c, req.InstitutionID); done {
		return resp
	}

	homeworks, err := h.homework.ListDetailed(c.Request().Context(), req.InstitutionID)
	if err != nil {
		h.log.Error().Err(err).Msg("homework listing failed")
		return httpx.Unexpected(c)
	}
	return c.JSON(http.StatusOK, homeworks)
}

type attachmentRequest struct {
	InstitutionID int64  `json:"intezmeny_id"`
	HomeworkID    int64  `json:"homework_id"`
	AttachmentID  int64  `json:"attachment_id"`
	FileName      string `json:"file_name"`
}

// CreateAttachment records attachment metadata for a homework. Referencing
// a homework outside the institution answers 403.
func (h *HTTP) CreateAttachment(c echo.Context) error {
	var req attachmentRequest
	if err := c.Bind(&req); err != nil || req.HomeworkID <= 0 {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateFileName(req.FileName); err != nil {
		return httpx.BadRequest(c)
	}
	if resp, done := h.member(c, req.InstitutionID); done {
		return resp
	}

	ctx := c.Request().Context()
	found, err := h.homework.Exists(ctx, req.InstitutionID, req.HomeworkID)
	if err != nil {
		h.log.Error().Err(err).Msg("homework lookup failed")
		return httpx.Unexpected(c)
	}
	if !found {
		return httpx.Unauthorised(c)
	}

	attachment := &domain.Attachment{
		InstitutionID: req.InstitutionID,
		HomeworkID:    req.HomeworkID,
		FileName:      req.FileName,
	}
	if err := h.homework.CreateAttachment(ctx, attachment); err != nil {
		h.log.Error().Err(err).Msg("attachment creation failed")
		return httpx.Unexpected(c)
	}
	return httpx.Created(c)
}

func (h *HTTP) DeleteAttachment(c echo.Context) error {
	var req attachmentRequest
	if err := c.Bind(&req); err != nil || req.AttachmentID <= 0 {
		return httpx.BadRequest(c)
	}
	if resp, done := h.member(c, req.InstitutionID); done {
		return resp
	}

	ctx := c.Request().Context()
	attachment, err := h.homework.GetAttachment(ctx, req.InstitutionID, req.AttachmentID)
	if err != nil {
		h.log.Error().Err(err).Msg("attachment lookup failed")
		return httpx.Unexpected(c)
	}
	if attachment == nil {
		return httpx.BadRequest(c)
	}

	if err := h.homework.DeleteAttachment(ctx, req.InstitutionID, req.AttachmentID); err != nil {
		h.log.Error().Err(err).Msg("attachment deletion failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

// GetAttachment returns one attachment's metadata. References to another
// institution's attachments answer 403.
func (h *HTTP) GetAttachment(c echo.Context) error {
	var req attachmentRequest
	if err := c.Bind(&req); err != nil || req.AttachmentID <= 0 {
		return httpx.BadRequest(c)
	}
	if resp, done := h.member(c, req.InstitutionID); done {
		return resp
	}

	attachment, err := h.homework.GetAttachment(c.Request().Context(), req.InstitutionID, req.AttachmentID)
	if err != nil {
		h.log.Error().Err(err).Msg("attachment lookup failed")
		return httpx.Unexpected(c)
	}
	if attachment == nil {
		return httpx.Unauthorised(c)
	}
	return c.JSON(http.StatusOK, attachment)
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

// checkLinks verifies the optional lesson and teacher links; a missing one
// answers 400.
func (h *HTTP) checkLinks(c echo.Context, institutionID int64, lessonID, teacherID *int64) (resp error, done bool) {
	ctx := c.Request().Context()
	if lessonID != nil {
		found, err := h.links.LessonExists(ctx, institutionID, *lessonID)
		if err != nil {
			h.log.Error().Err(err).Msg("lesson link check failed")
			return httpx.Unexpected(c), true
		}
		if !found {
			return httpx.BadRequest(c), true
		}
	}
	if teacherID != nil {
		found, err := h.links.TeacherExists(ctx, institutionID, *teacherID)
		if err != nil {
			h.log.Error().Err(err).Msg("teacher link check failed")
			return httpx.Unexpected(c), true
		}
		if !found {
			return httpx.BadRequest(c), true
		}
	}
	return nil, false
}
