// Package handler exposes the school-structure endpoints: classes, groups,
// lessons, rooms, and teachers, all scoped to an institution the caller is
// an accepted member of.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"ordayna/backend/internal/platform/httpx"
	"ordayna/backend/internal/platform/rbac"
	"ordayna/backend/internal/school/domain"
	"ordayna/backend/internal/school/repository"
)

// HTTP handles the school-structure endpoints.
type HTTP struct {
	school      repository.Repository
	memberships rbac.MembershipGetter
	log         zerolog.Logger
}

func NewHTTP(school repository.Repository, memberships rbac.MembershipGetter, log zerolog.Logger) *HTTP {
	return &HTTP{school: school, memberships: memberships, log: log}
}

// Register attaches the school routes. All of them require an access token.
func (h *HTTP) Register(e *echo.Echo, authed echo.MiddlewareFunc) {
	e.POST("/intezmeny/create/class", h.CreateClass, authed)
	e.POST("/intezmeny/update/class", h.UpdateClass, authed)
	e.DELETE("/intezmeny/delete/class", h.DeleteClass, authed)
	e.POST("/intezmeny/get/classes", h.GetClasses, authed)

	e.POST("/intezmeny/create/group", h.CreateGroup, authed)
	e.POST("/intezmeny/update/group", h.UpdateGroup, authed)
	e.DELETE("/intezmeny/delete/group", h.DeleteGroup, authed)
	e.POST("/intezmeny/get/groups", h.GetGroups, authed)

	e.POST("/intezmeny/create/lesson", h.CreateLesson, authed)
	e.POST("/intezmeny/update/lesson", h.UpdateLesson, authed)
	e.DELETE("/intezmeny/delete/lesson", h.DeleteLesson, authed)
	e.POST("/intezmeny/get/lessons", h.GetLessons, authed)

	e.POST("/intezmeny/create/room", h.CreateRoom, authed)
	e.POST("/intezmeny/update/room", h.UpdateRoom, authed)
	e.DELETE("/intezmeny/delete/room", h.DeleteRoom, authed)
	e.POST("/intezmeny/get/rooms", h.GetRooms, authed)

	e.POST("/intezmeny/create/teacher", h.CreateTeacher, authed)
	e.POST("/intezmeny/update/teacher", h.UpdateTeacher, authed)
	e.DELETE("/intezmeny/delete/teacher", h.DeleteTeacher, authed)
	e.POST("/intezmeny/get/teachers", h.GetTeachers, authed)
}

// member authorises the caller as an accepted member of the institution.
// On failure it writes the response itself; callers return resp when ok is
// false.
func (h *HTTP) member(c echo.Context, institutionID int64) (userID int64, ok bool, resp error) {
	userID, authed := httpx.UserID(c)
	if !authed {
		return 0, false, httpx.Unauthorised(c)
	}
	if institutionID <= 0 {
		return 0, false, httpx.BadRequest(c)
	}
	_, err := rbac.RequireMember(c.Request().Context(), h.memberships, institutionID, userID, true)
	switch err {
	case nil:
		return userID, true, nil
	case rbac.ErrNotMember:
		return 0, false, httpx.Unauthorised(c)
	default:
		h.log.Error().Err(err).Msg("membership guard failed")
		return 0, false, httpx.Unexpected(c)
	}
}

type institutionScoped struct {
	InstitutionID int64 `json:"intezmeny_id"`
}

// Classes.

type classRequest struct {
	InstitutionID int64  `json:"intezmeny_id"`
	ClassID       int64  `json:"class_id"`
	Name          string `json:"name"`
	Headcount     int    `json:"headcount"`
}

// CreateClass adds a class. Class and group names share one namespace, so a
// clash with either answers 400.
func (h *HTTP) CreateClass(c echo.Context) error {
	var req classRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateCount(req.Headcount); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	ctx := c.Request().Context()
	taken, err := h.school.CohortNameTaken(ctx, req.InstitutionID, req.Name)
	if err != nil {
		h.log.Error().Err(err).Msg("class name check failed")
		return httpx.Unexpected(c)
	}
	if taken {
		return httpx.BadRequest(c)
	}

	class := &domain.Class{InstitutionID: req.InstitutionID, Name: req.Name, Headcount: req.Headcount}
	if err := h.school.CreateClass(ctx, class); err != nil {
		h.log.Error().Err(err).Msg("class creation failed")
		return httpx.Unexpected(c)
	}
	return httpx.Created(c)
}

func (h *HTTP) UpdateClass(c echo.Context) error {
	var req classRequest
	if err := c.Bind(&req); err != nil || req.ClassID <= 0 {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	ctx := c.Request().Context()
	if resp, done := h.requireClass(c, req.InstitutionID, req.ClassID); done {
		return resp
	}
	if err := h.school.UpdateClass(ctx, req.InstitutionID, req.ClassID, req.Name); err != nil {
		h.log.Error().Err(err).Msg("class update failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

func (h *HTTP) DeleteClass(c echo.Context) error {
	var req classRequest
	if err := c.Bind(&req); err != nil || req.ClassID <= 0 {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	if resp, done := h.requireClass(c, req.InstitutionID, req.ClassID); done {
		return resp
	}
	if err := h.school.DeleteClass(c.Request().Context(), req.InstitutionID, req.ClassID); err != nil {
		h.log.Error().Err(err).Msg("class deletion failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

func (h *HTTP) GetClasses(c echo.Context) error {
	var req institutionScoped
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	classes, err := h.school.ListClasses(c.Request().Context(), req.InstitutionID)
	if err != nil {
		h.log.Error().Err(err).Msg("class listing failed")
		return httpx.Unexpected(c)
	}
	return c.JSON(http.StatusOK, classes)
}

// Groups.

type groupRequest struct {
	InstitutionID int64  `json:"intezmeny_id"`
	GroupID       int64  `json:"group_id"`
	Name          string `json:"name"`
	Headcount     int    `json:"headcount"`
	ClassID       *int64 `json:"class_id"`
}

// CreateGroup adds a group, optionally attached to a class.
func (h *HTTP) CreateGroup(c echo.Context) error {
	var req groupRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateCount(req.Headcount); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	ctx := c.Request().Context()
	if req.ClassID != nil {
		if resp, done := h.requireClass(c, req.InstitutionID, *req.ClassID); done {
			return resp
		}
	}
	taken, err := h.school.CohortNameTaken(ctx, req.InstitutionID, req.Name)
	if err != nil {
		h.log.Error().Err(err).Msg("group name check failed")
		return httpx.Unexpected(c)
	}
	if taken {
		return httpx.BadRequest(c)
	}

	group := &domain.Group{
		InstitutionID: req.InstitutionID,
		Name:          req.Name,
		Headcount:     req.Headcount,
		ClassID:       req.ClassID,
	}
	if err := h.school.CreateGroup(ctx, group); err != nil {
		h.log.Error().Err(err).Msg("group creation failed")
		return httpx.Unexpected(c)
	}
	return httpx.Created(c)
}

func (h *HTTP) UpdateGroup(c echo.Context) error {
	var req groupRequest
	if err := c.Bind(&req); err != nil || req.GroupID <= 0 {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateCount(req.Headcount); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	ctx := c.Request().Context()
	if req.ClassID != nil {
		if resp, done := h.requireClass(c, req.InstitutionID, *req.ClassID); done {
			return resp
		}
	}
	if resp, done := h.requireGroup(c, req.InstitutionID, req.GroupID); done {
		return resp
	}
	if err := h.school.UpdateGroup(ctx, req.InstitutionID, req.GroupID, req.Name, req.Headcount, req.ClassID); err != nil {
		h.log.Error().Err(err).Msg("group update failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

func (h *HTTP) DeleteGroup(c echo.Context) error {
	var req groupRequest
	if err := c.Bind(&req); err != nil || req.GroupID <= 0 {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	if resp, done := h.requireGroup(c, req.InstitutionID, req.GroupID); done {
		return resp
	}
	if err := h.school.DeleteGroup(c.Request().Context(), req.InstitutionID, req.GroupID); err != nil {
		h.log.Error().Err(err).Msg("group deletion failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

func (h *HTTP) GetGroups(c echo.Context) error {
	var req institutionScoped
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	groups, err := h.school.ListGroups(c.Request().Context(), req.InstitutionID)
	if err != nil {
		h.log.Error().Err(err).Msg("group listing failed")
		return httpx.Unexpected(c)
	}
	return c.JSON(http.StatusOK, groups)
}

// Lessons.

type lessonRequest struct {
	InstitutionID int64  `json:"intezmeny_id"`
	LessonID      int64  `json:"lesson_id"`
	Name          string `json:"name"`
}

func (h *HTTP) CreateLesson(c echo.Context) error {
	var req lessonRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	ctx := c.Request().Context()
	taken, err := h.school.LessonNameTaken(ctx, req.InstitutionID, req.Name)
	if err != nil {
		h.log.Error().Err(err).Msg("lesson name check failed")
		return httpx.Unexpected(c)
	}
	if taken {
		return httpx.BadRequest(c)
	}

	lesson := &domain.Lesson{InstitutionID: req.InstitutionID, Name: req.Name}
	if err := h.school.CreateLesson(ctx, lesson); err != nil {
		h.log.Error().Err(err).Msg("lesson creation failed")
		return httpx.Unexpected(c)
	}
	return httpx.Created(c)
}

func (h *HTTP) UpdateLesson(c echo.Context) error {
	var req lessonRequest
	if err := c.Bind(&req); err != nil || req.LessonID <= 0 {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	if resp, done := h.requireLesson(c, req.InstitutionID, req.LessonID); done {
		return resp
	}
	if err := h.school.UpdateLesson(c.Request().Context(), req.InstitutionID, req.LessonID, req.Name); err != nil {
		h.log.Error().Err(err).Msg("lesson update failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

func (h *HTTP) DeleteLesson(c echo.Context) error {
	var req lessonRequest
	if err := c.Bind(&req); err != nil || req.LessonID <= 0 {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	if resp, done := h.requireLesson(c, req.InstitutionID, req.LessonID); done {
		return resp
	}
	if err := h.school.DeleteLesson(c.Request().Context(), req.InstitutionID, req.LessonID); err != nil {
		h.log.Error().Err(err).Msg("lesson deletion failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

func (h *HTTP) GetLessons(c echo.Context) error {
	var req institutionScoped
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	lessons, err := h.school.ListLessons(c.Request().Context(), req.InstitutionID)
	if err != nil {
		h.log.Error().Err(err).Msg("lesson listing failed")
		return httpx.Unexpected(c)
	}
	return c.JSON(http.StatusOK, lessons)
}

// Rooms.

type roomRequest struct {
	InstitutionID int64   `json:"intezmeny_id"`
	RoomID        int64   `json:"room_id"`
	Name          string  `json:"name"`
	Type          *string `json:"type"`
	Space         int     `json:"space"`
}

func (h *HTTP) CreateRoom(c echo.Context) error {
	var req roomRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return httpx.BadRequest(c)
	}
	if req.Type != nil && len(*req.Type) > domain.MaxNameLen {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateCount(req.Space); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	ctx := c.Request().Context()
	taken, err := h.school.RoomNameTaken(ctx, req.InstitutionID, req.Name)
	if err != nil {
		h.log.Error().Err(err).Msg("room name check failed")
		return httpx.Unexpected(c)
	}
	if taken {
		return httpx.BadRequest(c)
	}

	room := &domain.Room{InstitutionID: req.InstitutionID, Name: req.Name, Type: req.Type, Space: req.Space}
	if err := h.school.CreateRoom(ctx, room); err != nil {
		h.log.Error().Err(err).Msg("room creation failed")
		return httpx.Unexpected(c)
	}
	return httpx.Created(c)
}

func (h *HTTP) UpdateRoom(c echo.Context) error {
	var req roomRequest
	if err := c.Bind(&req); err != nil || req.RoomID <= 0 {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return httpx.BadRequest(c)
	}
	if req.Type != nil && len(*req.Type) > domain.MaxNameLen {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateCount(req.Space); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	if resp, done := h.requireRoom(c, req.InstitutionID, req.RoomID); done {
		return resp
	}
	if err := h.school.UpdateRoom(c.Request().Context(), req.InstitutionID, req.RoomID, req.Name, req.Type, req.Space); err != nil {
		h.log.Error().Err(err).Msg("room update failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

func (h *HTTP) DeleteRoom(c echo.Context) error {
	var req roomRequest
	if err := c.Bind(&req); err != nil || req.RoomID <= 0 {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	if resp, done := h.requireRoom(c, req.InstitutionID, req.RoomID); done {
		return resp
	}
	if err := h.school.DeleteRoom(c.Request().Context(), req.InstitutionID, req.RoomID); err != nil {
		h.log.Error().Err(err).Msg("room deletion failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

func (h *HTTP) GetRooms(c echo.Context) error {
	var req institutionScoped
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	rooms, err := h.school.ListRooms(c.Request().Context(), req.InstitutionID)
	if err != nil {
		h.log.Error().Err(err).Msg("room listing failed")
		return httpx.Unexpected(c)
	}
	return c.JSON(http.StatusOK, rooms)
}

// Teachers.

type teacherRequest struct {
	InstitutionID int64  `json:"intezmeny_id"`
	TeacherID     int64  `json:"teacher_id"`
	Name          string `json:"name"`
	Job           string `json:"job"`
	TeacherUID    *int64 `json:"teacher_uid"`
}

// CreateTeacher adds a staff record. Linking a user account requires that
// user to be an accepted member (403 otherwise) and not already back a
// teacher record (400).
func (h *HTTP) CreateTeacher(c echo.Context) error {
	var req teacherRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Job); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	ctx := c.Request().Context()
	if req.TeacherUID != nil {
		if resp, done := h.requireLinkableUser(c, req.InstitutionID, *req.TeacherUID); done {
			return resp
		}
		backs, err := h.school.UserIsTeacher(ctx, req.InstitutionID, *req.TeacherUID)
		if err != nil {
			h.log.Error().Err(err).Msg("teacher link check failed")
			return httpx.Unexpected(c)
		}
		if backs {
			return httpx.BadRequest(c)
		}
	}

	teacher := &domain.Teacher{
		InstitutionID: req.InstitutionID,
		Name:          req.Name,
		Job:           req.Job,
		UserID:        req.TeacherUID,
	}
	if err := h.school.CreateTeacher(ctx, teacher); err != nil {
		h.log.Error().Err(err).Msg("teacher creation failed")
		return httpx.Unexpected(c)
	}
	return httpx.Created(c)
}

// UpdateTeacher rewrites a staff record. Re-linking the same user is fine;
// linking a user who already backs another teacher record answers 400.
func (h *HTTP) UpdateTeacher(c echo.Context) error {
	var req teacherRequest
	if err := c.Bind(&req); err != nil || req.TeacherID <= 0 {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return httpx.BadRequest(c)
	}
	if err := domain.ValidateName(req.Job); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	ctx := c.Request().Context()
	if resp, done := h.requireTeacher(c, req.InstitutionID, req.TeacherID); done {
		return resp
	}
	if req.TeacherUID != nil {
		if resp, done := h.requireLinkableUser(c, req.InstitutionID, *req.TeacherUID); done {
			return resp
		}
		sameRecord, err := h.school.UserBacksTeacher(ctx, req.InstitutionID, req.TeacherID, *req.TeacherUID)
		if err != nil {
			h.log.Error().Err(err).Msg("teacher link check failed")
			return httpx.Unexpected(c)
		}
		if !sameRecord {
			backs, err := h.school.UserIsTeacher(ctx, req.InstitutionID, *req.TeacherUID)
			if err != nil {
				h.log.Error().Err(err).Msg("teacher link check failed")
				return httpx.Unexpected(c)
			}
			if backs {
				return httpx.BadRequest(c)
			}
		}
	}

	if err := h.school.UpdateTeacher(ctx, req.InstitutionID, req.TeacherID, req.Name, req.Job, req.TeacherUID); err != nil {
		h.log.Error().Err(err).Msg("teacher update failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

func (h *HTTP) DeleteTeacher(c echo.Context) error {
	var req teacherRequest
	if err := c.Bind(&req); err != nil || req.TeacherID <= 0 {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	if resp, done := h.requireTeacher(c, req.InstitutionID, req.TeacherID); done {
		return resp
	}
	if err := h.school.DeleteTeacher(c.Request().Context(), req.InstitutionID, req.TeacherID); err != nil {
		h.log.Error().Err(err).Msg("teacher deletion failed")
		return httpx.Unexpected(c)
	}
	return httpx.NoContent(c)
}

func (h *HTTP) GetTeachers(c echo.Context) error {
	var req institutionScoped
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	_, ok, resp := h.member(c, req.InstitutionID)
	if !ok {
		return resp
	}

	teachers, err := h.school.ListTeachers(c.Request().Context(), req.InstitutionID)
	if err != nil {
		h.log.Error().Err(err).Msg("teacher listing failed")
		return httpx.Unexpected(c)
	}
	return c.JSON(http.StatusOK, teachers)
}

// Existence guards. Each answers 400 when the referenced entity is missing
// from the institution; done reports whether a response was written.

func (h *HTTP) requireClass(c echo.Context, institutionID, id int64) (resp error, done bool) {
	return h.require(c, "class lookup failed", func() (bool, error) {
		return h.school.ClassExists(c.Request().Context(), institutionID, id)
	})
}

func (h *HTTP) requireGroup(c echo.Context, institutionID, id int64) (resp error, done bool) {
	return h.require(c, "group lookup failed", func() (bool, error) {
		return h.school.GroupExists(c.Request().Context(), institutionID, id)
	})
}

func (h *HTTP) requireLesson(c echo.Context, institutionID, id int64) (resp error, done bool) {
	return h.require(c, "lesson lookup failed", func() (bool, error) {
		return h.school.LessonExists(c.Request().Context(), institutionID, id)
	})
}

func (h *HTTP) requireRoom(c echo.Context, institutionID, id int64) (resp error, done bool) {
	return h.require(c, "room lookup failed", func() (bool, error) {
		return h.school.RoomExists(c.Request().Context(), institutionID, id)
	})
}

func (h *HTTP) requireTeacher(c echo.Context, institutionID, id int64) (resp error, done bool) {
	return h.require(c, "teacher lookup failed", func() (bool, error) {
		return h.school.TeacherExists(c.Request().Context(), institutionID, id)
	})
}

func (h *HTTP) require(c echo.Context, msg string, exists func() (bool, error)) (resp error, done bool) {
	found, err := exists()
	if err != nil {
		h.log.Error().Err(err).Msg(msg)
		return httpx.Unexpected(c), true
	}
	if !found {
		return httpx.BadRequest(c), true
	}
	return nil, false
}

// requireLinkableUser checks that the user behind a teacher link is an
// accepted member of the institution; a non-member answers 403.
func (h *HTTP) requireLinkableUser(c echo.Context, institutionID, userID int64) (resp error, done bool) {
	_, err := rbac.RequireMember(c.Request().Context(), h.memberships, institutionID, userID, true)
	switch err {
	case nil:
		return nil, false
	case rbac.ErrNotMember:
		return httpx.Unauthorised(c), true
	default:
		h.log.Error().Err(err).Msg("teacher link membership check failed")
		return httpx.Unexpected(c), true
	}
}
