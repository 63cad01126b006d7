package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"ordayna/backend/internal/homework/domain"
	instdomain "ordayna/backend/internal/institution/domain"
	"ordayna/backend/internal/platform/httpx"
)

// memHomework keeps homeworks and attachments in maps.
type memHomework struct {
	nextID      int64
	homeworks   map[int64]*domain.Homework
	attachments map[int64]*domain.Attachment
}

func newMemHomework() *memHomework {
	return &memHomework{
		nextID:      1,
		homeworks:   make(map[int64]*domain.Homework),
		attachments: make(map[int64]*domain.Attachment),
	}
}

func (m *memHomework) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memHomework) Create(_ context.Context, h *domain.Homework) error {
	h.ID = m.id()
	h.Published = time.Now()
	cp := *h
	m.homeworks[h.ID] = &cp
	return nil
}

func (m *memHomework) Update(_ context.Context, h *domain.Homework) error {
	if stored, ok := m.homeworks[h.ID]; ok && stored.InstitutionID == h.InstitutionID {
		h.Published = stored.Published
		cp := *h
		m.homeworks[h.ID] = &cp
	}
	return nil
}

func (m *memHomework) Delete(_ context.Context, _, id int64) error {
	delete(m.homeworks, id)
	for aid, a := range m.attachments {
		if a.HomeworkID == id {
			delete(m.attachments, aid)
		}
	}
	return nil
}

func (m *memHomework) Exists(_ context.Context, institutionID, id int64) (bool, error) {
	h, ok := m.homeworks[id]
	return ok && h.InstitutionID == institutionID, nil
}

func (m *memHomework) ListDetailed(_ context.Context, institutionID int64) ([]domain.HomeworkDetail, error) {
	var out []domain.HomeworkDetail
	for _, h := range m.homeworks {
		if h.InstitutionID != institutionID {
			continue
		}
		detail := domain.HomeworkDetail{Homework: *h, Attachments: []domain.Attachment{}}
		for _, a := range m.attachments {
			if a.HomeworkID == h.ID {
				detail.Attachments = append(detail.Attachments, *a)
			}
		}
		out = append(out, detail)
	}
	return out, nil
}

func (m *memHomework) CreateAttachment(_ context.Context, a *domain.Attachment) error {
	a.ID = m.id()
	cp := *a
	m.attachments[a.ID] = &cp
	return nil
}

func (m *memHomework) DeleteAttachment(_ context.Context, _, id int64) error {
	delete(m.attachments, id)
	return nil
}

func (m *memHomework) GetAttachment(_ context.Context, institutionID, id int64) (*domain.Attachment, error) {
	a, ok := m.attachments[id]
	if !ok || a.InstitutionID != institutionID {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// fakeLinks reports the given IDs as existing lessons and teachers.
type fakeLinks struct {
	ids map[int64]bool
}

func (f *fakeLinks) LessonExists(_ context.Context, _, id int64) (bool, error) {
	return f.ids[id], nil
}

func (f *fakeLinks) TeacherExists(_ context.Context, _, id int64) (bool, error) {
	return f.ids[id], nil
}

// fakeMemberships makes every positive user an accepted member of
// institution 1.
type fakeMemberships struct{}

func (fakeMemberships) GetMembership(_ context.Context, institutionID, userID int64) (*instdomain.Membership, error) {
	if institutionID != 1 || userID <= 0 {
		return nil, nil
	}
	return &instdomain.Membership{InstitutionID: institutionID, UserID: userID, Accepted: true}, nil
}

func newTestHandler(homework *memHomework, links *fakeLinks) *HTTP {
	if links == nil {
		links = &fakeLinks{}
	}
	return NewHTTP(homework, links, fakeMemberships{}, zerolog.Nop())
}

func do(t *testing.T, handle echo.HandlerFunc, method, target, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID > 0 {
		httpx.SetUserID(c, userID)
	}
	if err := handle(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func seedHomework(t *testing.T, m *memHomework) *domain.Homework {
	t.Helper()
	hw := &domain.Homework{InstitutionID: 1}
	if err := m.Create(context.Background(), hw); err != nil {
		t.Fatalf("seed homework: %v", err)
	}
	return hw
}

func TestCreateHomework(t *testing.T) {
	homework := newMemHomework()
	h := newTestHandler(homework, &fakeLinks{ids: map[int64]bool{3: true}})

	rec := do(t, h.Create, http.MethodPost, "/intezmeny/create/homework",
		`{"intezmeny_id":1,"due":"2026-09-15 08:00:00","lesson_id":3,"teacher_id":3}`, 1)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status want 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(homework.homeworks) != 1 {
		t.Fatalf("want 1 stored homework, got %d", len(homework.homeworks))
	}

	// Bare homework, no due, no links.
	rec = do(t, h.Create, http.MethodPost, "/intezmeny/create/homework", `{"intezmeny_id":1}`, 1)
	if rec.Code != http.StatusCreated {
		t.Fatalf("bare homework: status want 201, got %d", rec.Code)
	}
}

func TestCreateHomework_BadDue(t *testing.T) {
	h := newTestHandler(newMemHomework(), nil)

	for _, due := range []string{"2026-09-15", "tomorrow", "2026-09-15T08:00:00Z"} {
		rec := do(t, h.Create, http.MethodPost, "/intezmeny/create/homework",
			`{"intezmeny_id":1,"due":"`+due+`"}`, 1)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("due %q: status want 400, got %d", due, rec.Code)
		}
	}
}

func TestCreateHomework_MissingLink(t *testing.T) {
	h := newTestHandler(newMemHomework(), &fakeLinks{ids: map[int64]bool{3: true}})

	rec := do(t, h.Create, http.MethodPost, "/intezmeny/create/homework",
		`{"intezmeny_id":1,"lesson_id":99}`, 1)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing lesson: status want 400, got %d", rec.Code)
	}
	rec = do(t, h.Create, http.MethodPost, "/intezmeny/create/homework",
		`{"intezmeny_id":1,"lesson_id":3,"teacher_id":99}`, 1)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing teacher: status want 400, got %d", rec.Code)
	}
}

func TestCreateHomework_NonMember(t *testing.T) {
	h := newTestHandler(newMemHomework(), nil)

	rec := do(t, h.Create, http.MethodPost, "/intezmeny/create/homework", `{"intezmeny_id":2}`, 1)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status want 403, got %d", rec.Code)
	}
}

func TestUpdateHomework(t *testing.T) {
	homework := newMemHomework()
	h := newTestHandler(homework, nil)
	hw := seedHomework(t, homework)

	rec := do(t, h.Update, http.MethodPost, "/intezmeny/update/homework",
		`{"intezmeny_id":1,"homework_id":1,"due":"2026-10-01 08:00:00"}`, 1)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status want 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if homework.homeworks[hw.ID].Due == nil {
		t.Error("due not stored")
	}

	// Unknown homework.
	rec = do(t, h.Update, http.MethodPost, "/intezmeny/update/homework",
		`{"intezmeny_id":1,"homework_id":42}`, 1)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown homework: status want 400, got %d", rec.Code)
	}
}

func TestDeleteHomework_RemovesAttachments(t *testing.T) {
	homework := newMemHomework()
	h := newTestHandler(homework, nil)
	hw := seedHomework(t, homework)
	homework.CreateAttachment(context.Background(), &domain.Attachment{InstitutionID: 1, HomeworkID: hw.ID, FileName: "essay.pdf"})

	rec := do(t, h.Delete, http.MethodDelete, "/intezmeny/delete/homework",
		`{"intezmeny_id":1,"homework_id":1}`, 1)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status want 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(homework.homeworks) != 0 || len(homework.attachments) != 0 {
		t.Error("homework and its attachments should be gone")
	}
}

func TestGetHomeworks(t *testing.T) {
	homework := newMemHomework()
	h := newTestHandler(homework, nil)
	hw := seedHomework(t, homework)
	homework.CreateAttachment(context.Background(), &domain.Attachment{InstitutionID: 1, HomeworkID: hw.ID, FileName: "essay.pdf"})

	rec := do(t, h.GetHomeworks, http.MethodPost, "/intezmeny/get/homeworks", `{"intezmeny_id":1}`, 1)
	if rec.Code != http.StatusOK {
		t.Fatalf("status want 200, got %d", rec.Code)
	}
	var got []domain.HomeworkDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || len(got[0].Attachments) != 1 {
		t.Fatalf("want 1 homework with 1 attachment, got %+v", got)
	}
}

func TestCreateAttachment(t *testing.T) {
	homework := newMemHomework()
	h := newTestHandler(homework, nil)
	seedHomework(t, homework)

	rec := do(t, h.CreateAttachment, http.MethodPost, "/intezmeny/create/attachment",
		`{"intezmeny_id":1,"homework_id":1,"file_name":"essay.pdf"}`, 1)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status want 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(homework.attachments) != 1 {
		t.Fatalf("want 1 stored attachment, got %d", len(homework.attachments))
	}
}

func TestCreateAttachment_BadFileName(t *testing.T) {
	homework := newMemHomework()
	h := newTestHandler(homework, nil)
	seedHomework(t, homework)

	for _, name := range []string{"", "path/to/file.txt", "con.txt", "trailing."} {
		rec := do(t, h.CreateAttachment, http.MethodPost, "/intezmeny/create/attachment",
			`{"intezmeny_id":1,"homework_id":1,"file_name":"`+name+`"}`, 1)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("file name %q: status want 400, got %d", name, rec.Code)
		}
	}
}

// A reference to a homework the institution does not hold answers 403, not
// 400: create is denied, not merely malformed.
func TestCreateAttachment_UnknownHomework(t *testing.T) {
	h := newTestHandler(newMemHomework(), nil)

	rec := do(t, h.CreateAttachment, http.MethodPost, "/intezmeny/create/attachment",
		`{"intezmeny_id":1,"homework_id":42,"file_name":"essay.pdf"}`, 1)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status want 403, got %d", rec.Code)
	}
}

func TestGetAttachment(t *testing.T) {
	homework := newMemHomework()
	h := newTestHandler(homework, nil)
	hw := seedHomework(t, homework)
	homework.CreateAttachment(context.Background(), &domain.Attachment{InstitutionID: 1, HomeworkID: hw.ID, FileName: "essay.pdf"})

	rec := do(t, h.GetAttachment, http.MethodPost, "/intezmeny/get/attachment",
		`{"intezmeny_id":1,"attachment_id":2}`, 1)
	if rec.Code != http.StatusOK {
		t.Fatalf("status want 200, got %d", rec.Code)
	}
	var got domain.Attachment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.FileName != "essay.pdf" {
		t.Errorf("file name want essay.pdf, got %s", got.FileName)
	}

	// Unknown attachment answers 403.
	rec = do(t, h.GetAttachment, http.MethodPost, "/intezmeny/get/attachment",
		`{"intezmeny_id":1,"attachment_id":42}`, 1)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unknown attachment: status want 403, got %d", rec.Code)
	}
}

// Deleting an unknown attachment answers 400, unlike reads of one, which
// answer 403.
func TestDeleteAttachment(t *testing.T) {
	homework := newMemHomework()
	h := newTestHandler(homework, nil)
	hw := seedHomework(t, homework)
	homework.CreateAttachment(context.Background(), &domain.Attachment{InstitutionID: 1, HomeworkID: hw.ID, FileName: "essay.pdf"})

	rec := do(t, h.DeleteAttachment, http.MethodDelete, "/intezmeny/delete/attachment",
		`{"intezmeny_id":1,"attachment_id":2}`, 1)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status want 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h.DeleteAttachment, http.MethodDelete, "/intezmeny/delete/attachment",
		`{"intezmeny_id":1,"attachment_id":2}`, 1)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("already deleted: status want 400, got %d", rec.Code)
	}
}
