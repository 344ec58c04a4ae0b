package http

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/domain/entity"
	"github.com/garyjia/event-regform/internal/export"
	"github.com/garyjia/event-regform/internal/roster"
	"github.com/garyjia/event-regform/internal/session"
	"github.com/garyjia/event-regform/internal/signature"
)

type staticComposer string

func (s staticComposer) ComposeDraft(ctx context.Context, record entity.FormRecord) string {
	return string(s) + " " + record.FullName
}

type fakeSubmissions struct {
	rows []*entity.Submission
}

func (f *fakeSubmissions) List(ctx context.Context, limit int) ([]*entity.Submission, error) {
	return f.rows, nil
}

func setupRouter(t *testing.T, subs SubmissionLister) *gin.Engine {
	t.Helper()
	cfg := DefaultServerConfig()
	cfg.Mode = gin.TestMode
	return setupRouterWithConfig(t, cfg, subs)
}

func setupRouterWithConfig(t *testing.T, cfg ServerConfig, subs SubmissionLister) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()
	links := export.NewLinkStore("/api/downloads/", time.Minute)

	store := session.NewStore(session.Options{
		Defaults:         entity.EventDefaults{ProjectName: "ประชุมวิชาการ 2569", Organizer: "คณะวิศวกรรมศาสตร์"},
		Downloader:       links,
		OrganizerAddress: "organizer@example.ac.th",
	}, logger)

	handlers := NewHandlers(Deps{
		Store:       store,
		Composer:    staticComposer("เรียน ผู้จัดงาน จาก"),
		Links:       links,
		Previewer:   export.NewPreviewer(36, logger),
		Submissions: subs,
		Roster:      roster.NewBuilder(logger),
	}, logger)

	return NewServer(cfg, handlers, logger).Router()
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()
	var resp Response
	raw := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	resp.Success = raw.Success
	resp.Error = raw.Error
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return resp
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var s SessionResponse
	decode(t, w, &s)
	require.NotEmpty(t, s.ID)
	return s.ID
}

func completeForm(t *testing.T, r *gin.Engine, id string) {
	t.Helper()
	base := "/api/sessions/" + id
	for _, u := range []UpdateFieldRequest{
		{Field: "fullName", Value: "สมชาย ใจดี"},
		{Field: "attendanceType", Value: "Onsite"},
		{Field: "isCertified", Value: true},
	} {
		w := do(t, r, http.MethodPatch, base+"/fields", u)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := do(t, r, http.MethodPost, base+"/signature/strokes", StrokesRequest{
		Strokes: [][]signature.Point{{{X: 10, Y: 10}, {X: 120, Y: 70}}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var capture CaptureResponse
	decode(t, w, &capture)
	require.Equal(t, "saved", capture.Kind)
}

func TestHealthCheck(t *testing.T) {
	r := setupRouter(t, nil)
	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	resp := decode(t, w, &health)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", health.Status)
}

func TestSession_NotFound(t *testing.T) {
	r := setupRouter(t, nil)
	w := do(t, r, http.MethodGet, "/api/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, decode(t, w, nil).Success)
}

func TestUpdateField_Validation(t *testing.T) {
	r := setupRouter(t, nil)
	id := createSession(t, r)
	base := "/api/sessions/" + id

	tests := []struct {
		name string
		req  UpdateFieldRequest
		code int
	}{
		{"unknown field", UpdateFieldRequest{Field: "nickname", Value: "x"}, http.StatusBadRequest},
		{"wrong kind", UpdateFieldRequest{Field: "isCertified", Value: "yes"}, http.StatusBadRequest},
		{"unknown attendance", UpdateFieldRequest{Field: "attendanceType", Value: "Online"}, http.StatusBadRequest},
		{"number for text", UpdateFieldRequest{Field: "phone", Value: 81}, http.StatusBadRequest},
		{"valid", UpdateFieldRequest{Field: "phone", Value: "0812345678"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPatch, base+"/fields", tt.req)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestReview_Gate(t *testing.T) {
	r := setupRouter(t, nil)
	id := createSession(t, r)
	base := "/api/sessions/" + id

	w := do(t, r, http.MethodPost, base+"/review", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	completeForm(t, r, id)

	w = do(t, r, http.MethodPost, base+"/review", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var s SessionResponse
	decode(t, w, &s)
	assert.True(t, s.ReadyForReview)
	assert.Equal(t, "REVIEWING", s.Step)

	w = do(t, r, http.MethodDelete, base+"/signature", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "the form is locked during review")

	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, base+"/edit", nil).Code)

	w = do(t, r, http.MethodDelete, base+"/signature", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var capture CaptureResponse
	decode(t, w, &capture)
	assert.Equal(t, "cleared", capture.Kind)

	w = do(t, r, http.MethodGet, base, nil)
	decode(t, w, &s)
	assert.False(t, s.ReadyForReview)
	assert.Empty(t, s.Record.SignatureData)
}

func TestDispatchFlow_Gmail(t *testing.T) {
	r := setupRouter(t, nil)
	id := createSession(t, r)
	base := "/api/sessions/" + id
	completeForm(t, r, id)

	w := do(t, r, http.MethodPost, base+"/dispatch", DispatchRequest{Provider: "gmail"})
	assert.Equal(t, http.StatusConflict, w.Code, "dispatch is offered only during review")

	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, base+"/review", nil).Code)

	w = do(t, r, http.MethodPost, base+"/draft", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var draft map[string]string
	decode(t, w, &draft)
	assert.Equal(t, "เรียน ผู้จัดงาน จาก สมชาย ใจดี", draft["draft"])

	w = do(t, r, http.MethodGet, base+"/providers", nil)
	var providers map[string][]string
	decode(t, w, &providers)
	assert.Equal(t, []string{"gmail", "outlook", "institutional"}, providers["providers"])

	w = do(t, r, http.MethodPost, base+"/dispatch", DispatchRequest{Provider: "share"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, base+"/dispatch", DispatchRequest{Provider: "gmail"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result DispatchResponse
	decode(t, w, &result)

	assert.Equal(t, "sent", result.Outcome)
	assert.Equal(t, "success", result.State)
	assert.Equal(t, "ใบตอบรับ_สมชาย ใจดี.pdf", result.FileName)
	assert.Equal(t, draft["draft"], result.ClipboardText)
	require.True(t, strings.HasPrefix(result.DownloadURL, "/api/downloads/"))

	u, err := url.Parse(result.ComposeURL)
	require.NoError(t, err)
	assert.Equal(t, "mail.google.com", u.Host)
	assert.Equal(t, draft["draft"], u.Query().Get("body"))

	w = do(t, r, http.MethodPost, base+"/dispatch", DispatchRequest{Provider: "outlook"})
	assert.Equal(t, http.StatusConflict, w.Code, "success must be confirmed first")

	w = do(t, r, http.MethodGet, result.DownloadURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.MediaTypePDF, w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w = do(t, r, http.MethodGet, result.DownloadURL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "links are one-shot")

	w = do(t, r, http.MethodPost, base+"/dispatch/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var confirm map[string]interface{}
	decode(t, w, &confirm)
	assert.Equal(t, true, confirm["confirmed"])
	assert.Equal(t, "idle", confirm["state"])
}

func TestDocumentEndpoints(t *testing.T) {
	r := setupRouter(t, nil)
	id := createSession(t, r)
	base := "/api/sessions/" + id

	w := do(t, r, http.MethodGet, base+"/document.png?scale=0.5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = do(t, r, http.MethodGet, base+"/document.png?scale=9", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, base+"/document.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "filename*=")

	w = do(t, r, http.MethodGet, base+"/preview.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Page-Count"))
}

func TestSubmissions(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		r := setupRouter(t, nil)
		assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/submissions", nil).Code)
		assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/submissions/roster.xlsx", nil).Code)
	})

	t.Run("listed and exported", func(t *testing.T) {
		subs := &fakeSubmissions{rows: []*entity.Submission{{
			ID:             1,
			SessionID:      "s1",
			FullName:       "สมชาย ใจดี",
			ProjectName:    "ประชุมวิชาการ 2569",
			AttendanceType: entity.AttendanceOnsite,
			Provider:       "gmail",
			FileName:       "ใบตอบรับ_สมชาย ใจดี.pdf",
			CreatedAt:      time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		}}}
		r := setupRouter(t, subs)

		w := do(t, r, http.MethodGet, "/api/submissions?limit=10", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list struct {
			Submissions []entity.Submission `json:"submissions"`
			Count       int                 `json:"count"`
		}
		decode(t, w, &list)
		assert.Equal(t, 1, list.Count)
		assert.Equal(t, "สมชาย ใจดี", list.Submissions[0].FullName)

		w = do(t, r, http.MethodGet, "/api/submissions/roster.xlsx", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, roster.MediaType, w.Header().Get("Content-Type"))

		f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(roster.SheetName)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

func TestReview_LocksForm(t *testing.T) {
	r := setupRouter(t, nil)
	id := createSession(t, r)
	base := "/api/sessions/" + id
	completeForm(t, r, id)

	var before SessionResponse
	decode(t, do(t, r, http.MethodGet, base, nil), &before)
	assert.True(t, before.CanReview)

	w := do(t, r, http.MethodPost, base+"/review", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reviewing SessionResponse
	decode(t, w, &reviewing)
	assert.False(t, reviewing.CanReview)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"clear signature", http.MethodDelete, base + "/signature", nil},
		{"blank name", http.MethodPatch, base + "/fields", UpdateFieldRequest{Field: "fullName", Value: ""}},
		{"uncertify", http.MethodPatch, base + "/fields", UpdateFieldRequest{Field: "isCertified", Value: false}},
		{"draw", http.MethodPost, base + "/signature/strokes", StrokesRequest{
			Strokes: [][]signature.Point{{{X: 1, Y: 1}, {X: 9, Y: 9}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusConflict, w.Code)
		})
	}

	var after SessionResponse
	decode(t, do(t, r, http.MethodGet, base, nil), &after)
	assert.Equal(t, before.Record, after.Record)
	assert.True(t, after.ReadyForReview)

	w = do(t, r, http.MethodPost, base+"/dispatch", DispatchRequest{Provider: "gmail"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result DispatchResponse
	decode(t, w, &result)
	assert.Equal(t, "ใบตอบรับ_สมชาย ใจดี.pdf", result.FileName)
}

func TestUpdateField_OversizedSignature(t *testing.T) {
	r := setupRouter(t, nil)
	id := createSession(t, r)

	big, err := signature.EncodeDataURL(image.NewGray(image.Rect(0, 0, 8000, 8)))
	require.NoError(t, err)

	w := do(t, r, http.MethodPatch, "/api/sessions/"+id+"/fields", UpdateFieldRequest{Field: "signatureData", Value: big})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/sessions/"+id+"/signature", UploadSignatureRequest{DataURL: big})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_BodyLimit(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Mode = gin.TestMode
	cfg.MaxBodyBytes = 1024
	r := setupRouterWithConfig(t, cfg, nil)
	id := createSession(t, r)

	w := do(t, r, http.MethodPatch, "/api/sessions/"+id+"/fields",
		UpdateFieldRequest{Field: "department", Value: strings.Repeat("x", 4096)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPatch, "/api/sessions/"+id+"/fields",
		UpdateFieldRequest{Field: "department", Value: "วิศวกรรมไฟฟ้า"})
	assert.Equal(t, http.StatusOK, w.Code)
}
