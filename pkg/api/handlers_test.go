package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immerseforge-site/pkg/content"
	"immerseforge-site/pkg/forms"
	"immerseforge-site/pkg/logger"
	"immerseforge-site/pkg/metrics"
	"immerseforge-site/pkg/middleware"
	"immerseforge-site/pkg/models"
	"immerseforge-site/pkg/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeApplications struct {
	calls int
	app   models.TalentApplication
	files models.ApplicationFiles
	err   error
}

func (f *fakeApplications) SubmitApplication(_ context.Context, app models.TalentApplication, files models.ApplicationFiles) (*models.SubmissionResult, error) {
	f.calls++
	f.app = app
	f.files = files
	if f.err != nil {
		return nil, f.err
	}
	return &models.SubmissionResult{ID: "sub-1", Status: models.StatusRelayFailed}, nil
}

type fakeContacts struct {
	msg models.ContactMessage
	err error
}

func (f *fakeContacts) SubmitContact(_ context.Context, msg models.ContactMessage) error {
	f.msg = msg
	return f.err
}

type testServer struct {
	router   *gin.Engine
	apps     *fakeApplications
	contacts *fakeContacts
	store    *content.Store
}

func newTestServer(t *testing.T, maxUpload int64, staticDir string) *testServer {
	t.Helper()
	store := content.NewStore("../../public/website-content.json", logger.NewNop(), nil)
	require.NoError(t, store.Load())

	ts := &testServer{apps: &fakeApplications{}, contacts: &fakeContacts{}, store: store}
	h := NewHandlers(ts.apps, ts.contacts, store, maxUpload, nil)
	ts.router = NewRouter(RouterConfig{
		Handlers:       h,
		Metrics:        metrics.New(),
		RateLimiter:    middleware.NewRateLimiter(0, 0, nil),
		AllowedOrigins: []string{"*"},
		StaticDir:      staticDir,
	})
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func applicationBody(t *testing.T, fields map[string]string, headshot []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if headshot != nil {
		part, err := w.CreateFormFile(forms.FieldHeadshot, "me.jpg")
		require.NoError(t, err)
		_, err = part.Write(headshot)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"fullName":     "Jamie Rivera",
		"email":        "jamie@example.com",
		"phone":        "555-0100",
		"position":     "Brand Ambassador",
		"city":         "Austin",
		"whyJoin":      "Live events are my thing.",
		"availability": `["Weekends","Evenings"]`,
		"skills":       "Bilingual",
	}
}

func postApplication(t *testing.T, ts *testServer, fields map[string]string, headshot []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := applicationBody(t, fields, headshot)
	req := httptest.NewRequest(http.MethodPost, "/api/submit-application", body)
	req.Header.Set("Content-Type", contentType)
	return ts.do(req)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, 0, "")
	w := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSubmitApplication_Success(t *testing.T) {
	ts := newTestServer(t, 0, "")
	w := postApplication(t, ts, validFields(), []byte("\xff\xd8\xff\xe0jpeg"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Application submitted successfully"}`, w.Body.String())
	require.Equal(t, 1, ts.apps.calls)
	assert.Equal(t, "Jamie Rivera", ts.apps.app.FullName)
	assert.Equal(t, []string{"Weekends", "Evenings"}, ts.apps.app.Availability)
	require.NotNil(t, ts.apps.files.Headshot)
	assert.Equal(t, "image/jpeg", ts.apps.files.Headshot.ContentType)
	assert.Nil(t, ts.apps.files.Resume)
}

func TestSubmitApplication_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(map[string]string)
		headshot []byte
		want     string
	}{
		{
			name:     "missing city",
			mutate:   func(f map[string]string) { delete(f, "city") },
			headshot: []byte("img"),
			want:     "Missing required field: city",
		},
		{
			name:     "bad email",
			mutate:   func(f map[string]string) { f["email"] = "jamie@example" },
			headshot: []byte("img"),
			want:     "Invalid email format",
		},
		{
			name:   "missing headshot",
			mutate: func(map[string]string) {},
			want:   "Headshot is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, 0, "")
			fields := validFields()
			tt.mutate(fields)

			w := postApplication(t, ts, fields, tt.headshot)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tt.want), w.Body.String())
			assert.Zero(t, ts.apps.calls)
		})
	}
}

func TestSubmitApplication_NotMultipart(t *testing.T) {
	ts := newTestServer(t, 0, "")
	req := httptest.NewRequest(http.MethodPost, "/api/submit-application", strings.NewReader(`{"fullName":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	w := ts.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid multipart form data"}`, w.Body.String())
}

func TestSubmitApplication_TooLarge(t *testing.T) {
	ts := newTestServer(t, 1024, "")
	w := postApplication(t, ts, validFields(), bytes.Repeat([]byte("a"), 64*1024))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Zero(t, ts.apps.calls)
}

func TestSubmitApplication_ServiceError(t *testing.T) {
	ts := newTestServer(t, 0, "")
	ts.apps.err = errors.New("boom")

	w := postApplication(t, ts, validFields(), []byte("img"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to process application","message":"boom"}`, w.Body.String())
}

func TestSubmitApplication_MethodAndPreflight(t *testing.T) {
	ts := newTestServer(t, 0, "")

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/submit-application", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/api/submit-application", nil)
	req.Header.Set("Origin", "https://immerseforge.com")
	w = ts.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestContact(t *testing.T) {
	post := func(ts *testServer, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return ts.do(req)
	}
	const valid = `{"name":"Ana","email":"ana@studio.co","message":"Hello"}`

	t.Run("ok", func(t *testing.T) {
		ts := newTestServer(t, 0, "")
		w := post(ts, valid)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
		assert.Equal(t, "Ana", ts.contacts.msg.Name)
	})

	t.Run("bad json", func(t *testing.T) {
		ts := newTestServer(t, 0, "")
		assert.Equal(t, http.StatusBadRequest, post(ts, `{`).Code)
	})

	t.Run("validation", func(t *testing.T) {
		ts := newTestServer(t, 0, "")
		ts.contacts.err = &forms.ValidationError{Field: "email", Message: "Invalid email format"}
		w := post(ts, valid)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Invalid email format"}`, w.Body.String())
	})

	t.Run("relay failure", func(t *testing.T) {
		ts := newTestServer(t, 0, "")
		ts.contacts.err = fmt.Errorf("%w: status 500", services.ErrRelayFailed)
		w := post(ts, valid)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"error":"Failed to send message"}`, w.Body.String())
	})
}

func TestWebsiteContent_ETag(t *testing.T) {
	ts := newTestServer(t, 0, "")
	etag := ts.store.Current().ETag

	w := ts.do(httptest.NewRequest(http.MethodGet, "/website-content.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, etag, w.Header().Get("ETag"))
	assert.Contains(t, w.Body.String(), `"ImmerseForge"`)

	req := httptest.NewRequest(http.MethodGet, "/website-content.json", nil)
	req.Header.Set("If-None-Match", etag)
	w = ts.do(req)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestPageContent(t *testing.T) {
	ts := newTestServer(t, 0, "")

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/content/pages/home", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Brands, felt.")

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/content/pages/pricing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFormOptions(t *testing.T) {
	ts := newTestServer(t, 0, "")
	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/form-options", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"positions"`)
	assert.Contains(t, w.Body.String(), models.PositionOptions[0])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, 0, "")
	ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	w := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "immerseforge_http_request_duration_seconds")
}

func TestSPAFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))
	ts := newTestServer(t, 0, dir)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	w = ts.do(httptest.NewRequest(http.MethodGet, "/work", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app")

	w = ts.do(httptest.NewRequest(http.MethodGet, "/../../etc/passwd", nil))
	assert.NotContains(t, w.Body.String(), "root:")

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
