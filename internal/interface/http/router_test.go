package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/keto-dashboard/internal/domain/dashboard"
	"github.com/yanqian/keto-dashboard/internal/domain/labreport"
	"github.com/yanqian/keto-dashboard/internal/domain/mealplan"
	"github.com/yanqian/keto-dashboard/internal/infra/config"
	"github.com/yanqian/keto-dashboard/internal/infra/exportstore"
	"github.com/yanqian/keto-dashboard/internal/infra/sessionstore"
)

const reportText = `Patient lab summary
Fasting Glucose: 118 mg/dL
HbA1c: 6.0 %
LDL Cholesterol: 142 mg/dL
HDL Cholesterol: 38 mg/dL
Triglycerides: 120 mg/dL
Vitamin D: 41 ng/mL
Vitamin B12: 450 pg/mL`

func TestRouter_HealthzAndIngredientsArePublic(t *testing.T) {
	server := newRouterUnderTest(t, config.RateLimitConfig{})

	rec := performRequest(server, http.MethodGet, "/healthz", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(server, http.MethodGet, "/api/v1/ingredients", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "tempeh")
}

func TestRouter_SessionRoutesRequireToken(t *testing.T) {
	server := newRouterUnderTest(t, config.RateLimitConfig{})

	rec := performRequest(server, http.MethodGet, "/api/v1/reports", "", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = performRequest(server, http.MethodGet, "/api/v1/reports", "not-a-jwt", nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "invalid_token", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_UploadAndRecommend(t *testing.T) {
	server := newRouterUnderTest(t, config.RateLimitConfig{})
	token := startSession(t, server)

	rec := performRequest(server, http.MethodGet, "/api/v1/recommendations", token, nil, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "no_reports", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	body, contentType := multipartBody(t, map[string]string{
		"report_2024-03-15_labs.pdf": "%PDF-1.7",
		"notes.docx":                 "irrelevant",
		"labs_2024-01-10.csv":        "Vitamin D (ng/mL),Vitamin B12 (pg/mL)\n22,250\n",
	})
	rec = performRequest(server, http.MethodPost, "/api/v1/reports", token, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	var upload uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upload))
	require.Len(t, upload.Reports, 2)
	require.Len(t, upload.Rejected, 1)
	require.Equal(t, "notes.docx", upload.Rejected[0].Filename)
	require.Equal(t, "unsupported_file_type", upload.Rejected[0].Code)

	rec = performRequest(server, http.MethodGet, "/api/v1/reports", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Reports []labreport.DatedReport `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Reports, 2)
	require.Equal(t, "labs_2024-01-10.csv", listed.Reports[0].Filename)

	rec = performRequest(server, http.MethodGet, "/api/v1/recommendations", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got dashboard.Recommendation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Warnings, 4)
	require.True(t, strings.HasPrefix(got.Warnings[0], "Fasting glucose"))
	require.True(t, strings.HasPrefix(got.Warnings[1], "HbA1c"))
	require.True(t, strings.HasPrefix(got.Warnings[2], "LDL"))
	require.True(t, strings.HasPrefix(got.Warnings[3], "HDL"))
	require.Empty(t, got.Supplements)
	require.Equal(t, 60, got.Macros.Fat)
	require.Equal(t, 10, got.Macros.Fiber)

	rec = performRequest(server, http.MethodGet, "/api/v1/trends", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Vitamin D (ng/mL)")
}

func TestRouter_PreferencesMealPlanAndExport(t *testing.T) {
	server := newRouterUnderTest(t, config.RateLimitConfig{})
	token := startSession(t, server)

	rec := performRequest(server, http.MethodPut, "/api/v1/preferences", token,
		strings.NewReader(`{"vegetarian":true,"likes":[" cheese ","Cheese"],"dislikes":["tofu"]}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	var prefs mealplan.Preferences
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prefs))
	require.Equal(t, []string{"cheese"}, prefs.Likes)

	rec = performRequest(server, http.MethodPut, "/api/v1/preferences", token, strings.NewReader(`{"likes":"cheese"}`), "application/json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(server, http.MethodGet, "/api/v1/mealplan", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var plan mealplan.MealPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	require.Len(t, plan.Days, 7)
	require.NotContains(t, strings.ToLower(rec.Body.String()), "chicken")

	rec = performRequest(server, http.MethodPost, "/api/v1/mealplan/exports", token, nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/api/v1/mealplan/exports/"))

	rec = performRequest(server, http.MethodGet, location, token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "attachment;")
	exported, err := mealplan.ReadCSV(rec.Body)
	require.NoError(t, err)
	require.Len(t, exported.Days, 7)

	rec = performRequest(server, http.MethodGet, "/api/v1/mealplan/exports/not-a-uuid", token, nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = performRequest(server, http.MethodGet, "/api/v1/mealplan/exports/00000000-0000-0000-0000-000000000001", token, nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_EndSession(t *testing.T) {
	server := newRouterUnderTest(t, config.RateLimitConfig{})
	token := startSession(t, server)

	rec := performRequest(server, http.MethodGet, "/api/v1/dashboard", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view dashboard.DashboardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Nil(t, view.Recommendation)
	require.Len(t, view.MealPlan.Days, 7)

	rec = performRequest(server, http.MethodDelete, "/api/v1/sessions/current", token, nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = performRequest(server, http.MethodGet, "/api/v1/dashboard", token, nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "session_not_found", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_RateLimit(t *testing.T) {
	server := newRouterUnderTest(t, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 2})

	for i := 0; i < 2; i++ {
		rec := performRequest(server, http.MethodGet, "/healthz", "", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := performRequest(server, http.MethodGet, "/healthz", "", nil, "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, config.RateLimitConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/reports", nil)
	req.Header.Set("Origin", "https://labs.example.com")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://labs.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestIPRateLimiterRefills(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newIPRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	limiter.now = func() time.Time { return now }

	_, ok := limiter.allow("10.0.0.1")
	require.True(t, ok)
	wait, ok := limiter.allow("10.0.0.1")
	require.False(t, ok)
	require.InDelta(t, float64(time.Second), float64(wait), float64(time.Millisecond))

	now = now.Add(2 * time.Second)
	_, ok = limiter.allow("10.0.0.1")
	require.True(t, ok)
	_, ok = limiter.allow("10.0.0.2")
	require.True(t, ok)
}

func startSession(t *testing.T, server *http.Server) string {
	t.Helper()
	rec := performRequest(server, http.MethodPost, "/api/v1/sessions", "", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var view dashboard.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotEmpty(t, view.Token)
	return view.Token
}

func performRequest(server *http.Server, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, files map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func newRouterUnderTest(t *testing.T, rateLimit config.RateLimitConfig) *http.Server {
	t.Helper()
	logger := newTestLogger()
	extractor, err := labreport.NewExtractor(labreport.LoosePatterns())
	require.NoError(t, err)
	loader := labreport.NewLoader(labreport.LoaderConfig{MaxFileBytes: 1 << 20}, extractor, stubPDF{text: reportText}, logger)
	generator := mealplan.NewGenerator(mealplan.Config{}, rand.New(rand.NewPCG(1, 2)))
	svc := dashboard.NewService(
		dashboard.Config{Secret: "router-test-secret", SessionTTL: time.Hour},
		sessionstore.NewMemoryStore(),
		exportstore.NewMemoryStorage(),
		loader,
		generator,
		logger,
	)
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:        ":0",
			ReadTimeout:    time.Second,
			WriteTimeout:   time.Second,
			RateLimit:      rateLimit,
			AllowedOrigins: []string{"https://labs.example.com"},
		},
		Upload: config.UploadConfig{MaxFileBytes: 1 << 20},
	}
	return NewRouter(cfg, NewHandler(svc, cfg.Upload.MaxFileBytes, logger))
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubPDF struct {
	text string
}

func (s stubPDF) ExtractText(context.Context, []byte) (string, error) {
	return s.text, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
