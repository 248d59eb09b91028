package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FloatinggOnion/vogu-health-be/internal"
	"github.com/FloatinggOnion/vogu-health-be/internal/auth"
	"github.com/FloatinggOnion/vogu-health-be/internal/config"
	"github.com/FloatinggOnion/vogu-health-be/internal/insight"
	"github.com/FloatinggOnion/vogu-health-be/internal/storage"
)

const testToken = "test-token"

type stubModel struct {
	calls atomic.Int32
}

func (m *stubModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls.Add(1)
	return "1. Key Insights:\n- Steady week\n2. Health Recommendations:\n- Keep it up\n3. Health Concerns:\n- None\n", nil
}

func (m *stubModel) ModelVersion() string { return "stub-1" }

type testApp struct {
	logger   internal.Logger
	metrics  storage.MetricRepository
	insights *insight.Service
}

func (a *testApp) Logger() internal.Logger           { return a.logger }
func (a *testApp) Metrics() storage.MetricRepository { return a.metrics }
func (a *testApp) Insights() *insight.Service        { return a.insights }

func newTestRouter(t *testing.T) (*gin.Engine, *testApp, *stubModel) {
	return newTestRouterIn(t, time.UTC)
}

func newTestRouterIn(t *testing.T, loc *time.Location) (*gin.Engine, *testApp, *stubModel) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	logger := internal.NopLogger{}
	store, err := storage.NewFileStorage(
		filepath.Join(dir, "sleep.json"),
		filepath.Join(dir, "heart.json"),
		filepath.Join(dir, "weight.json"),
		logger,
	)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	model := &stubModel{}
	svc := insight.NewService(
		insight.NewAggregator(store, loc),
		insight.NewBuilder(4000),
		insight.NewCache(time.Hour, 16, logger),
		model,
		insight.Options{AggregationVersion: "agg-v1", PromptVersion: "tpl-v1", WaitTimeout: 5 * time.Second},
		logger,
	)

	app := &testApp{logger: logger, metrics: store, insights: svc}

	provider := auth.NewLocalAuthProvider(testToken, logger)
	cfg := &config.Config{Env: "development"}

	r := gin.New()
	Register(r, app, auth.Middleware(provider, cfg))
	return r, app, model
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostSleep(t *testing.T) {
	r, _, _ := newTestRouter(t)

	body := map[string]any{
		"start_time": "2024-03-20T22:00:00Z",
		"end_time":   "2024-03-21T06:00:00Z",
		"quality":    80,
		"phases":     map[string]int{"deep": 120, "light": 240, "rem": 90, "awake": 30},
		"source":     "wearable",
	}
	w := doJSON(r, http.MethodPost, "/api/v1/health-data/sleep", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data internal.SleepRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.ID)
	assert.Equal(t, "u1", resp.Data.UserID)
	assert.Equal(t, 450, resp.Data.AsleepMinutes())
}

func TestPostSleepValidation(t *testing.T) {
	r, _, _ := newTestRouter(t)

	// end before start
	body := map[string]any{
		"start_time": "2024-03-21T06:00:00Z",
		"end_time":   "2024-03-20T22:00:00Z",
		"quality":    80,
		"phases":     map[string]int{"deep": 120, "light": 240, "rem": 90, "awake": 30},
		"source":     "wearable",
	}
	w := doJSON(r, http.MethodPost, "/api/v1/health-data/sleep", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnauthorized(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/insights/recent", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/insights/recent", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "missing header")
}

func TestGetMetrics(t *testing.T) {
	r, app, _ := newTestRouter(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		err := app.metrics.SaveHeartRate(ctx, &internal.HeartRateRecord{
			ID:        fmt.Sprintf("hr%d", i),
			UserID:    "u1",
			Timestamp: now.Add(-time.Duration(i) * time.Hour),
			Value:     60 + i,
			Source:    "test",
		})
		require.NoError(t, err)
	}

	w := doJSON(r, http.MethodGet, "/api/v1/health-data/heart_rate?days=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data []internal.HeartRateRecord `json:"data"`
		Meta map[string]any             `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 3)
	assert.Equal(t, float64(2), resp.Meta["days"])
}

func TestGetMetricsRejectsUnknownType(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/v1/health-data/blood_sugar", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRecentInsights(t *testing.T) {
	r, app, model := newTestRouter(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, app.metrics.SaveHeartRate(ctx, &internal.HeartRateRecord{
		ID: "hr1", UserID: "u1", Timestamp: now.Add(-2 * time.Hour), Value: 64, Source: "test",
	}))

	w := doJSON(r, http.MethodGet, "/api/v1/insights/recent?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data internal.Insight `json:"data"`
		Meta map[string]any   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.GeneratedText)
	assert.Equal(t, []string{"Keep it up"}, resp.Data.Recommendations)
	assert.Equal(t, "stub-1", resp.Meta["model_version"])
	assert.NotEmpty(t, resp.Meta["fingerprint"])

	// identical request is served from the cache
	w = doJSON(r, http.MethodGet, "/api/v1/insights/recent?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), model.calls.Load())
}

func TestDailyEndpointsUseAggregationZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	r, app, _ := newTestRouterIn(t, loc)
	ctx := context.Background()

	// 15:00 UTC is mid-morning on Mar 21 in New York; a UTC-parsed date
	// would shift this request onto Mar 20 and find nothing.
	require.NoError(t, app.metrics.SaveHeartRate(ctx, &internal.HeartRateRecord{
		ID:        "hr1",
		UserID:    "u1",
		Timestamp: time.Date(2024, 3, 21, 15, 0, 0, 0, time.UTC),
		Value:     64,
		Source:    "test",
	}))

	w := doJSON(r, http.MethodGet, "/api/v1/insights/daily/2024-03-21", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data internal.Insight `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.TimeRange.Start.Equal(time.Date(2024, 3, 21, 0, 0, 0, 0, loc)))
	assert.True(t, resp.Data.TimeRange.End.Equal(time.Date(2024, 3, 22, 0, 0, 0, 0, loc)))

	// the raw daily view reads the same calendar
	w = doJSON(r, http.MethodGet, "/api/v1/health-data/daily/2024-03-21", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var daily struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &daily))
	var hrs []internal.HeartRateRecord
	require.NoError(t, json.Unmarshal(daily.Data["heart_rate"], &hrs))
	assert.Len(t, hrs, 1)
}

func TestGetRecentInsightsEmptyData(t *testing.T) {
	r, _, model := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/v1/insights/recent", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int32(0), model.calls.Load())
}
