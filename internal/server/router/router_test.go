package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
	"github.com/mamadbah2/prodtracker/internal/repository/memory"
	"github.com/mamadbah2/prodtracker/internal/server/handlers"
	"github.com/mamadbah2/prodtracker/internal/service/production"
	"github.com/mamadbah2/prodtracker/internal/service/quality"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestEngine(t *testing.T) (*gin.Engine, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
	guard := quality.NewGuard(time.Hour, clock.Now)
	svc := production.NewService(memory.NewRepository(), guard, nil, time.UTC, clock.Now, nil)
	engine := New(handlers.NewProductionHandler(svc, nil), nil, nil)
	gin.SetMode(gin.TestMode)
	return engine, clock
}

func do(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func entryPayload() map[string]any {
	return map[string]any{
		"date":                   "2025-01-10",
		"machine_no":             "M-01",
		"size_no":                "38-40",
		"count_taken_from_table": 200,
		"measurement_error":      5,
		"knitting_error":         3,
	}
}

func TestEntryLifecycle(t *testing.T) {
	engine, clock := newTestEngine(t)

	rec := do(t, engine, http.MethodPost, "/api/production/entries", entryPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created models.Entry
	decode(t, rec, &created)
	if created.ID != 1 || created.TotalDefects != 8 || created.MeasurementErrorRate.String() != "2.5" {
		t.Fatalf("unexpected created entry: %+v", created)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected a generated request id header")
	}

	rec = do(t, engine, http.MethodGet, "/api/production/entries/1/view", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("view: expected 200, got %d", rec.Code)
	}
	var view models.EntryView
	decode(t, rec, &view)
	if !view.CanEdit || view.TimeRemainingForEdit != "1:00:00" {
		t.Fatalf("unexpected view: %+v", view)
	}

	update := entryPayload()
	update["other_defect"] = 2
	update["version"] = 1
	rec = do(t, engine, http.MethodPut, "/api/production/entries/1", update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, engine, http.MethodPut, "/api/production/entries/1", update)
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale update: expected 409, got %d", rec.Code)
	}

	clock.now = clock.now.Add(61 * time.Minute)
	delete(update, "version")
	rec = do(t, engine, http.MethodPut, "/api/production/entries/1", update)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("late update: expected 403, got %d", rec.Code)
	}

	rec = do(t, engine, http.MethodGet, "/api/production/entries/1/editability", nil)
	var check models.EditabilityCheck
	decode(t, rec, &check)
	if rec.Code != http.StatusOK || check.CanEdit {
		t.Fatalf("editability: expected locked verdict, got %d %+v", rec.Code, check)
	}

	rec = do(t, engine, http.MethodDelete, "/api/production/entries/1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	rec = do(t, engine, http.MethodGet, "/api/production/entries/1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestCreateEntry_ValidationError(t *testing.T) {
	engine, _ := newTestEngine(t)

	payload := entryPayload()
	payload["knitting_error"] = -1
	rec := do(t, engine, http.MethodPost, "/api/production/entries", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["field"] != "knitting_error" {
		t.Fatalf("expected knitting_error field, got %v", body)
	}
}

func TestEditability_UnknownEntry(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := do(t, engine, http.MethodGet, "/api/production/entries/99/editability", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var check models.EditabilityCheck
	decode(t, rec, &check)
	if check.CanEdit || check.Message == "" {
		t.Fatalf("expected not-found verdict, got %+v", check)
	}

	rec = do(t, engine, http.MethodGet, "/api/production/entries/abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-numeric id, got %d", rec.Code)
	}
}

func TestDateRangeAndSummary(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, date := range []string{"2025-01-09", "2025-01-10"} {
		payload := entryPayload()
		payload["date"] = date
		if rec := do(t, engine, http.MethodPost, "/api/production/entries", payload); rec.Code != http.StatusCreated {
			t.Fatalf("create: expected 201, got %d", rec.Code)
		}
	}

	rec := do(t, engine, http.MethodGet, "/api/production/entries/date-range?start_date=2025-01-10&end_date=2025-01-10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("date-range: expected 200, got %d", rec.Code)
	}
	var entries []models.Entry
	decode(t, rec, &entries)
	if len(entries) != 1 || entries[0].ID != 2 {
		t.Fatalf("expected only entry 2, got %+v", entries)
	}

	rec = do(t, engine, http.MethodGet, "/api/production/entries/date-range?start_date=2025-01-10&end_date=2025-01-10&start_time=25:99", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad clock: expected 400, got %d", rec.Code)
	}

	rec = do(t, engine, http.MethodPost, "/api/production/summary/calculate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("calculate: expected 200, got %d", rec.Code)
	}
	var summary models.Summary
	decode(t, rec, &summary)
	if summary.TotalTableCount != 400 || summary.TotalErrorCount != 16 || summary.OverallErrorRate.String() != "4" {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	rec = do(t, engine, http.MethodGet, "/api/production/entries/filter-info", nil)
	var info models.FilterInfo
	decode(t, rec, &info)
	if rec.Code != http.StatusOK || info.EditWindow != "1h0m0s" {
		t.Fatalf("unexpected filter info: %d %+v", rec.Code, info)
	}
}

func TestCORSAllowList(t *testing.T) {
	clock := &testClock{now: time.Now()}
	svc := production.NewService(memory.NewRepository(), quality.NewGuard(time.Hour, clock.Now), nil, time.UTC, clock.Now, nil)
	engine := New(handlers.NewProductionHandler(svc, nil), []string{"https://plant.example"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://plant.example")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://plant.example" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a foreign origin, got %d", rec.Code)
	}
}
