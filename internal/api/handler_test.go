package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/goleak"

	"github.com/rosbache/afry-img2ifc/internal/models"
	"github.com/rosbache/afry-img2ifc/internal/repository"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

// mockRepo returns canned records and captures the filter it was called with.
type mockRepo struct {
	records    []models.ImageRecord
	err        error
	lastFilter repository.Filter
}

func (m *mockRepo) Add(ctx context.Context, batch string, r *models.ImageRecord) error {
	return nil
}

func (m *mockRepo) Exists(ctx context.Context, batch, filename string) (bool, error) {
	return false, nil
}

func (m *mockRepo) List(ctx context.Context, opts repository.Filter) ([]models.ImageRecord, error) {
	m.lastFilter = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func (m *mockRepo) Count(ctx context.Context) (int, error) {
	return len(m.records), nil
}

func f64(v float64) *float64 { return &v }

func setupRouter(repo repository.RecordRepository) *gin.Engine {
	r := gin.New()
	NewHandler(repo, "").RegisterRoutes(r)
	return r
}

func TestGetRecords(t *testing.T) {
	repo := &mockRepo{records: []models.ImageRecord{
		{
			Filename:         "a.jpg",
			ImageURL:         "https://example.com/images/a.jpg",
			HasGPS:           true,
			Latitude:         f64(59.3293),
			Longitude:        f64(18.0686),
			Elevation:        f64(50),
			TransformedX:     f64(112000.5),
			TransformedY:     f64(1212000.25),
			TransformedZ:     f64(50),
			CoordinateSystem: "EPSG:5110",
		},
		{Filename: "nogps.jpg", ImageURL: "file:///nogps.jpg"},
	}}
	router := setupRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("unexpected content type %q", ct)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("unexpected collection type %q", fc.Type)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature (no-GPS record dropped), got %d", len(fc.Features))
	}

	f := fc.Features[0]
	if f.Geometry.Type != "Point" {
		t.Errorf("unexpected geometry type %q", f.Geometry.Type)
	}
	if len(f.Geometry.Coordinates) != 2 ||
		f.Geometry.Coordinates[0] != 18.0686 || f.Geometry.Coordinates[1] != 59.3293 {
		t.Errorf("coordinates must be [lon, lat], got %v", f.Geometry.Coordinates)
	}
	if f.Properties["filename"] != "a.jpg" {
		t.Errorf("unexpected properties %v", f.Properties)
	}
	if f.Properties["coordinate_system"] != "EPSG:5110" {
		t.Errorf("transformed properties missing: %v", f.Properties)
	}
}

func TestGetRecords_QueryParams(t *testing.T) {
	repo := &mockRepo{}
	router := setupRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/records?batch=site-a&has_gps=true&limit=10&offset=20", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if repo.lastFilter.Batch != "site-a" {
		t.Errorf("batch filter not applied: %+v", repo.lastFilter)
	}
	if repo.lastFilter.HasGPS == nil || !*repo.lastFilter.HasGPS {
		t.Errorf("has_gps filter not applied: %+v", repo.lastFilter)
	}
	if repo.lastFilter.Limit != 10 || repo.lastFilter.Offset != 20 {
		t.Errorf("pagination not applied: %+v", repo.lastFilter)
	}
}

func TestGetRecords_LimitBounds(t *testing.T) {
	repo := &mockRepo{}
	router := setupRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/records?limit=5000", nil)
	router.ServeHTTP(w, req)

	if repo.lastFilter.Limit != 100 {
		t.Errorf("out-of-range limit must fall back to the default, got %d", repo.lastFilter.Limit)
	}
}

func TestGetRecords_RepoError(t *testing.T) {
	repo := &mockRepo{err: errors.New("database gone")}
	router := setupRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	router := setupRouter(&mockRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestToGeoJSON_EmptyInput(t *testing.T) {
	fc := toGeoJSON(nil)
	if fc.Features == nil {
		t.Error("features must serialize as an empty array, not null")
	}
	if len(fc.Features) != 0 {
		t.Errorf("expected no features, got %d", len(fc.Features))
	}
}
