package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"PriceRadar/internal/domain/models"
	"PriceRadar/internal/domain/repository"
	"PriceRadar/internal/matching"
	"PriceRadar/internal/usecase"
	"PriceRadar/pkg/logger"

	"github.com/labstack/echo/v4"
)

type noopMetrics struct{}

func (noopMetrics) RecordScan(string, int, float64) {}
func (noopMetrics) RecordStoreSkip(string, string)  {}
func (noopMetrics) RecordDelivery(string)           {}
func (noopMetrics) RecordDrop(string)               {}
func (noopMetrics) SetObservers(int)                {}
func (noopMetrics) RecordError(string)              {}

type fakeSource struct {
	store    string
	listings []*models.RawListing
}

func (s *fakeSource) Store() string { return s.store }

func (s *fakeSource) Fetch(context.Context, repository.ListingFilter) ([]*models.RawListing, error) {
	return s.listings, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testRadarServer(t *testing.T) *echo.Echo {
	t.Helper()

	sources := []repository.CatalogSource{
		&fakeSource{store: "Fravega", listings: []*models.RawListing{
			{Name: "Samsung Galaxy S23 256GB", Brand: "Samsung", Price: 480000,
				DiscountPct: 10, Category: "Celulares", Store: "Fravega", InStock: true},
		}},
		&fakeSource{store: "OnCity", listings: []*models.RawListing{
			{Name: "S23 256GB Samsung Galaxy", Brand: "Samsung", Price: 600000,
				DiscountPct: 8, Category: "Celulares", Store: "OnCity", InStock: true},
		}},
	}

	log := testLogger(t)
	agg := usecase.NewMarketAggregator(sources, matching.NewKeyGenerator(), noopMetrics{}, log)
	radar := usecase.NewRadar(agg, usecase.WithThresholds(15, 30))

	e := echo.New()
	NewRadarEchoHandler(log, radar).RegisterRoutes(e)
	return e
}

func TestOpportunitiesEndpoint(t *testing.T) {
	e := testRadarServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities?limit=10", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.RadarResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success true")
	}
	if resp.Total != 1 || resp.Count != 1 {
		t.Fatalf("expected the underpriced S23 as the single opportunity, got %+v", resp)
	}
	if resp.Items[0].Store != "Fravega" || resp.Items[0].GapMarket != 20 {
		t.Fatalf("unexpected item: %+v", resp.Items[0])
	}
}

func TestOpportunitiesNonNumericLimit(t *testing.T) {
	e := testRadarServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities?limit=abc", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body struct {
		Success bool            `json:"success"`
		Error   string          `json:"error"`
		Items   json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if body.Success {
		t.Fatalf("expected success false")
	}
	if body.Error == "" {
		t.Fatalf("expected a human-readable error message")
	}
	if len(body.Items) != 0 {
		t.Fatalf("error response must not carry a partial item list")
	}
}

func TestOpportunitiesLimitDefault(t *testing.T) {
	e := testRadarServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.RadarResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.Limit != 50 {
		t.Fatalf("expected default limit 50, got %d", resp.Limit)
	}
}

func TestMarketEndpoint(t *testing.T) {
	e := testRadarServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/market?search=samsung", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.MarketResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("expected 2 listings, got %d", resp.Total)
	}
	if len(resp.Categories) != 1 || resp.Categories[0] != "Celulares" {
		t.Fatalf("unexpected categories %v", resp.Categories)
	}
}

func TestStoresEndpoint(t *testing.T) {
	e := testRadarServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stores", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Success bool                 `json:"success"`
		Stores  []models.StoreStatus `json:"stores"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if !body.Success || len(body.Stores) != 2 {
		t.Fatalf("unexpected stores body: %+v", body)
	}
}

func TestHealthEndpoint(t *testing.T) {
	e := testRadarServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
