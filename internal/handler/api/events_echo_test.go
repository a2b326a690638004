package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PriceRadar/internal/broadcast"
	"PriceRadar/internal/service/ratelimit"

	"github.com/labstack/echo/v4"
)

func testEventsServer(t *testing.T, publishRPS, publishBurst float64) (*echo.Echo, *broadcast.Bus) {
	t.Helper()
	log := testLogger(t)
	bus := broadcast.NewBus(noopMetrics{}, log)
	h := NewEventsEchoHandler(log, bus, ratelimit.New(), publishRPS, publishBurst)

	e := echo.New()
	h.RegisterRoutes(e)
	return e, bus
}

func TestPublishFansOutToSubscribers(t *testing.T) {
	e, bus := testEventsServer(t, 100, 100)

	obs := bus.Connect()
	defer bus.Disconnect(obs)

	payload := `{"refreshProducts":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	select {
	case got := <-obs.Events():
		if string(got) != payload {
			t.Fatalf("expected verbatim forwarding, got %s", got)
		}
	default:
		t.Fatalf("subscriber received nothing")
	}
}

func TestPublishRejectsMalformedBody(t *testing.T) {
	e, _ := testEventsServer(t, 100, 100)

	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPublishRateLimited(t *testing.T) {
	e, _ := testEventsServer(t, 0.0001, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected first two publishes accepted, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third publish rate limited, got %v", codes)
	}
}

func TestSubscribeStreamsPublishedEvents(t *testing.T) {
	e, bus := testEventsServer(t, 100, 100)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.ServeHTTP(rec, req)
	}()

	// Wait for the stream handler to register its observer.
	deadline := time.Now().Add(time.Second)
	for bus.ObserverCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(time.Millisecond)
	}

	bus.Publish([]byte(`{"type":"opportunity"}`))
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("subscribe handler did not stop on cancellation")
	}

	body := rec.Body.String()
	if !strings.Contains(body, `data: {"type":"opportunity"}`) {
		t.Fatalf("expected SSE frame in stream, got %q", body)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if bus.ObserverCount() != 0 {
		t.Fatalf("observer leaked after disconnect")
	}
}
