package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"PriceRadar/internal/broadcast"
	"PriceRadar/internal/service/ratelimit"
	xhttp "PriceRadar/pkg/http"
	xlogger "PriceRadar/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const maxPublishBytes = 64 << 10

// EventsEchoHandler serves the realtime path: an SSE subscribe stream, a
// WebSocket subscribe stream, and the publish endpoint used by external
// collector processes.
type EventsEchoHandler struct {
	logger       *xlogger.Logger
	bus          *broadcast.Bus
	limiter      *ratelimit.Limiter
	publishRPS   float64
	publishBurst float64
	upgrader     websocket.Upgrader
}

func NewEventsEchoHandler(logger *xlogger.Logger, bus *broadcast.Bus, limiter *ratelimit.Limiter, publishRPS, publishBurst float64) *EventsEchoHandler {
	return &EventsEchoHandler{
		logger:       logger,
		bus:          bus,
		limiter:      limiter,
		publishRPS:   publishRPS,
		publishBurst: publishBurst,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *EventsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/events", h.Subscribe)
	g.POST("/events", h.Publish)
	g.GET("/ws", h.SubscribeWS)
}

// Subscribe streams broadcast frames as server-sent events until the client
// disconnects. Heartbeats arrive on the bus ticker; nothing published before
// the subscription is replayed.
func (h *EventsEchoHandler) Subscribe(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	obs := h.bus.Connect()
	defer h.bus.Disconnect(obs)

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-obs.Done():
			return nil
		case event := <-obs.Events():
			if _, err := fmt.Fprintf(res, "data: %s\n\n", event); err != nil {
				h.logger.Debug("sse write failed, dropping observer",
					xlogger.String("observer", obs.ID()), xlogger.Error(err))
				return nil
			}
			res.Flush()
		}
	}
}

// SubscribeWS is the WebSocket flavor of Subscribe for clients behind
// proxies that buffer SSE.
func (h *EventsEchoHandler) SubscribeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return xhttp.BadRequestResponse(c, "websocket upgrade failed")
	}
	defer conn.Close()

	obs := h.bus.Connect()
	defer h.bus.Disconnect(obs)

	// Reader goroutine exists only to detect the close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-closed:
			return nil
		case <-obs.Done():
			return nil
		case event := <-obs.Events():
			if err := conn.WriteMessage(websocket.TextMessage, event); err != nil {
				h.logger.Debug("websocket write failed, dropping observer",
					xlogger.String("observer", obs.ID()), xlogger.Error(err))
				return nil
			}
		}
	}
}

// Publish fans an arbitrary JSON body out to every open subscriber,
// verbatim. This is the integration point for the collector processes that
// confirm opportunities upstream.
func (h *EventsEchoHandler) Publish(c echo.Context) error {
	if !h.limiter.Allow(c.RealIP(), h.publishBurst, h.publishRPS) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("publish rate exceeded"))
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPublishBytes+1))
	if err != nil {
		return xhttp.BadRequestResponse(c, "could not read request body")
	}
	if len(body) == 0 {
		return xhttp.BadRequestResponse(c, "empty body")
	}
	if len(body) > maxPublishBytes {
		return xhttp.BadRequestResponse(c, "body too large")
	}
	if !json.Valid(body) {
		return xhttp.BadRequestResponse(c, "body must be valid JSON")
	}

	h.bus.Publish(json.RawMessage(body))

	return xhttp.SuccessResponse(c, map[string]any{
		"success":   true,
		"observers": h.bus.ObserverCount(),
	})
}
