package api

import (
	"net/http"

	models "PriceRadar/internal/domain/models"
	"PriceRadar/internal/usecase"
	xhttp "PriceRadar/pkg/http"
	xlogger "PriceRadar/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RadarEchoHandler serves the read path: opportunities, the unified market
// view and per-store diagnostics.
type RadarEchoHandler struct {
	logger *xlogger.Logger
	radar  *usecase.Radar
}

func NewRadarEchoHandler(logger *xlogger.Logger, radar *usecase.Radar) *RadarEchoHandler {
	return &RadarEchoHandler{logger: logger, radar: radar}
}

func (h *RadarEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/opportunities", h.Opportunities)
	g.GET("/market", h.Market)
	g.GET("/stores", h.Stores)
	e.GET("/health", h.Health)
}

func (h *RadarEchoHandler) Opportunities(c echo.Context) error {
	req := &models.RadarRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr.Message)
	}

	res, err := h.radar.Opportunities(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("opportunities usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *RadarEchoHandler) Market(c echo.Context) error {
	req := &models.MarketRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr.Message)
	}

	res, err := h.radar.Market(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("market usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *RadarEchoHandler) Stores(c echo.Context) error {
	statuses, err := h.radar.Stores(c.Request().Context())
	if err != nil {
		h.logger.Error("stores usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]any{
		"success": true,
		"stores":  statuses,
	})
}

func (h *RadarEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
