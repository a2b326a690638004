package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorBody is the error envelope returned to callers. Internal detail is
// never included; the message is safe to show.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SuccessResponse writes a 200 response with the given payload verbatim.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// BadRequestResponse writes a 400 with a human-readable message.
func BadRequestResponse(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorBody{Error: message})
}

// InternalServerErrorResponse writes a generic 500. The cause belongs in the
// log, not on the wire.
func InternalServerErrorResponse(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, ErrorBody{Error: "internal server error"})
}

// AppErrorResponse maps an error to its HTTP representation. Unknown errors
// become a generic 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, ErrorBody{Error: appErr.Message})
	}
	return InternalServerErrorResponse(c)
}
