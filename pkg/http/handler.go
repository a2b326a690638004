package http

import "github.com/labstack/echo/v4"

// Handler defines HTTP route registration interface.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// Compose groups several handlers into one registration unit.
func Compose(handlers ...Handler) Handler {
	return composite(handlers)
}

type composite []Handler

func (c composite) RegisterRoutes(e *echo.Echo) {
	for _, h := range c {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}
