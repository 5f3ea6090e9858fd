package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medicare/medicare/internal/platform/respond"
)

// RequestTimeout sets a deadline on each request context. The handler
// runs on the request goroutine, so panics still reach Recovery; store
// calls observe the deadline and, if it passed before anything was
// written, a 504 envelope replaces the handler's result.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Response().Committed {
				return gatewayTimeout(c)
			}
			return err
		}
	}
}

func gatewayTimeout(c echo.Context) error {
	return c.JSON(http.StatusGatewayTimeout, respond.Envelope{
		Success: false,
		Message: "Request processing exceeded the allowed time limit",
	})
}
