package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/Skotchmaster/blog_api/internal/middleware/logging"
)

// Common is the global middleware chain, outermost first. Recover sits inside
// the request logger so recovered panics are logged with their 500.
func Common(logger *slog.Logger) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		ecM.RequestID(),
		loggingmw.RequestLogger(logger),
		ecM.Recover(),
		ecM.Secure(),
		ecM.BodyLimit("10M"),
	}
}
