package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/playvault/services/payment/internal/service"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuth):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail logs the outcome under event and converts err into the HTTP error the client sees.
// Internal failures are reported without details.
func fail(l *zap.SugaredLogger, event string, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		l.Errorw(event, "status", status, "error", err)
		return echo.NewHTTPError(status, "internal error")
	}

	l.Warnw(event, "status", status, "error", err)
	switch status {
	case http.StatusForbidden:
		return echo.NewHTTPError(status, "admin access required")
	case http.StatusNotFound:
		return echo.NewHTTPError(status, "not found")
	default:
		return echo.NewHTTPError(status, err.Error())
	}
}
