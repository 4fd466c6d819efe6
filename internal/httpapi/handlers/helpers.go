package handlers

import (
	"errors"
	"net/http"

	"simpledrive/internal/service"
	"simpledrive/internal/storage"

	"github.com/labstack/echo/v4"
)

// mapServiceError translates the storage/service error taxonomy into HTTP
// statuses. Backend faults map to 502 and transport failures to 503 so
// callers can tell a broken deployment from a retryable hiccup.
func mapServiceError(err error) error {
	var backendErr *storage.BackendError
	switch {
	case errors.Is(err, storage.ErrInvalidID):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "blob not found")
	case errors.Is(err, storage.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "id already exists")
	case errors.Is(err, service.ErrTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, storage.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage backend unavailable")
	case errors.Is(err, storage.ErrAuthRejected), errors.As(err, &backendErr):
		return echo.NewHTTPError(http.StatusBadGateway, "storage backend error")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
