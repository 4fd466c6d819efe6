package handlers

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type createBlobRequest struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

type createBlobResponse struct {
	ID          string    `json:"id"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	StorageType string    `json:"storage_type"`
}

type blobResponse struct {
	ID        string    `json:"id"`
	Data      string    `json:"data"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBlob accepts a base64 payload and stores it under the caller-chosen
// id. The payload is decoded before the size ceiling applies, so the limit
// is on stored bytes, not on the base64 text.
func (h *Handler) CreateBlob(c echo.Context) error {
	var req createBlobRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	data, err := base64.StdEncoding.Strict().DecodeString(req.Data)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base64 data")
	}

	meta, err := h.svc.CreateBlob(c.Request().Context(), req.ID, data)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, createBlobResponse{
		ID:          meta.ID,
		Size:        meta.Size,
		CreatedAt:   meta.CreatedAt,
		StorageType: meta.StorageType,
	})
}

func (h *Handler) GetBlob(c echo.Context) error {
	meta, data, err := h.svc.GetBlob(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, blobResponse{
		ID:        meta.ID,
		Data:      base64.StdEncoding.EncodeToString(data),
		Size:      meta.Size,
		CreatedAt: meta.CreatedAt,
	})
}
