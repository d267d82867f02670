package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/infrastructure/storage"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ImageSource returns stored image objects by key
type ImageSource interface {
	Get(key string) (storage.StoredObject, bool)
}

// ImageHandler serves images kept by the in-memory store
type ImageHandler struct {
	BaseHandler
	source ImageSource
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(source ImageSource, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		BaseHandler: newBaseHandler(logger),
		source:      source,
	}
}

// Serve handles GET /images/*key
func (h *ImageHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	obj, ok := h.source.Get(key)
	if !ok {
		h.respondError(c, http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "Image not found"))
		return
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, obj.Data)
}
