package handlers

import (
	"github.com/gin-gonic/gin"

	"redaction-worker-go/internal/services"
)

// StreamHandler serves the redacted MJPEG preview.
type StreamHandler struct {
	container *services.ServiceContainer
}

func NewStreamHandler(container *services.ServiceContainer) *StreamHandler {
	return &StreamHandler{container: container}
}

func (h *StreamHandler) StreamMJPEG(c *gin.Context) {
	h.container.PublisherSvc.StreamMJPEGHTTP(c.Writer, c.Request)
}
