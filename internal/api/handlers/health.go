package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/services"
	"redaction-worker-go/internal/worker"
)

type HealthHandler struct {
	cfg       *config.Config
	worker    *worker.Worker
	container *services.ServiceContainer
}

func NewHealthHandler(cfg *config.Config, w *worker.Worker, container *services.ServiceContainer) *HealthHandler {
	return &HealthHandler{
		cfg:       cfg,
		worker:    w,
		container: container,
	}
}

type HealthResponse struct {
	Status        string `json:"status"`
	WorkerID      string `json:"worker_id"`
	NATSConnected bool   `json:"nats_connected"`
}

type WorkerInfoResponse struct {
	WorkerID     string   `json:"worker_id"`
	SessionID    string   `json:"session_id"`
	Status       string   `json:"status"`
	Capabilities []string `json:"capabilities"`
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		WorkerID:      h.cfg.WorkerID,
		NATSConnected: h.container.MessageSvc.IsConnected(),
	})
}

func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	status := "stopped"
	if h.worker.Stats().Running {
		status = "running"
	}
	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID:  h.cfg.WorkerID,
		SessionID: h.worker.SessionID(),
		Status:    status,
		Capabilities: []string{
			"face_redaction",
			"text_redaction",
			"fullscreen_blur",
			"mjpeg_streaming",
		},
	})
}
