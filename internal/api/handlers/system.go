package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/services"
	"redaction-worker-go/internal/worker"
)

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	cfg       *config.Config
	worker    *worker.Worker
	container *services.ServiceContainer
}

func NewSystemHandler(cfg *config.Config, w *worker.Worker, container *services.ServiceContainer) *SystemHandler {
	return &SystemHandler{
		cfg:       cfg,
		worker:    w,
		container: container,
	}
}

func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"worker":         h.worker.Stats(),
			"engine":         h.container.Engine.Stats(),
			"stream_clients": h.container.PublisherSvc.ClientCount(),
			"recording":      h.container.RecorderSvc.IsRecording(),
			"memory_mb":      m.Alloc / 1024 / 1024,
			"goroutines":     runtime.NumGoroutine(),
			"go_version":     runtime.Version(),
		},
		"timestamp": time.Now().Unix(),
	})
}

// GetConfig exposes the non-secret runtime tunables for debugging.
func (h *SystemHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config": gin.H{
			"capture_fps":             h.cfg.CaptureFPS,
			"face_detect_every":       h.cfg.FaceDetectEvery,
			"text_detect_every":       h.cfg.TextDetectEvery,
			"cache_ttl_ms":            h.cfg.CacheTTL.Milliseconds(),
			"merge_iou_threshold":     h.cfg.MergeIoUThreshold,
			"downscale_target_width":  h.cfg.DownscaleTargetWidth,
			"face_downscale":          h.cfg.FaceDownscale,
			"blur_kernel":             h.cfg.BlurKernel,
			"full_screen_blur_kernel": h.cfg.FullScreenBlurKernel,
			"min_ocr_confidence":      h.cfg.MinOCRConfidence,
			"min_entity_confidence":   h.cfg.MinEntityConfidence,
			"recording_enabled":       h.cfg.RecordingEnabled,
		},
	})
}
