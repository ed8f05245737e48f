package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/detect"
	"redaction-worker-go/internal/services/capture"
	"redaction-worker-go/internal/services/entity"
	"redaction-worker-go/internal/services/messaging"
	"redaction-worker-go/internal/services/ocr"
	"redaction-worker-go/internal/services/publisher"
	"redaction-worker-go/internal/services/recorder"
	"redaction-worker-go/internal/services/windowmonitor"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config        *config.Config
	MessageSvc    *messaging.Service
	OCRSvc        *ocr.Service
	EntitySvc     *entity.Service
	CaptureSvc    *capture.Service
	PublisherSvc  *publisher.Service
	RecorderSvc   *recorder.Service
	WindowMonitor *windowmonitor.Service
	Engine        *detect.Engine

	faceDetector *detect.FaceDetector
}

// NewServiceContainer creates and wires all services
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	messageSvc, err := messaging.NewService(cfg)
	if err != nil {
		return nil, err
	}

	entitySvc := entity.NewService(cfg)

	detectors, ocrSvc, faceDetector := buildDetectors(cfg, entitySvc)
	engine := detect.NewEngine(cfg, detect.NewRedactor(cfg), detectors...)

	captureSvc, err := capture.NewService(cfg)
	if err != nil {
		engine.Close()
		if faceDetector != nil {
			faceDetector.Close()
		}
		if ocrSvc != nil {
			ocrSvc.Close()
		}
		messageSvc.Shutdown(context.Background())
		return nil, err
	}

	sc := &ServiceContainer{
		Config:       cfg,
		MessageSvc:   messageSvc,
		OCRSvc:       ocrSvc,
		EntitySvc:    entitySvc,
		CaptureSvc:   captureSvc,
		PublisherSvc: publisher.NewService(cfg),
		RecorderSvc:  recorder.NewService(cfg, messageSvc),
		Engine:       engine,
		faceDetector: faceDetector,
	}
	sc.WindowMonitor = windowmonitor.NewService(cfg, messageSvc, engine)

	return sc, nil
}

// buildDetectors assembles whichever detectors can initialize. A missing
// tesseract language pack or cascade file disables that detector only; the
// engine keeps running with the remaining one, and with none at all only the
// full-screen blur signal applies.
func buildDetectors(cfg *config.Config, entitySvc *entity.Service) ([]detect.Detector, *ocr.Service, *detect.FaceDetector) {
	var detectors []detect.Detector

	ocrSvc, err := ocr.NewService(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("OCR unavailable, text redaction disabled")
		ocrSvc = nil
	} else {
		detectors = append(detectors, detect.NewTextDetector(cfg, ocrSvc, entitySvc))
	}

	faceDetector, err := detect.NewFaceDetector(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Face cascade unavailable, face redaction disabled")
		faceDetector = nil
	} else {
		detectors = append(detectors, faceDetector)
	}

	if len(detectors) == 0 {
		log.Warn().Msg("No detectors available, only full-screen blur will be applied")
	}
	return detectors, ocrSvc, faceDetector
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	if sc.WindowMonitor != nil {
		sc.WindowMonitor.Stop()
	}

	if sc.RecorderSvc != nil {
		if err := sc.RecorderSvc.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down recorder")
		}
	}

	if sc.PublisherSvc != nil {
		sc.PublisherSvc.Shutdown()
	}

	if sc.Engine != nil {
		if err := sc.Engine.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close detection engine")
		}
	}

	if sc.CaptureSvc != nil {
		sc.CaptureSvc.Close()
	}

	if sc.faceDetector != nil {
		sc.faceDetector.Close()
	}

	if sc.OCRSvc != nil {
		if err := sc.OCRSvc.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close OCR service")
		}
	}

	if sc.MessageSvc != nil {
		return sc.MessageSvc.Shutdown(ctx)
	}
	return nil
}
