package entity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
)

// Service is an HTTP client for the entity analyzer sidecar. The sidecar is
// optional: when it is down the text detector still runs its vocabulary and
// pattern passes, so analyzer errors degrade detection rather than fail it.
type Service struct {
	client *resty.Client
	cfg    *config.Config

	mu          sync.Mutex
	available   bool
	lastChecked time.Time
	warned      bool
}

const healthRecheckInterval = 30 * time.Second

type analyzeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func NewService(cfg *config.Config) *Service {
	client := resty.New().
		SetBaseURL(cfg.AnalyzerURL).
		SetTimeout(cfg.AnalyzerTimeout)

	return &Service{
		client: client,
		cfg:    cfg,
	}
}

// Available reports whether the analyzer responded to a recent health probe.
// The result is cached so a down sidecar is not hammered every frame.
func (s *Service) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.lastChecked) < healthRecheckInterval {
		return s.available
	}
	s.lastChecked = time.Now()

	resp, err := s.client.R().Get("/health")
	s.available = err == nil && resp.IsSuccess()

	if !s.available && !s.warned {
		log.Warn().Str("url", s.cfg.AnalyzerURL).
			Msg("Entity analyzer unavailable, running without entity classification")
		s.warned = true
	}
	if s.available && s.warned {
		log.Info().Str("url", s.cfg.AnalyzerURL).Msg("Entity analyzer is back")
		s.warned = false
	}
	return s.available
}

// Classify sends one text fragment to the analyzer and returns the entity
// matches it reports.
func (s *Service) Classify(ctx context.Context, text, language string) ([]models.EntityMatch, error) {
	if language == "" {
		language = s.cfg.AnalyzerLanguage
	}

	var matches []models.EntityMatch
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(analyzeRequest{Text: text, Language: language}).
		SetResult(&matches).
		Post("/analyze")
	if err != nil {
		return nil, fmt.Errorf("analyzer request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("analyzer returned status %d", resp.StatusCode())
	}
	return matches, nil
}
