package windowmonitor

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/detect"
	"redaction-worker-go/internal/models"
	"redaction-worker-go/internal/services/messaging"
)

// Service listens for active-window focus events from the desktop agent and
// forces full-screen blur while a sensitive window (secrets file, credential
// manager, env editor) has focus.
type Service struct {
	cfg        *config.Config
	messageSvc *messaging.Service
	engine     *detect.Engine

	mu           sync.Mutex
	subscription *nats.Subscription
	currentTitle string
}

func NewService(cfg *config.Config, messageSvc *messaging.Service, engine *detect.Engine) *Service {
	return &Service{
		cfg:        cfg,
		messageSvc: messageSvc,
		engine:     engine,
	}
}

func (s *Service) Start() error {
	sub, err := s.messageSvc.Subscribe(s.cfg.WindowSubject, s.handleEvent)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.subscription = sub
	s.mu.Unlock()

	log.Info().Str("subject", s.cfg.WindowSubject).Msg("Window monitor subscribed")
	return nil
}

func (s *Service) handleEvent(data []byte) {
	var event models.WindowFocusEvent
	if err := json.Unmarshal(data, &event); err != nil {
		log.Warn().Err(err).Msg("Failed to decode window focus event")
		return
	}

	sensitive := s.isSensitiveTitle(event.Title)

	s.mu.Lock()
	s.currentTitle = event.Title
	s.mu.Unlock()

	if s.engine.SetFullScreen(sensitive) {
		if sensitive {
			log.Info().Str("title", event.Title).Msg("Sensitive window focused, full-screen blur on")
		} else {
			log.Info().Str("title", event.Title).Msg("Sensitive window lost focus, full-screen blur off")
		}
	}
}

func (s *Service) isSensitiveTitle(title string) bool {
	if title == "" {
		return false
	}
	lower := strings.ToLower(title)
	for _, keyword := range s.cfg.SensitiveWindowKeywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// CurrentTitle returns the most recently observed window title.
func (s *Service) CurrentTitle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTitle
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("Failed to unsubscribe window monitor")
		}
		s.subscription = nil
	}
}
