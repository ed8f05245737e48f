package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"redaction-worker-go/internal/api/handlers"
	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/services"
	"redaction-worker-go/internal/worker"
)

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler  *handlers.HealthHandler
	systemHandler  *handlers.SystemHandler
	privacyHandler *handlers.PrivacyHandler
	streamHandler  *handlers.StreamHandler
}

func NewServer(cfg *config.Config, w *worker.Worker, container *services.ServiceContainer) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	return &Server{
		config:         cfg,
		router:         router,
		healthHandler:  handlers.NewHealthHandler(cfg, w, container),
		systemHandler:  handlers.NewSystemHandler(cfg, w, container),
		privacyHandler: handlers.NewPrivacyHandler(container),
		streamHandler:  handlers.NewStreamHandler(container),
	}
}

func (s *Server) Setup() error {
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}
	return nil
}

func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
