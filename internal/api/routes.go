package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	s.router.GET("/stream", s.streamHandler.StreamMJPEG)

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
		system.GET("/config", s.systemHandler.GetConfig)
	}

	privacy := s.router.Group("/privacy")
	{
		privacy.GET("/status", s.privacyHandler.Status)
		privacy.POST("/fullscreen", s.privacyHandler.SetFullScreen)
	}
}
