// Package server exposes meeting proposals and free-time computation over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"meetme/internal/planner"
	"meetme/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server is the HTTP API.
type Server struct {
	logger  *slog.Logger
	store   store.Store
	planner *planner.Planner
	router  *gin.Engine
}

// New builds the router. Each client IP may make maxRequestsPerMin requests a minute.
func New(logger *slog.Logger, s store.Store, p *planner.Planner, maxRequestsPerMin int) *Server {
	srv := &Server{
		logger:  logger,
		store:   s,
		planner: p,
		router:  gin.New(),
	}

	// Behind no proxy, ClientIP must come from the connection, not from headers.
	if err := srv.router.SetTrustedProxies(nil); err != nil {
		logger.Warn("Could not reset trusted proxies", "error", err)
	}

	srv.router.Use(gin.Recovery())
	srv.router.Use(requestLogger(logger))
	srv.router.Use(newRateLimiter(maxRequestsPerMin).middleware(logger))
	srv.router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	{
		api.GET("/meetings", s.listMeetings)
		api.POST("/meetings", s.createMeeting)
		api.DELETE("/meetings", s.deleteMeetings)
		api.GET("/meetings/:id", s.getMeeting)
		api.POST("/meetings/:id/busy", s.addBusyTimes)
		api.POST("/free", s.freeTimes)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", addr)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("Server stopped gracefully")
	return nil
}
