// Package api exposes the comparison service over HTTP with gin.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hypotest/app"
)

// Server is the HTTP front of the comparison service
type Server struct {
	router  *gin.Engine
	service *app.ComparisonService
	metrics *Metrics
	http    *http.Server
}

// NewServer wires the routes. A nil metrics disables /metrics.
func NewServer(service *app.ComparisonService, metrics *Metrics) *Server {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	if metrics != nil {
		router.Use(metrics.instrument())
	}

	s := &Server{
		router:  router,
		service: service,
		metrics: metrics,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/comparisons", s.handleCreateComparison)
		v1.GET("/comparisons", s.handleListComparisons)
		v1.GET("/comparisons/:id", s.handleGetComparison)
	}

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("[API] Listening on %s", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	log.Printf("[API] Shutting down")
	return s.http.Shutdown(ctx)
}
