// Package server exposes aggregated architecture models over a REST API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"archipel/pkg/service"
)

// Server holds the state for the REST API server.
type Server struct {
	arch   *service.ArchService
	router *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(arch *service.ArchService) *Server {
	r := gin.Default()
	s := &Server{
		arch:   arch,
		router: r,
	}
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/v1/projects", s.handleProjects)
	s.router.GET("/v1/ir", s.handleIR)
	s.router.GET("/v1/search", s.handleSearch)
	s.router.GET("/v1/entities/:id", s.handleEntity)
	s.router.GET("/v1/entities/:id/edges", s.handleEdges)
	s.router.GET("/v1/graph", s.handleGraph)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}
