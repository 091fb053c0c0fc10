package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"archipel/pkg/common/errors"
	"archipel/pkg/service"
)

// handleProjects returns a list of available projects.
func (s *Server) handleProjects(c *gin.Context) {
	projects, err := s.arch.ListProjects()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// handleIR returns the full aggregated model for a project.
func (s *Server) handleIR(c *gin.Context) {
	projectID := c.Query("project")
	if projectID == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing project ID", nil))
		return
	}

	r, err := s.arch.GetIR(projectID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// handleSearch runs a fuzzy entity search within a project.
func (s *Server) handleSearch(c *gin.Context) {
	projectID := c.Query("project")
	query := c.Query("q")
	if projectID == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing project ID", nil))
		return
	}
	if query == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing query", nil))
		return
	}

	limit := 10
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid limit", err))
			return
		}
		limit = parsed
	}

	results, err := s.arch.Search(projectID, query, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// handleEntity returns a single entity by id.
func (s *Server) handleEntity(c *gin.Context) {
	projectID := c.Query("project")
	if projectID == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing project ID", nil))
		return
	}

	entity, err := s.arch.GetEntity(projectID, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

// handleEdges returns the relationships touching an entity. The direction
// query parameter selects outgoing (default) or incoming edges.
func (s *Server) handleEdges(c *gin.Context) {
	projectID := c.Query("project")
	if projectID == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing project ID", nil))
		return
	}

	entityID := c.Param("id")
	direction := c.DefaultQuery("direction", "out")

	var (
		edges []service.Edge
		err   error
	)
	switch direction {
	case "out":
		edges, err = s.arch.OutgoingEdges(projectID, entityID)
	case "in":
		edges, err = s.arch.IncomingEdges(projectID, entityID)
	default:
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid direction, want in or out", nil))
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"edges": edges})
}

// handleGraph returns the project flattened into force-graph JSON.
func (s *Server) handleGraph(c *gin.Context) {
	projectID := c.Query("project")
	if projectID == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing project ID", nil))
		return
	}

	graph, err := s.arch.ExportGraph(projectID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
