// Package service is the query layer over loaded projects. It answers
// entity lookups, fuzzy search and edge traversals for the REST and MCP
// surfaces without either of them touching storage directly.
package service

import (
	"fmt"

	"archipel/internal/manager"
	"archipel/pkg/common/errors"
	"archipel/pkg/export"
	"archipel/pkg/ir"
)

// ProjectManager is the storage abstraction the service depends on.
type ProjectManager interface {
	GetIR(projectID string) (*ir.IR, error)
	ListProjects() ([]manager.ProjectMetadata, error)
}

// Entity is the flattened view of any addressable IR entity, used by
// lookup and search responses.
type Entity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
	ParentID    string `json:"parentId,omitempty"`
}

// ArchService handles architecture query operations.
type ArchService struct {
	manager ProjectManager
}

// NewArchService creates a new ArchService.
func NewArchService(manager ProjectManager) *ArchService {
	return &ArchService{manager: manager}
}

// ListProjects returns a list of available projects.
func (s *ArchService) ListProjects() ([]manager.ProjectMetadata, error) {
	return s.manager.ListProjects()
}

// GetIR returns the full aggregated IR for a project.
func (s *ArchService) GetIR(projectID string) (*ir.IR, error) {
	return s.manager.GetIR(projectID)
}

// GetEntity resolves a single entity by id.
func (s *ArchService) GetEntity(projectID, entityID string) (*Entity, error) {
	r, err := s.manager.GetIR(projectID)
	if err != nil {
		return nil, err
	}
	for _, e := range entities(r) {
		if e.ID == entityID {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("%w: entity %s", errors.ErrNotFound, entityID)
}

// Search runs a fuzzy match of the query against all entity names and ids
// in the project and returns the best matches, highest score first.
func (s *ArchService) Search(projectID, query string, limit int) ([]SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", errors.ErrInvalidInput)
	}
	r, err := s.manager.GetIR(projectID)
	if err != nil {
		return nil, err
	}
	return FindEntitiesBySimilarity(query, entities(r), limit), nil
}

// Edge is a relationship with the far endpoint resolved for display.
type Edge struct {
	SourceID      string `json:"sourceId"`
	DestinationID string `json:"destinationId"`
	Stereotype    string `json:"stereotype"`
	Description   string `json:"description,omitempty"`
	Technology    string `json:"technology,omitempty"`
	OtherName     string `json:"otherName,omitempty"`
}

// OutgoingEdges returns the relationships originating at an entity.
func (s *ArchService) OutgoingEdges(projectID, entityID string) ([]Edge, error) {
	return s.edges(projectID, entityID, true)
}

// IncomingEdges returns the relationships terminating at an entity.
func (s *ArchService) IncomingEdges(projectID, entityID string) ([]Edge, error) {
	return s.edges(projectID, entityID, false)
}

func (s *ArchService) edges(projectID, entityID string, outgoing bool) ([]Edge, error) {
	r, err := s.manager.GetIR(projectID)
	if err != nil {
		return nil, err
	}
	if !r.EntityIDs()[entityID] {
		return nil, fmt.Errorf("%w: entity %s", errors.ErrNotFound, entityID)
	}

	names := make(map[string]string)
	for _, e := range entities(r) {
		names[e.ID] = e.Name
	}

	var out []Edge
	for _, rel := range r.Relationships {
		var other string
		if outgoing && rel.SourceID == entityID {
			other = rel.DestinationID
		} else if !outgoing && rel.DestinationID == entityID {
			other = rel.SourceID
		} else {
			continue
		}
		out = append(out, Edge{
			SourceID:      rel.SourceID,
			DestinationID: rel.DestinationID,
			Stereotype:    rel.Stereotype,
			Description:   rel.Description,
			Technology:    rel.Technology,
			OtherName:     names[other],
		})
	}
	return out, nil
}

// ExportGraph flattens a project into the D3 force-graph shape.
func (s *ArchService) ExportGraph(projectID string) (*export.D3Graph, error) {
	r, err := s.manager.GetIR(projectID)
	if err != nil {
		return nil, err
	}
	return export.FromIR(r), nil
}

// entities flattens every addressable entity in the IR into the common
// Entity view, in declaration order.
func entities(r *ir.IR) []Entity {
	var out []Entity
	out = append(out, Entity{ID: r.System.ID, Name: r.System.Name, Kind: "system", Description: r.System.Description})
	for _, c := range r.Containers {
		out = append(out, Entity{ID: c.ID, Name: c.Name, Kind: "container", Description: c.Description})
	}
	for _, c := range r.Components {
		out = append(out, Entity{ID: c.ID, Name: c.Name, Kind: "component", Description: c.Description, ParentID: c.ContainerID})
	}
	for _, item := range r.CodeItems {
		out = append(out, Entity{ID: item.ID, Name: item.Name, Kind: item.Kind, Description: item.Documentation, ParentID: item.ComponentID})
	}
	for _, a := range r.Actors {
		out = append(out, Entity{ID: a.ID, Name: a.Name, Kind: a.Kind, Description: a.Description})
	}
	for _, d := range r.Deployments {
		for _, n := range d.Nodes {
			out = append(out, Entity{ID: n.ID, Name: n.Name, Kind: "deploymentNode", Description: n.Description, ParentID: d.ID})
		}
	}
	return out
}
