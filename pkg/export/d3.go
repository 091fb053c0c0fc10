// Package export converts an aggregated IR into the JSON shape consumed
// by force-directed graph renderers (D3.js and compatible viewers).
package export

import (
	"archipel/pkg/ir"
)

// D3Node represents a node in the D3 force-directed graph.
type D3Node struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Kind     string            `json:"kind,omitempty"`     // e.g. "container", "component", "class"
	Group    string            `json:"group"`              // Entity level, used for coloring
	ParentID string            `json:"parentId,omitempty"` // Containing entity, for drill-down
	Metadata map[string]string `json:"metadata,omitempty"`
}

// D3Link represents a link/edge in the D3 force-directed graph.
type D3Link struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
	Label    string `json:"label,omitempty"`
}

// D3Graph represents the full graph structure for D3.js.
type D3Graph struct {
	Nodes []D3Node `json:"nodes"`
	Links []D3Link `json:"links"`
}

// Grouping buckets for visualization.
const (
	GroupSystem    = "system"
	GroupContainer = "container"
	GroupComponent = "component"
	GroupCode      = "code"
	GroupActor     = "actor"
	GroupNode      = "deploymentNode"
)

// FromIR flattens an aggregated IR into a D3 graph. Every addressable
// entity becomes a node and every relationship becomes a link, so the
// result is renderable without further joins.
func FromIR(r *ir.IR) *D3Graph {
	g := &D3Graph{}

	g.Nodes = append(g.Nodes, D3Node{
		ID:       r.System.ID,
		Name:     r.System.Name,
		Group:    GroupSystem,
		Metadata: meta("description", r.System.Description),
	})

	for _, c := range r.Containers {
		g.Nodes = append(g.Nodes, D3Node{
			ID:       c.ID,
			Name:     c.Name,
			Kind:     "container",
			Group:    GroupContainer,
			ParentID: r.System.ID,
			Metadata: meta("technology", c.Technology, "description", c.Description),
		})
	}
	for _, c := range r.Components {
		parent := c.ContainerID
		if parent == "" {
			parent = r.System.ID
		}
		g.Nodes = append(g.Nodes, D3Node{
			ID:       c.ID,
			Name:     c.Name,
			Kind:     "component",
			Group:    GroupComponent,
			ParentID: parent,
			Metadata: meta("technology", c.Technology, "description", c.Description),
		})
	}
	for _, item := range r.CodeItems {
		parent := item.ParentID
		if parent == "" {
			parent = item.ComponentID
		}
		g.Nodes = append(g.Nodes, D3Node{
			ID:       item.ID,
			Name:     item.Name,
			Kind:     item.Kind,
			Group:    GroupCode,
			ParentID: parent,
			Metadata: meta("file", item.FilePath, "signature", item.Signature, "docs", item.Documentation),
		})
	}
	for _, a := range r.Actors {
		g.Nodes = append(g.Nodes, D3Node{
			ID:       a.ID,
			Name:     a.Name,
			Kind:     a.Kind,
			Group:    GroupActor,
			Metadata: meta("description", a.Description),
		})
	}
	for _, d := range r.Deployments {
		for _, n := range d.Nodes {
			g.Nodes = append(g.Nodes, D3Node{
				ID:       n.ID,
				Name:     n.Name,
				Kind:     "node",
				Group:    GroupNode,
				ParentID: d.ID,
				Metadata: meta("technology", n.Technology, "environment", d.Environment),
			})
		}
	}

	for _, rel := range r.Relationships {
		g.Links = append(g.Links, D3Link{
			Source:   rel.SourceID,
			Target:   rel.DestinationID,
			Relation: rel.Stereotype,
			Label:    rel.Description,
		})
	}

	return g
}

// meta builds a metadata map from key/value pairs, dropping empty values.
func meta(pairs ...string) map[string]string {
	var m map[string]string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		if m == nil {
			m = make(map[string]string)
		}
		m[pairs[i]] = pairs[i+1]
	}
	return m
}
