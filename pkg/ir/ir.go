// Package ir defines the Architecture Intermediate Representation: the
// unified graph of systems, containers, components, code items, actors,
// relationships and deployments that extractors produce pieces of and the
// aggregator merges into one consistent value.
package ir

import "archipel/pkg/identity"

// Code item kinds.
const (
	KindClass     = "class"
	KindInterface = "interface"
	KindFunction  = "function"
	KindMethod    = "method"
	KindProperty  = "property"
	KindType      = "type"
)

// Actor kinds.
const (
	ActorPerson = "Person"
	ActorSystem = "System"
)

// System is the root software system being documented. Exactly one per IR.
type System struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Container is a deployable/runtime boundary: one execution unit.
type Container struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Technology  string   `json:"technology,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Component is a logical grouping of code within a container.
type Component struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ContainerID string   `json:"containerId,omitempty"`
	Technology  string   `json:"technology,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// CodeItem is a leaf-level symbol: a class, function, method, property,
// interface or type alias. Methods and properties nest under their class
// via ParentID.
type CodeItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	Visibility    string `json:"visibility,omitempty"`
	ComponentID   string `json:"componentId,omitempty"`
	ParentID      string `json:"parentId,omitempty"`
	FilePath      string `json:"filePath,omitempty"`
	Line          int    `json:"line,omitempty"`
	Signature     string `json:"signature,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

// Actor is a person or external system interacting with the architecture.
type Actor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"` // Person | System
	Description string `json:"description,omitempty"`
}

// Relationship is a directed edge between two entity identifiers. Its
// identity is the full (SourceID, DestinationID, Stereotype) triple: two
// edges between the same pair with different stereotypes are independent.
type Relationship struct {
	SourceID      string `json:"sourceId"`
	DestinationID string `json:"destinationId"`
	Description   string `json:"description,omitempty"`
	Stereotype    string `json:"stereotype,omitempty"`
	Technology    string `json:"technology,omitempty"`
}

// Deployment is a named environment containing deployment nodes.
type Deployment struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Environment string           `json:"environment"`
	Nodes       []DeploymentNode `json:"nodes,omitempty"`
}

// DeploymentNode is an addressable location within an environment
// (a host, cluster or platform slot).
type DeploymentNode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Technology  string `json:"technology,omitempty"`
	Description string `json:"description,omitempty"`
}

// ContainerInstance records a container running in an environment.
type ContainerInstance struct {
	ContainerID string `json:"containerId"`
	Environment string `json:"environment"`
	Replicas    int    `json:"replicas,omitempty"`
}

// IR is the full intermediate representation. A partial IR (one extractor's
// output) and the final aggregate share this shape; only the final one is
// guaranteed to satisfy the cross-entity invariants.
type IR struct {
	System             System              `json:"system"`
	Containers         []Container         `json:"containers,omitempty"`
	Components         []Component         `json:"components,omitempty"`
	CodeItems          []CodeItem          `json:"codeItems,omitempty"`
	Actors             []Actor             `json:"actors,omitempty"`
	Relationships      []Relationship      `json:"relationships,omitempty"`
	Deployments        []Deployment        `json:"deployments,omitempty"`
	ContainerInstances []ContainerInstance `json:"containerInstances,omitempty"`
}

// New returns a minimal valid IR containing only the system entity.
func New(systemName, description string) *IR {
	return &IR{
		System: System{
			ID:          identity.NormalizeToID(systemName),
			Name:        systemName,
			Description: description,
		},
	}
}

// EntityIDs returns the set of addressable entity identifiers in the IR:
// the system, containers, components, code items, actors and deployment
// nodes. Relationship endpoints must resolve against this set.
func (r *IR) EntityIDs() map[string]bool {
	ids := make(map[string]bool)
	if r.System.ID != "" {
		ids[r.System.ID] = true
	}
	for _, c := range r.Containers {
		ids[c.ID] = true
	}
	for _, c := range r.Components {
		ids[c.ID] = true
	}
	for _, c := range r.CodeItems {
		ids[c.ID] = true
	}
	for _, a := range r.Actors {
		ids[a.ID] = true
	}
	for _, d := range r.Deployments {
		ids[d.ID] = true
		for _, n := range d.Nodes {
			ids[n.ID] = true
		}
	}
	return ids
}
