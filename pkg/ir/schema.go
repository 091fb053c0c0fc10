package ir

import (
	"fmt"

	"archipel/pkg/common/errors"
)

// CheckStructure verifies the structural contract every partial and final
// IR must satisfy: a system with id and name, and id+name on every element
// of every entity array, plus endpoints and a stereotype on every
// relationship. The aggregator assumes this holds and never calls it; the
// validation stage and tests do.
func CheckStructure(r *IR) error {
	if r == nil {
		return fmt.Errorf("%w: nil IR", errors.ErrInvalidInput)
	}
	if r.System.ID == "" || r.System.Name == "" {
		return fmt.Errorf("%w: system requires id and name", errors.ErrInvalidInput)
	}

	for i, c := range r.Containers {
		if c.ID == "" || c.Name == "" {
			return fmt.Errorf("%w: containers[%d] requires id and name", errors.ErrInvalidInput, i)
		}
	}
	for i, c := range r.Components {
		if c.ID == "" || c.Name == "" {
			return fmt.Errorf("%w: components[%d] requires id and name", errors.ErrInvalidInput, i)
		}
	}
	for i, c := range r.CodeItems {
		if c.ID == "" || c.Name == "" {
			return fmt.Errorf("%w: codeItems[%d] requires id and name", errors.ErrInvalidInput, i)
		}
	}
	for i, a := range r.Actors {
		if a.ID == "" || a.Name == "" {
			return fmt.Errorf("%w: actors[%d] requires id and name", errors.ErrInvalidInput, i)
		}
	}
	for i, d := range r.Deployments {
		if d.ID == "" || d.Name == "" {
			return fmt.Errorf("%w: deployments[%d] requires id and name", errors.ErrInvalidInput, i)
		}
		for j, n := range d.Nodes {
			if n.ID == "" || n.Name == "" {
				return fmt.Errorf("%w: deployments[%d].nodes[%d] requires id and name", errors.ErrInvalidInput, i, j)
			}
		}
	}
	for i, rel := range r.Relationships {
		if rel.SourceID == "" || rel.DestinationID == "" {
			return fmt.Errorf("%w: relationships[%d] requires sourceId and destinationId", errors.ErrInvalidInput, i)
		}
		if rel.Stereotype == "" {
			return fmt.Errorf("%w: relationships[%d] requires a stereotype", errors.ErrInvalidInput, i)
		}
	}
	for i, ci := range r.ContainerInstances {
		if ci.ContainerID == "" || ci.Environment == "" {
			return fmt.Errorf("%w: containerInstances[%d] requires containerId and environment", errors.ErrInvalidInput, i)
		}
	}
	return nil
}
