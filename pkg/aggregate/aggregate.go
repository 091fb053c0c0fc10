// Package aggregate merges the ordered partial IRs produced by independent
// extractors into one consistent graph: entities deduplicated by id (and
// components additionally by name within a container), relationships
// deduplicated by their (source, destination, stereotype) triple, and
// dangling edges dropped.
//
// The merge is a pure, single-pass, in-memory reduction. It performs no
// I/O, cannot fail on well-formed input, and is deterministic for a fixed
// input order: first-occurrence-wins, with absent fields backfilled from
// later duplicates and nothing overwritten.
package aggregate

import (
	"slices"

	"archipel/pkg/identity"
	"archipel/pkg/ir"
)

// Merge combines partial IRs, in order, into one IR satisfying the final
// invariants. fallback supplies the system entity when no partial IR
// carries one; the result is never nil and never an error value, an empty
// input simply yields the minimal IR.
func Merge(fallback ir.System, parts []*ir.IR) *ir.IR {
	out := &ir.IR{System: mergeSystem(fallback, parts)}

	mergeContainers(out, parts)
	aliases := mergeComponents(out, parts)
	mergeCodeItems(out, parts, aliases)
	mergeActors(out, parts)
	mergeDeployments(out, parts)
	mergeInstances(out, parts)
	mergeRelationships(out, parts, aliases)

	return out
}

func mergeSystem(fallback ir.System, parts []*ir.IR) ir.System {
	sys := ir.System{}
	for _, p := range parts {
		if p == nil || p.System.ID == "" {
			continue
		}
		if sys.ID == "" {
			sys = p.System
			continue
		}
		if sys.Name == "" {
			sys.Name = p.System.Name
		}
		if sys.Description == "" {
			sys.Description = p.System.Description
		}
	}
	if sys.ID == "" {
		sys = fallback
		if sys.ID == "" && sys.Name != "" {
			sys.ID = identity.NormalizeToID(sys.Name)
		}
	}
	return sys
}

func mergeContainers(out *ir.IR, parts []*ir.IR) {
	index := make(map[string]int)
	for _, p := range parts {
		if p == nil {
			continue
		}
		for _, c := range p.Containers {
			if i, ok := index[c.ID]; ok {
				kept := &out.Containers[i]
				if kept.Name == "" {
					kept.Name = c.Name
				}
				if kept.Description == "" {
					kept.Description = c.Description
				}
				if kept.Technology == "" {
					kept.Technology = c.Technology
				}
				if len(kept.Tags) == 0 {
					kept.Tags = slices.Clone(c.Tags)
				}
				continue
			}
			c.Tags = slices.Clone(c.Tags)
			index[c.ID] = len(out.Containers)
			out.Containers = append(out.Containers, c)
		}
	}
}

// mergeComponents dedups by id first, then by normalized name within the
// same container. The returned alias map rewrites discarded ids to the
// kept id so code items and relationships keep resolving.
func mergeComponents(out *ir.IR, parts []*ir.IR) map[string]string {
	byID := make(map[string]int)
	byName := make(map[[2]string]int)
	aliases := make(map[string]string)

	for _, p := range parts {
		if p == nil {
			continue
		}
		for _, c := range p.Components {
			if i, ok := byID[c.ID]; ok {
				widenComponent(&out.Components[i], c)
				continue
			}
			nameKey := [2]string{identity.NormalizeToID(c.Name), c.ContainerID}
			if i, ok := byName[nameKey]; ok && nameKey[0] != "" {
				// Two extractors inferred the same logical component from
				// different files under different ids.
				kept := &out.Components[i]
				widenComponent(kept, c)
				aliases[c.ID] = kept.ID
				continue
			}
			c.Tags = slices.Clone(c.Tags)
			byID[c.ID] = len(out.Components)
			byName[nameKey] = len(out.Components)
			out.Components = append(out.Components, c)
		}
	}
	return aliases
}

func widenComponent(kept *ir.Component, dup ir.Component) {
	if kept.Name == "" {
		kept.Name = dup.Name
	}
	if kept.Description == "" {
		kept.Description = dup.Description
	}
	if kept.ContainerID == "" {
		kept.ContainerID = dup.ContainerID
	}
	if kept.Technology == "" {
		kept.Technology = dup.Technology
	}
	if len(kept.Tags) == 0 {
		kept.Tags = slices.Clone(dup.Tags)
	}
}

func mergeCodeItems(out *ir.IR, parts []*ir.IR, aliases map[string]string) {
	index := make(map[string]int)
	for _, p := range parts {
		if p == nil {
			continue
		}
		for _, c := range p.CodeItems {
			if to, ok := aliases[c.ComponentID]; ok {
				c.ComponentID = to
			}
			if i, ok := index[c.ID]; ok {
				kept := &out.CodeItems[i]
				if kept.Name == "" {
					kept.Name = c.Name
				}
				if kept.Kind == "" {
					kept.Kind = c.Kind
				}
				if kept.Visibility == "" {
					kept.Visibility = c.Visibility
				}
				if kept.ComponentID == "" {
					kept.ComponentID = c.ComponentID
				}
				if kept.ParentID == "" {
					kept.ParentID = c.ParentID
				}
				if kept.FilePath == "" {
					kept.FilePath = c.FilePath
				}
				if kept.Line == 0 {
					kept.Line = c.Line
				}
				if kept.Signature == "" {
					kept.Signature = c.Signature
				}
				if kept.Documentation == "" {
					kept.Documentation = c.Documentation
				}
				continue
			}
			index[c.ID] = len(out.CodeItems)
			out.CodeItems = append(out.CodeItems, c)
		}
	}
}

func mergeActors(out *ir.IR, parts []*ir.IR) {
	index := make(map[string]int)
	for _, p := range parts {
		if p == nil {
			continue
		}
		for _, a := range p.Actors {
			if i, ok := index[a.ID]; ok {
				kept := &out.Actors[i]
				if kept.Name == "" {
					kept.Name = a.Name
				}
				if kept.Kind == "" {
					kept.Kind = a.Kind
				}
				if kept.Description == "" {
					kept.Description = a.Description
				}
				continue
			}
			index[a.ID] = len(out.Actors)
			out.Actors = append(out.Actors, a)
		}
	}
}

func mergeDeployments(out *ir.IR, parts []*ir.IR) {
	index := make(map[string]int)
	nodeIndex := make(map[string]map[string]bool)

	for _, p := range parts {
		if p == nil {
			continue
		}
		for _, d := range p.Deployments {
			i, ok := index[d.ID]
			if !ok {
				seen := make(map[string]bool)
				kept := ir.Deployment{ID: d.ID, Name: d.Name, Environment: d.Environment}
				for _, n := range d.Nodes {
					if !seen[n.ID] {
						seen[n.ID] = true
						kept.Nodes = append(kept.Nodes, n)
					}
				}
				index[d.ID] = len(out.Deployments)
				nodeIndex[d.ID] = seen
				out.Deployments = append(out.Deployments, kept)
				continue
			}
			kept := &out.Deployments[i]
			if kept.Name == "" {
				kept.Name = d.Name
			}
			if kept.Environment == "" {
				kept.Environment = d.Environment
			}
			seen := nodeIndex[d.ID]
			for _, n := range d.Nodes {
				if !seen[n.ID] {
					seen[n.ID] = true
					kept.Nodes = append(kept.Nodes, n)
				}
			}
		}
	}
}

// mergeInstances dedups container instances by (container, environment)
// and drops instances whose container never materialized, mirroring the
// dangling-relationship policy.
func mergeInstances(out *ir.IR, parts []*ir.IR) {
	containers := make(map[string]bool)
	for _, c := range out.Containers {
		containers[c.ID] = true
	}

	index := make(map[[2]string]int)
	for _, p := range parts {
		if p == nil {
			continue
		}
		for _, ci := range p.ContainerInstances {
			if !containers[ci.ContainerID] {
				continue
			}
			key := [2]string{ci.ContainerID, ci.Environment}
			if i, ok := index[key]; ok {
				if out.ContainerInstances[i].Replicas == 0 {
					out.ContainerInstances[i].Replicas = ci.Replicas
				}
				continue
			}
			index[key] = len(out.ContainerInstances)
			out.ContainerInstances = append(out.ContainerInstances, ci)
		}
	}
}

func mergeRelationships(out *ir.IR, parts []*ir.IR, aliases map[string]string) {
	entities := out.EntityIDs()

	rewrite := func(id string) string {
		if to, ok := aliases[id]; ok {
			return to
		}
		return id
	}

	index := make(map[[3]string]int)
	for _, p := range parts {
		if p == nil {
			continue
		}
		for _, rel := range p.Relationships {
			rel.SourceID = rewrite(rel.SourceID)
			rel.DestinationID = rewrite(rel.DestinationID)

			// Dangling endpoints are expected in partial extractions and
			// are not an error at this layer.
			if !entities[rel.SourceID] || !entities[rel.DestinationID] {
				continue
			}

			key := [3]string{rel.SourceID, rel.DestinationID, rel.Stereotype}
			if i, ok := index[key]; ok {
				kept := &out.Relationships[i]
				if kept.Description == "" {
					kept.Description = rel.Description
				}
				if kept.Technology == "" {
					kept.Technology = rel.Technology
				}
				continue
			}
			index[key] = len(out.Relationships)
			out.Relationships = append(out.Relationships, rel)
		}
	}
}
