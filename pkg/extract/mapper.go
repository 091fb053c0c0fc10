package extract

import (
	"path"
	"strings"

	"archipel/pkg/identity"
	"archipel/pkg/ir"
)

// Stereotypes emitted by the mapper.
const (
	StereotypeUses     = "uses"
	StereotypeContains = "contains"
)

// rootMarker stands in for "no component could be inferred" while mapping
// a file at the source root. It never leaves the mapper: marker ids are
// rewritten to the container's default component before the partial IR is
// returned.
const rootMarker = "__container__"

// Mapper is the shared phase-2 to-IR mapping every source extractor uses.
// It owns component resolution, deterministic code-item ids and actor
// relationship fan-out, so individual extractors only collect raw facts.
type Mapper struct {
	job Job
}

// NewMapper returns a mapper bound to one extraction job.
func NewMapper(job Job) *Mapper {
	return &Mapper{job: job}
}

// MapFiles converts ordered per-file records into one partial IR. Records
// must already be sorted by path; the mapper preserves their order so the
// aggregator's first-occurrence-wins rule stays deterministic.
func (m *Mapper) MapFiles(files []FileExtraction) *ir.IR {
	out := ir.New(m.job.SystemName, m.job.SystemDescription)

	containerID := ""
	if m.job.ContainerName != "" {
		containerID = identity.NormalizeToID(m.job.ContainerName)
		out.Containers = append(out.Containers, ir.Container{
			ID:         containerID,
			Name:       m.job.ContainerName,
			Technology: m.job.ContainerTech,
		})
	}

	components := make(map[string]int)
	actors := make(map[string]bool)

	ensureComponent := func(id, name string, mod *ModuleDecl) {
		if i, ok := components[id]; ok {
			if mod != nil && out.Components[i].Description == "" {
				out.Components[i].Description = mod.Description
			}
			return
		}
		c := ir.Component{ID: id, Name: name, ContainerID: containerID}
		if mod != nil {
			c.Description = mod.Description
			c.Tags = mod.Tags
		}
		components[id] = len(out.Components)
		out.Components = append(out.Components, c)
	}

	for _, f := range files {
		componentID, componentName := m.resolveComponent(f)
		if componentID == rootMarker {
			componentID, componentName = m.defaultComponent()
		}
		ensureComponent(componentID, componentName, f.Module)

		fileKey := fileKey(f.RelPath)

		for _, sym := range f.Symbols {
			item := ir.CodeItem{
				ID:            codeItemID(fileKey, sym),
				Name:          sym.Name,
				Kind:          sym.Kind,
				Visibility:    sym.Visibility,
				ComponentID:   componentID,
				FilePath:      f.RelPath,
				Line:          sym.Line,
				Signature:     sym.Signature,
				Documentation: sym.Documentation,
			}
			if sym.Parent != "" {
				item.ParentID = fileKey + ":" + identity.SanitizeIdentifier(sym.Parent)
			}
			out.CodeItems = append(out.CodeItems, item)
		}

		for _, a := range f.Actors {
			actorID := identity.NormalizeToID(a.Name)
			if actorID == "" {
				continue
			}
			if !actors[actorID] {
				actors[actorID] = true
				kind := a.Kind
				if kind != ir.ActorPerson && kind != ir.ActorSystem {
					kind = ir.ActorPerson
				}
				out.Actors = append(out.Actors, ir.Actor{
					ID:          actorID,
					Name:        a.Name,
					Kind:        kind,
					Description: a.Description,
				})
			}
			out.Relationships = append(out.Relationships, actorEdges(actorID, componentID, a)...)
		}

		for _, u := range f.Uses {
			targetID := identity.NormalizeToID(u.Target)
			if targetID == "" || targetID == componentID {
				continue
			}
			// The target may live in another extractor's output, or
			// nowhere; dangling edges are the aggregator's problem.
			out.Relationships = append(out.Relationships, ir.Relationship{
				SourceID:      componentID,
				DestinationID: targetID,
				Description:   u.Description,
				Stereotype:    StereotypeUses,
			})
		}
	}

	return out
}

// resolveComponent applies the priority chain from the contract:
// explicit annotation, then parent directory name, then the root marker.
func (m *Mapper) resolveComponent(f FileExtraction) (id, name string) {
	if f.Module != nil && f.Module.Name != "" {
		return identity.NormalizeToID(f.Module.Name), f.Module.Name
	}

	dir := path.Dir(strings.ReplaceAll(f.RelPath, "\\", "/"))
	if dir != "." && dir != "/" && dir != "" {
		parent := path.Base(dir)
		return identity.NormalizeToID(parent), parent
	}

	return rootMarker, ""
}

// defaultComponent is what the root marker rewrites to: the owning
// container's component, or a system-level one when no container is set.
func (m *Mapper) defaultComponent() (id, name string) {
	if m.job.ContainerName != "" {
		return identity.NormalizeToID(m.job.ContainerName), m.job.ContainerName
	}
	return identity.NormalizeToID(m.job.SystemName), m.job.SystemName
}

// actorEdges expands an actor declaration into directed relationships.
// "in" points at the component, "out" points at the actor, anything else
// emits both directions with the same description.
func actorEdges(actorID, componentID string, a ActorDecl) []ir.Relationship {
	in := ir.Relationship{
		SourceID:      actorID,
		DestinationID: componentID,
		Description:   a.Description,
		Stereotype:    StereotypeUses,
	}
	out := ir.Relationship{
		SourceID:      componentID,
		DestinationID: actorID,
		Description:   a.Description,
		Stereotype:    StereotypeUses,
	}

	switch a.Direction {
	case DirectionIn:
		return []ir.Relationship{in}
	case DirectionOut:
		return []ir.Relationship{out}
	default:
		return []ir.Relationship{in, out}
	}
}

// fileKey derives the stable file part of a code-item id. Separators are
// folded to underscores before sanitizing so "src/pay.py" and
// "src.pay.py" cannot collide with each other's symbols.
func fileKey(relPath string) string {
	p := strings.ReplaceAll(relPath, "\\", "/")
	p = strings.ReplaceAll(p, "/", "_")
	p = strings.ReplaceAll(p, ".", "_")
	return identity.SanitizeIdentifier(p)
}

// codeItemID is a pure function of file path and symbol name, so the same
// symbol re-extracted always yields the same identifier.
func codeItemID(fileKey string, sym Symbol) string {
	name := identity.SanitizeIdentifier(sym.Name)
	if sym.Parent != "" {
		return fileKey + ":" + identity.SanitizeIdentifier(sym.Parent) + "." + name
	}
	return fileKey + ":" + name
}
