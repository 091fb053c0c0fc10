// Package descriptor extracts explicitly declared architecture facts from
// archipel.yaml descriptor files: containers, components, actors and
// relationships spelled out by hand rather than inferred from code.
package descriptor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"archipel/pkg/extract"
	"archipel/pkg/identity"
	"archipel/pkg/ir"
)

// Descriptor is the file format.
type Descriptor struct {
	System        SystemDecl         `yaml:"system"`
	Containers    []ContainerDecl    `yaml:"containers"`
	Components    []ComponentDecl    `yaml:"components"`
	Actors        []ActorDecl        `yaml:"actors"`
	Relationships []RelationshipDecl `yaml:"relationships"`
}

// SystemDecl optionally overrides the system description.
type SystemDecl struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// ContainerDecl declares a deployable unit.
type ContainerDecl struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Technology  string   `yaml:"technology"`
	Tags        []string `yaml:"tags"`
}

// ComponentDecl declares a logical component inside a container.
type ComponentDecl struct {
	Name        string   `yaml:"name"`
	Container   string   `yaml:"container"`
	Description string   `yaml:"description"`
	Technology  string   `yaml:"technology"`
	Tags        []string `yaml:"tags"`
}

// ActorDecl declares a person or external system.
type ActorDecl struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Description string `yaml:"description"`
}

// RelationshipDecl declares a directed edge by entity name.
type RelationshipDecl struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	Stereotype  string `yaml:"stereotype"`
	Description string `yaml:"description"`
	Technology  string `yaml:"technology"`
}

// Extractor reads descriptor files into a partial IR.
type Extractor struct{}

// New returns a descriptor extractor.
func New() *Extractor { return &Extractor{} }

func (e *Extractor) Name() string { return "descriptor" }

// Extract parses every matching descriptor, in path order. Malformed
// descriptors are logged and skipped.
func (e *Extractor) Extract(ctx context.Context, job extract.Job) (*ir.IR, error) {
	include := job.Include
	if len(include) == 0 {
		include = []string{"**/archipel.yml", "**/archipel.yaml"}
	}

	files, err := extract.FindFiles(job.BaseDir, include, job.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discovering descriptors: %w", err)
	}

	out := ir.New(job.SystemName, job.SystemDescription)

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d, err := load(filepath.Join(job.BaseDir, filepath.FromSlash(rel)))
		if err != nil {
			if job.Logger != nil {
				job.Logger.Warn().Str("extractor", e.Name()).Str("file", rel).Err(err).Msg("skipping descriptor")
			}
			continue
		}

		if d.System.Name != "" && out.System.Description == "" {
			out.System.Description = d.System.Description
		}

		for _, c := range d.Containers {
			if c.Name == "" {
				continue
			}
			out.Containers = append(out.Containers, ir.Container{
				ID:          identity.NormalizeToID(c.Name),
				Name:        c.Name,
				Description: c.Description,
				Technology:  c.Technology,
				Tags:        c.Tags,
			})
		}

		for _, c := range d.Components {
			if c.Name == "" {
				continue
			}
			out.Components = append(out.Components, ir.Component{
				ID:          identity.NormalizeToID(c.Name),
				Name:        c.Name,
				Description: c.Description,
				ContainerID: identity.NormalizeToID(c.Container),
				Technology:  c.Technology,
				Tags:        c.Tags,
			})
		}

		for _, a := range d.Actors {
			if a.Name == "" {
				continue
			}
			kind := a.Kind
			if kind != ir.ActorPerson && kind != ir.ActorSystem {
				kind = ir.ActorPerson
			}
			out.Actors = append(out.Actors, ir.Actor{
				ID:          identity.NormalizeToID(a.Name),
				Name:        a.Name,
				Kind:        kind,
				Description: a.Description,
			})
		}

		for _, r := range d.Relationships {
			if r.Source == "" || r.Destination == "" {
				continue
			}
			stereotype := r.Stereotype
			if stereotype == "" {
				stereotype = extract.StereotypeUses
			}
			out.Relationships = append(out.Relationships, ir.Relationship{
				SourceID:      identity.NormalizeToID(r.Source),
				DestinationID: identity.NormalizeToID(r.Destination),
				Stereotype:    stereotype,
				Description:   r.Description,
				Technology:    r.Technology,
			})
		}
	}

	return out, nil
}

func load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	return &d, nil
}
