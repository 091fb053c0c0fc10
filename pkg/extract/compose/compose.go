// Package compose extracts deployment facts from compose-style service
// manifests: each service becomes a container, each manifest an
// environment with container instances and deploys-to edges.
package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"archipel/pkg/extract"
	"archipel/pkg/identity"
	"archipel/pkg/ir"
)

// Stereotypes emitted by this extractor.
const (
	StereotypeDeploysTo = "deploys-to"
	StereotypeDependsOn = "depends-on"
)

// Manifest mirrors the subset of the compose file format we read.
type Manifest struct {
	Name     string             `yaml:"name"`
	Services map[string]Service `yaml:"services"`
}

// Service is one runtime unit in a manifest.
type Service struct {
	Image       string   `yaml:"image"`
	Description string   `yaml:"description"`
	DependsOn   []string `yaml:"depends_on"`
	Deploy      *Deploy  `yaml:"deploy"`
}

// Deploy carries replica configuration for a service.
type Deploy struct {
	Replicas int `yaml:"replicas"`
}

// Extractor reads compose manifests into a partial IR.
type Extractor struct{}

// New returns a manifest extractor.
func New() *Extractor { return &Extractor{} }

func (e *Extractor) Name() string { return "compose" }

// Extract parses every matching manifest. A manifest that fails to parse
// is logged and skipped; the rest of the run continues.
func (e *Extractor) Extract(ctx context.Context, job extract.Job) (*ir.IR, error) {
	include := job.Include
	if len(include) == 0 {
		include = []string{"**/docker-compose*.yml", "**/docker-compose*.yaml", "**/compose*.yml", "**/compose*.yaml"}
	}

	files, err := extract.FindFiles(job.BaseDir, include, job.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discovering manifests: %w", err)
	}

	out := ir.New(job.SystemName, job.SystemDescription)
	containers := make(map[string]bool)

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m, err := loadManifest(filepath.Join(job.BaseDir, filepath.FromSlash(rel)))
		if err != nil {
			if job.Logger != nil {
				job.Logger.Warn().Str("extractor", e.Name()).Str("file", rel).Err(err).Msg("skipping manifest")
			}
			continue
		}

		env := environmentName(rel, m)
		deploymentID := "deployment-" + identity.NormalizeToID(env)
		out.Deployments = append(out.Deployments, ir.Deployment{
			ID:          deploymentID,
			Name:        env,
			Environment: env,
		})

		// Deterministic service order: yaml maps do not guarantee one.
		for _, svcName := range sortedServiceNames(m) {
			svc := m.Services[svcName]
			containerID := identity.NormalizeToID(svcName)

			if !containers[containerID] {
				containers[containerID] = true
				out.Containers = append(out.Containers, ir.Container{
					ID:          containerID,
					Name:        svcName,
					Description: svc.Description,
					Technology:  svc.Image,
				})
			}

			instance := ir.ContainerInstance{ContainerID: containerID, Environment: env}
			if svc.Deploy != nil {
				instance.Replicas = svc.Deploy.Replicas
			}
			out.ContainerInstances = append(out.ContainerInstances, instance)

			out.Relationships = append(out.Relationships, ir.Relationship{
				SourceID:      containerID,
				DestinationID: deploymentID,
				Stereotype:    StereotypeDeploysTo,
				Description:   "runs in " + env,
			})

			for _, dep := range svc.DependsOn {
				out.Relationships = append(out.Relationships, ir.Relationship{
					SourceID:      containerID,
					DestinationID: identity.NormalizeToID(dep),
					Stereotype:    StereotypeDependsOn,
				})
			}
		}
	}

	return out, nil
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(m.Services) == 0 {
		return nil, fmt.Errorf("manifest declares no services")
	}
	return &m, nil
}

// environmentName prefers the infix of the file name
// (docker-compose.prod.yml -> prod), then the manifest's project name.
func environmentName(rel string, m *Manifest) string {
	base := filepath.Base(rel)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, prefix := range []string{"docker-compose.", "compose."} {
		if strings.HasPrefix(base, prefix) {
			return strings.TrimPrefix(base, prefix)
		}
	}
	if m.Name != "" {
		return m.Name
	}
	return "default"
}

func sortedServiceNames(m *Manifest) []string {
	names := make([]string, 0, len(m.Services))
	for name := range m.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
