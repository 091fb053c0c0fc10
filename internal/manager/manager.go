// Package manager loads aggregated IR files from a data directory and
// serves them to the REST and MCP layers, keeping recently used projects
// in an LRU cache.
package manager

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"archipel/pkg/common/errors"
	"archipel/pkg/ir"
)

// ProjectMetadata is the project information exposed by the API.
type ProjectMetadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	MaxOpenProjects = 32
	ProjectListTTL  = 1 * time.Minute
)

// Manager resolves project ids to loaded IRs. A project is one
// <id>.json file under the base directory, written by an extraction run.
type Manager struct {
	baseDir       string
	projects      *lru.Cache[string, *ir.IR]
	mu            sync.RWMutex
	cachedList    []ProjectMetadata
	lastListBuild time.Time
}

// New creates a Manager rooted at baseDir.
func New(baseDir string) *Manager {
	cache, _ := lru.New[string, *ir.IR](MaxOpenProjects)
	return &Manager{
		baseDir:  baseDir,
		projects: cache,
	}
}

// GetIR returns the IR for a project, loading it on first use.
func (m *Manager) GetIR(projectID string) (*ir.IR, error) {
	if r, ok := m.projects.Get(projectID); ok {
		return r, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.projects.Get(projectID); ok {
		return r, nil
	}

	path := filepath.Join(m.baseDir, projectID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: project %s", errors.ErrNotFound, projectID)
		}
		return nil, fmt.Errorf("failed to read project %s: %w", projectID, err)
	}

	var r ir.IR
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse project %s: %w", projectID, err)
	}
	if err := ir.CheckStructure(&r); err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}

	m.projects.Add(projectID, &r)
	return &r, nil
}

// ListProjects scans the base directory for project files. The listing is
// cached briefly; ingesting a new project shows up within the TTL.
func (m *Manager) ListProjects() ([]ProjectMetadata, error) {
	m.mu.RLock()
	if m.cachedList != nil && time.Since(m.lastListBuild) < ProjectListTTL {
		list := m.cachedList
		m.mu.RUnlock()
		return list, nil
	}
	m.mu.RUnlock()

	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	var list []ProjectMetadata
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		meta := ProjectMetadata{ID: id, Name: id}
		// Pull the system name/description when the file loads cleanly;
		// a corrupt file still shows up by id.
		if r, err := m.GetIR(id); err == nil {
			meta.Name = r.System.Name
			meta.Description = r.System.Description
		}
		list = append(list, meta)
	}

	m.mu.Lock()
	m.cachedList = list
	m.lastListBuild = time.Now()
	m.mu.Unlock()

	return list, nil
}

// Save writes an aggregated IR as a project file and refreshes the cache.
func (m *Manager) Save(projectID string, r *ir.IR) error {
	if err := ir.CheckStructure(r); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project %s: %w", projectID, err)
	}
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	path := filepath.Join(m.baseDir, projectID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project %s: %w", projectID, err)
	}

	m.mu.Lock()
	m.projects.Add(projectID, r)
	m.cachedList = nil
	m.mu.Unlock()
	return nil
}
