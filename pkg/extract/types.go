// Package extract defines the contract every source-specific extractor
// implements: phase 1 collects raw per-file facts into FileExtraction
// records, phase 2 (the Mapper) turns an ordered list of those records
// into one partial IR conforming to the canonical schema.
package extract

import (
	"context"

	"github.com/phuslu/log"

	"archipel/pkg/ir"
)

// Actor interaction directions.
const (
	DirectionIn   = "in"
	DirectionOut  = "out"
	DirectionBoth = "both"
)

// ModuleDecl is an explicit component annotation attached to a file
// (the @module / @description tags in a leading comment or docstring).
type ModuleDecl struct {
	Name        string
	Description string
	Tags        []string
}

// ActorDecl declares a person or external system interacting with the
// file's component: @actor Name {Person|System} {in|out|both} description.
type ActorDecl struct {
	Name        string
	Kind        string // Person | System
	Direction   string // in | out | both (empty means both)
	Description string
}

// UsesDecl declares a dependency of the file's component on another
// entity by name: @uses Target description.
type UsesDecl struct {
	Target      string
	Description string
}

// Symbol is one code-level declaration found in a file.
type Symbol struct {
	Name          string
	Kind          string // ir.Kind* constants
	Visibility    string // public | private
	Parent        string // enclosing class/struct name, if nested
	Line          int
	Signature     string
	Documentation string
}

// FileExtraction is the raw fact record one extractor produces per file
// before mapping. A file that failed to parse contributes a zero record.
type FileExtraction struct {
	RelPath string
	Module  *ModuleDecl
	Actors  []ActorDecl
	Uses    []UsesDecl
	Symbols []Symbol
	Imports []string
}

// Job carries everything an extractor invocation needs: the resolved base
// directory, the include/exclude glob configuration, the system identity
// for the partial IR, and the pipeline logger. Extractors share no other
// state, so parallel invocation over independent jobs is safe.
type Job struct {
	SystemName        string
	SystemDescription string
	BaseDir           string
	Include           []string
	Exclude           []string
	ContainerName     string
	ContainerTech     string
	Logger            *log.Logger
}

// Extractor produces one partial IR per invocation. An error aborts only
// this extractor; the pipeline logs it and continues with the rest.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, job Job) (*ir.IR, error)
}
