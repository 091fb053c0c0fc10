// Package pipeline orchestrates a run: it invokes each configured
// extractor against the source tree, collects their partial IRs in
// configuration order, and hands the ordered list to the aggregator.
// Individual extractor failures degrade the result instead of aborting
// it; only a structurally invalid final IR fails the run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"archipel/pkg/aggregate"
	"archipel/pkg/extract"
	"archipel/pkg/extract/compose"
	"archipel/pkg/extract/descriptor"
	"archipel/pkg/extract/source"
	"archipel/pkg/identity"
	"archipel/pkg/ir"
)

// Pipeline runs configured extractors and aggregates their output.
type Pipeline struct {
	cfg      Config
	logger   *log.Logger
	registry map[string]extract.Extractor
}

// New builds a pipeline with the built-in extractor registry.
func New(cfg Config, logger *log.Logger) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		logger:   logger,
		registry: make(map[string]extract.Extractor),
	}
	for _, e := range []extract.Extractor{
		descriptor.New(),
		source.Go(),
		source.Python(),
		source.TypeScript(),
		source.JavaScript(),
		compose.New(),
	} {
		p.registry[e.Name()] = e
	}
	return p
}

// Register adds or replaces an extractor. Mainly for tests and embedders
// that bring their own fact sources.
func (p *Pipeline) Register(e extract.Extractor) {
	p.registry[e.Name()] = e
}

// Run executes every configured extractor against baseDir and returns the
// aggregated IR. The partial-IR order is exactly the configuration order,
// so repeated runs over the same tree produce identical output.
func (p *Pipeline) Run(ctx context.Context, baseDir string) (*ir.IR, error) {
	runID := uuid.NewString()
	if p.logger != nil {
		p.logger.Info().
			Str("run", runID).
			Str("system", p.cfg.System.Name).
			Int("extractors", len(p.cfg.Extractors)).
			Msg("starting extraction")
	}

	var parts []*ir.IR
	for _, ec := range p.cfg.Extractors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ext, ok := p.registry[ec.Name]
		if !ok {
			if p.logger != nil {
				p.logger.Warn().Str("run", runID).Str("extractor", ec.Name).Msg("unknown extractor, skipping")
			}
			continue
		}

		job := extract.Job{
			SystemName:        p.cfg.System.Name,
			SystemDescription: p.cfg.System.Description,
			BaseDir:           baseDir,
			Include:           ec.Include,
			Exclude:           ec.Exclude,
			ContainerName:     ec.Container,
			ContainerTech:     ec.Technology,
			Logger:            p.logger,
		}

		part, err := ext.Extract(ctx, job)
		if err != nil {
			// A failed extractor contributes nothing; the run stays
			// best-effort.
			if p.logger != nil {
				p.logger.Error().Str("run", runID).Str("extractor", ec.Name).Err(err).Msg("extractor failed")
			}
			continue
		}

		if p.logger != nil {
			p.logger.Debug().
				Str("run", runID).
				Str("extractor", ec.Name).
				Int("components", len(part.Components)).
				Int("codeItems", len(part.CodeItems)).
				Int("relationships", len(part.Relationships)).
				Msg("extractor finished")
		}
		parts = append(parts, part)
	}

	merged := aggregate.Merge(ir.System{
		ID:          identity.NormalizeToID(p.cfg.System.Name),
		Name:        p.cfg.System.Name,
		Description: p.cfg.System.Description,
	}, parts)

	// An invalid final IR is the only thing that fails a run.
	if err := ir.CheckStructure(merged); err != nil {
		return nil, fmt.Errorf("aggregated IR is invalid: %w", err)
	}

	if p.logger != nil {
		p.logger.Info().
			Str("run", runID).
			Int("containers", len(merged.Containers)).
			Int("components", len(merged.Components)).
			Int("codeItems", len(merged.CodeItems)).
			Int("actors", len(merged.Actors)).
			Int("relationships", len(merged.Relationships)).
			Msg("aggregation complete")
	}
	return merged, nil
}
