package usecase

import (
	"context"
	"log/slog"

	"chemradar/internal/dedup"
	"chemradar/internal/ports"
	"chemradar/internal/store"
)

// PipelineDeps wires all driven adapters into the daily radar pipeline.
type PipelineDeps struct {
	Source    ports.ArticleSource
	Selector  *Selector
	Committer *Committer
	StorePath string
	Logger    *slog.Logger
}

// Pipeline implements the end-to-end daily workflow: fetch, dedupe, select
// through the screening layers, deliver, and commit delivery state.
type Pipeline struct {
	source    ports.ArticleSource
	selector  *Selector
	committer *Committer
	storePath string
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:    deps.Source,
		selector:  deps.Selector,
		committer: deps.Committer,
		storePath: deps.StorePath,
		logger:    logger,
	}
}

// Run executes one daily radar pass. Per-item and per-source failures are
// contained by the collaborators; only commit-phase errors propagate.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.source == nil || p.selector == nil || p.committer == nil {
		return nil
	}

	raw := p.source.FetchRecent(ctx)
	if len(raw) == 0 {
		p.logger.Info("no articles fetched")
		return nil
	}

	candidates := dedup.Dedupe(raw)
	p.logger.Info("candidates collected", "fetched", len(raw), "after_dedup", len(candidates))

	pushed := store.Load(p.storePath)
	p.logger.Debug("pushed history loaded", "identifiers", pushed.Len())

	buckets := p.selector.Select(ctx, candidates, pushed)
	selection := p.selector.Assemble(buckets)
	if len(selection) == 0 {
		p.logger.Info("no relevant papers found today")
		return nil
	}

	return p.committer.Commit(ctx, selection, pushed, p.storePath)
}
