package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/openparl/parlsearch/internal/core/domain"
	"github.com/openparl/parlsearch/internal/core/ports/driven"
	"github.com/openparl/parlsearch/internal/core/ports/driving"
	"github.com/openparl/parlsearch/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.Ingestor = (*Orchestrator)(nil)

// DefaultChunkSize bounds how many normalised documents accumulate
// before a chunk is dispatched downstream.
const DefaultChunkSize = 500

// DefaultChunkConcurrency bounds how many chunks embed and write in
// parallel while fetching continues.
const DefaultChunkConcurrency = 4

// sourceSet bundles the per-source collaborators.
type sourceSet struct {
	upstream   driven.UpstreamSource
	normaliser driven.Normaliser
	enrichers  []driven.Enricher
	collection string
}

// Orchestrator runs the fetch, normalise, embed, write pipeline for one
// source at a time in bounded-memory chunks.
type Orchestrator struct {
	sources     map[domain.Source]sourceSet
	batcher     *Batcher
	index       driven.SearchIndex
	dims        int
	chunkSize   int
	concurrency int
	progress    domain.ProgressFunc
	now         func() time.Time

	running atomic.Bool
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithChunkSize overrides the per-chunk document bound.
func WithChunkSize(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithChunkConcurrency overrides how many chunks process in parallel.
func WithChunkConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithProgress attaches a progress callback, invoked with a run
// snapshot after each chunk completes.
func WithProgress(fn domain.ProgressFunc) OrchestratorOption {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithClock overrides the time source used to resolve relative dates.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an ingestion orchestrator.
func NewOrchestrator(batcher *Batcher, index driven.SearchIndex, dims int, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		sources:     make(map[domain.Source]sourceSet),
		batcher:     batcher,
		index:       index,
		dims:        dims,
		chunkSize:   DefaultChunkSize,
		concurrency: DefaultChunkConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RegisterSource wires one upstream with its normaliser, enrichers and
// target collection.
func (o *Orchestrator) RegisterSource(upstream driven.UpstreamSource, normaliser driven.Normaliser, collection string, enrichers ...driven.Enricher) {
	o.sources[upstream.Source()] = sourceSet{
		upstream:   upstream,
		normaliser: normaliser,
		enrichers:  enrichers,
		collection: collection,
	}
}

// Run executes one ingestion run. Only one run may be active at a time;
// a second concurrent call fails with domain.ErrRunInProgress.
func (o *Orchestrator) Run(ctx context.Context, req domain.IngestionRequest) (domain.Summary, error) {
	if !o.running.CompareAndSwap(false, true) {
		return domain.Summary{}, domain.ErrRunInProgress
	}
	defer o.running.Store(false)

	run := domain.NewIngestionRun(uuid.NewString(), req.Source)

	set, ok := o.sources[req.Source]
	if !ok {
		run.SetState(domain.RunFailed)
		return run.Summary(), fmt.Errorf("unknown source %q: %w", req.Source, domain.ErrInvalidQuery)
	}

	dateRange, err := domain.ResolveDateRange(req.From, req.To, o.now())
	if err != nil {
		run.SetState(domain.RunFailed)
		return run.Summary(), err
	}
	run.Range = dateRange
	logger.Info("Run %s: ingesting %s for %s", run.ID, req.Source, dateRange)

	if err := o.index.EnsureCollection(ctx, set.collection, o.dims); err != nil {
		run.SetState(domain.RunFailed)
		return run.Summary(), err
	}

	err = o.pipeline(ctx, run, set, dateRange)
	if err != nil {
		return run.Summary(), err
	}

	run.SetState(domain.RunCompleted)
	summary := run.Summary()
	logger.Info("Run %s: completed, %d fetched, %d written, %d failed, %d skipped",
		run.ID, summary.Fetched, summary.Written, summary.Failed, len(summary.Skipped))
	return summary, nil
}

// pipeline pages through the upstream, normalising inline and handing
// full chunks to bounded parallel workers for enrichment, embedding and
// writing.
func (o *Orchestrator) pipeline(ctx context.Context, run *domain.IngestionRun, set sourceSet, dateRange domain.DateRange) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.concurrency)

	// seen deduplicates identity keys across fetch phases. The questions
	// API returns a record in both the tabled and the answered pass when
	// the date range covers both events. Only the fetch loop touches it.
	seen := make(map[string]struct{})
	var chunk []domain.Document

	dispatch := func() {
		if len(chunk) == 0 {
			return
		}
		docs := chunk
		chunk = nil
		group.Go(func() error {
			o.processChunk(groupCtx, run, set, docs)
			return nil
		})
	}

	run.SetState(domain.RunFetching)

	var cursor *domain.Cursor
	for {
		if err := ctx.Err(); err != nil {
			// In-flight workers must finish before the terminal state is
			// set, or a late SetState from processChunk would mask it.
			group.Wait()
			run.MarkPartial(cursor)
			run.SetState(domain.RunFailed)
			return err
		}

		page, err := set.upstream.FetchPage(ctx, dateRange, cursor)
		if err != nil {
			dispatch()
			group.Wait()
			if errors.Is(err, domain.ErrUpstreamUnavailable) {
				// Everything fetched so far is still processed; the
				// cursor records where a re-run should pick up.
				run.MarkPartial(cursor)
				run.SetState(domain.RunCompleted)
				return err
			}
			run.SetState(domain.RunFailed)
			return err
		}

		run.AddFetched(len(page.Records))

		for _, raw := range page.Records {
			doc, skip := set.normaliser.Normalise(raw)
			if skip != nil {
				run.AddSkipped(*skip)
				continue
			}
			if _, dup := seen[doc.DocumentURI()]; dup {
				continue
			}
			seen[doc.DocumentURI()] = struct{}{}
			run.AddNormalized(1)

			chunk = append(chunk, doc)
			if len(chunk) >= o.chunkSize {
				dispatch()
			}
		}

		cursor = page.Next
		if cursor == nil {
			break
		}
	}

	dispatch()
	return group.Wait()
}

// processChunk enriches, embeds and writes one chunk. Failures are
// recorded on the run; they never abort other chunks. The run state the
// workers set is a coarse progress signal, not a per-chunk position.
func (o *Orchestrator) processChunk(ctx context.Context, run *domain.IngestionRun, set sourceSet, docs []domain.Document) {
	run.SetState(domain.RunNormalizing)

	for i, doc := range docs {
		for _, enricher := range set.enrichers {
			enriched, err := enricher.Enrich(ctx, doc)
			if err != nil {
				logger.Debug("Enrichment of %s failed: %v", doc.DocumentURI(), err)
				continue
			}
			doc = enriched
		}
		docs[i] = doc
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.DocumentURI()
	}

	stored, err := o.index.StoredHashes(ctx, set.collection, ids)
	if err != nil {
		// Without stored hashes everything re-embeds; correct, just
		// slower.
		logger.Warn("Stored hash lookup failed, re-embedding chunk: %v", err)
		stored = map[string]string{}
	}

	run.SetState(domain.RunEmbedding)
	embedded, unchanged, failures := o.batcher.EmbedDocuments(ctx, docs, stored)
	run.AddEmbedded(len(embedded))
	for _, failure := range failures {
		run.AddFailed(failure.Docs, failure.Err.Error())
	}
	if unchanged > 0 {
		logger.Debug("Chunk: %d documents unchanged, skipped", unchanged)
	}

	if len(embedded) > 0 {
		run.SetState(domain.RunWriting)
		result, err := o.index.BulkUpsert(ctx, set.collection, embedded)
		if err != nil {
			run.AddFailed(len(embedded), err.Error())
		} else {
			run.AddWritten(result.Written)
			for _, item := range result.Failed {
				run.AddFailed(1, fmt.Sprintf("%s: %s", item.ID, item.Reason))
			}
		}
	}

	if o.progress != nil {
		o.progress(run.Summary())
	}
}
