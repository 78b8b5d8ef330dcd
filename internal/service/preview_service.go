// Package service runs the compiler, explainer, linter and mock engine
// together for one query state.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/satishbabariya/querycraft/internal/adapters/telemetry"
	"github.com/satishbabariya/querycraft/internal/core/query/cache"
	"github.com/satishbabariya/querycraft/internal/core/query/compiler"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/query/engine"
	"github.com/satishbabariya/querycraft/internal/core/query/explainer"
	"github.com/satishbabariya/querycraft/internal/core/query/lint"
	"github.com/satishbabariya/querycraft/internal/debug"
	"golang.org/x/sync/errgroup"
)

// ErrNoSource is returned by Execute when the service has no row source.
var ErrNoSource = errors.New("no dataset configured")

// Analysis is everything derived from a state without touching data.
type Analysis struct {
	Fingerprint string           `json:"fingerprint"`
	SQL         string           `json:"sql"`
	Clauses     []domain.Clause  `json:"clauses"`
	Explanation string           `json:"explanation"`
	Lines       []explainer.Line `json:"lines"`
	Hints       []lint.Hint      `json:"hints"`
}

// Preview is an analysis plus the simulated rows.
type Preview struct {
	RunID string `json:"runId"`
	Analysis
	Rows       []domain.Row `json:"rows"`
	MatchCount int          `json:"matchCount"`
	Capped     bool         `json:"capped"`
	// Cached is set when the analysis came from the cache.
	Cached bool `json:"cached"`
}

// PreviewService computes previews. It is safe for concurrent use.
type PreviewService struct {
	source    domain.RowSource
	engine    *engine.Engine
	cache     *cache.LRU[Analysis]
	telemetry telemetry.Telemetry
	newID     func() string
}

// Option configures a PreviewService.
type Option func(*PreviewService)

// WithEngine sets the engine, and with it the preview cap.
func WithEngine(e *engine.Engine) Option {
	return func(s *PreviewService) { s.engine = e }
}

// WithCache memoises analyses in c.
func WithCache(c *cache.LRU[Analysis]) Option {
	return func(s *PreviewService) { s.cache = c }
}

// WithTelemetry reports stage durations to t.
func WithTelemetry(t telemetry.Telemetry) Option {
	return func(s *PreviewService) { s.telemetry = t }
}

// WithRunIDs replaces the run ID generator.
func WithRunIDs(f func() string) Option {
	return func(s *PreviewService) { s.newID = f }
}

// NewPreviewService creates a service reading rows from source. A nil source
// limits the service to analysis.
func NewPreviewService(source domain.RowSource, opts ...Option) *PreviewService {
	s := &PreviewService{
		source:    source,
		engine:    engine.New(),
		telemetry: telemetry.NewNoopTelemetry(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the configured row source.
func (s *PreviewService) Source() domain.RowSource {
	return s.source
}

// Analyze compiles, explains and lints state concurrently. The boolean
// reports a cache hit.
func (s *PreviewService) Analyze(ctx context.Context, state domain.State) (Analysis, bool, error) {
	fp := state.Fingerprint()
	key := cache.Key("analysis", fp)
	if s.cache != nil {
		if a, ok := s.cache.Get(key); ok {
			s.record(ctx, "", telemetry.StageCompile, state, 0, true, true, 0)
			return a, true, nil
		}
	}

	a := Analysis{Fingerprint: fp}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.stage(gctx, telemetry.StageCompile, state, func() {
			stmt := compiler.Render(state)
			a.SQL = stmt.SQL
			a.Clauses = stmt.Clauses
		})
	})
	g.Go(func() error {
		return s.stage(gctx, telemetry.StageExplain, state, func() {
			a.Lines = explainer.Describe(state)
			a.Explanation = explainer.Explain(state)
		})
	})
	g.Go(func() error {
		return s.stage(gctx, telemetry.StageLint, state, func() {
			a.Hints = lint.Lint(state)
		})
	})
	if err := g.Wait(); err != nil {
		return Analysis{}, false, err
	}

	if s.cache != nil {
		s.cache.Set(key, a, 0)
	}
	return a, false, nil
}

// stage runs one pure step unless ctx is already done, recording its
// duration.
func (s *PreviewService) stage(ctx context.Context, stage telemetry.Stage, state domain.State, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	fn()
	s.record(ctx, "", stage, state, time.Since(start), true, false, 0)
	return nil
}

// Execute simulates state over the configured source.
func (s *PreviewService) Execute(ctx context.Context, state domain.State) (engine.Result, error) {
	return s.execute(ctx, "", state, s.source)
}

// ExecuteRows simulates state over inline rows.
func (s *PreviewService) ExecuteRows(ctx context.Context, state domain.State, rows []domain.Row) (engine.Result, error) {
	return s.execute(ctx, "", state, domain.StaticRows{state.Table: rows})
}

func (s *PreviewService) execute(ctx context.Context, runID string, state domain.State, source domain.RowSource) (engine.Result, error) {
	if source == nil {
		return engine.Result{}, ErrNoSource
	}
	start := time.Now()
	res, err := s.engine.Run(ctx, state, &instrumented{source: source, telemetry: s.telemetry})
	s.record(ctx, runID, telemetry.StageExecute, state, time.Since(start), err == nil, false, len(res.Rows))
	if err != nil {
		s.telemetry.RecordError(ctx, telemetry.ErrorInfo{Error: err, RunID: runID, Stage: telemetry.StageExecute, Table: state.Table})
		return engine.Result{}, err
	}
	return res, nil
}

// Preview analyses and executes state concurrently from one snapshot.
func (s *PreviewService) Preview(ctx context.Context, state domain.State) (*Preview, error) {
	return s.preview(ctx, state, s.source)
}

// PreviewRows is Preview over inline rows for the state's table.
func (s *PreviewService) PreviewRows(ctx context.Context, state domain.State, rows []domain.Row) (*Preview, error) {
	return s.preview(ctx, state, domain.StaticRows{state.Table: rows})
}

func (s *PreviewService) preview(ctx context.Context, state domain.State, source domain.RowSource) (*Preview, error) {
	state = state.Clone()
	p := &Preview{RunID: s.newID()}
	log := debug.With("run", p.RunID)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, cached, err := s.Analyze(gctx, state)
		if err != nil {
			return err
		}
		p.Analysis, p.Cached = a, cached
		return nil
	})
	g.Go(func() error {
		if source == nil {
			return nil
		}
		res, err := s.execute(gctx, p.RunID, state, source)
		if err != nil {
			return fmt.Errorf("execute: %w", err)
		}
		p.Rows, p.MatchCount, p.Capped = res.Rows, res.MatchCount, res.Capped
		return nil
	})
	err := g.Wait()
	s.record(ctx, p.RunID, telemetry.StagePreview, state, time.Since(start), err == nil, false, len(p.Rows))
	if err != nil {
		log.Warn("Preview failed", "table", state.Table, "error", err)
		return nil, err
	}
	if p.Rows == nil {
		p.Rows = []domain.Row{}
	}
	log.Debug("Preview ready", "table", state.Table, "sql", p.SQL, "rows", len(p.Rows), "matched", p.MatchCount, "cached", p.Cached)
	return p, nil
}

// Tables lists tables when the source can enumerate them.
func (s *PreviewService) Tables(ctx context.Context) ([]string, error) {
	lister, ok := s.source.(interface {
		Tables(ctx context.Context) ([]string, error)
	})
	if !ok {
		return []string{}, nil
	}
	return lister.Tables(ctx)
}

// CacheStats reports cache activity; zero when caching is off.
func (s *PreviewService) CacheStats() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	return s.cache.Stats()
}

func (s *PreviewService) record(ctx context.Context, runID string, stage telemetry.Stage, state domain.State, d time.Duration, ok, cached bool, rows int) {
	s.telemetry.RecordStage(ctx, telemetry.StageInfo{
		RunID:     runID,
		Stage:     stage,
		QueryType: string(state.Type()),
		Duration:  d,
		Success:   ok,
		Cached:    cached,
		Rows:      rows,
	})
}

// instrumented reports each table load to telemetry.
type instrumented struct {
	source    domain.RowSource
	telemetry telemetry.Telemetry
}

func (i *instrumented) Rows(ctx context.Context, table string) ([]domain.Row, bool, error) {
	start := time.Now()
	rows, ok, err := i.source.Rows(ctx, table)
	name := "static"
	if n, has := i.source.(interface{ Name() string }); has {
		name = n.Name()
	}
	i.telemetry.RecordDataset(ctx, telemetry.DatasetInfo{
		Source:   name,
		Table:    table,
		Duration: time.Since(start),
		Found:    ok,
		Rows:     len(rows),
	})
	return rows, ok, err
}
