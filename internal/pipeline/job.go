// Package pipeline runs a parse job: it reads the chunks of a byte source in
// parallel and turns them into a Frame.
//
// # Phases
//
// A job runs seven phases separated by barriers:
//   - scan: read every chunk and split it into rows (parallel)
//   - reconcile: stitch rows that cross chunk boundaries (serial)
//   - setup: pick the format, separator and header from a row sample
//   - vote: classify every token of every chunk (parallel)
//   - merge: combine chunk votes pairwise into one vote (parallel tree)
//     and build the Schema from it
//   - materialize: convert each chunk into column segments (parallel)
//   - assemble: concatenate segments in chunk order
//
// Workers only share read-only state (the setup, the Schema). Any chunk read
// failure cancels the job and no partial Frame is returned.
//
// # Basic Usage
//
//	job, err := pipeline.NewJob(src, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	frame, err := job.Run(ctx)
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/chunkframe/pkg/columnar"
	"github.com/ajitpratap0/chunkframe/pkg/config"
	"github.com/ajitpratap0/chunkframe/pkg/logger"
	"github.com/ajitpratap0/chunkframe/pkg/metrics"
	"github.com/ajitpratap0/chunkframe/pkg/observability"
	"github.com/ajitpratap0/chunkframe/pkg/parseerrors"
	"github.com/ajitpratap0/chunkframe/pkg/parser"
	"github.com/ajitpratap0/chunkframe/pkg/schema"
	"github.com/ajitpratap0/chunkframe/pkg/source"
)

// Phase names used for spans, metrics and logs
const (
	PhaseScan        = "scan"
	PhaseReconcile   = "reconcile"
	PhaseSetup       = "setup"
	PhaseVote        = "vote"
	PhaseMerge       = "merge"
	PhaseMaterialize = "materialize"
	PhaseAssemble    = "assemble"
)

// Job parses one Source into a Frame. Run may be called once.
type Job struct {
	ID string

	src     source.Source
	parse   config.ParseConfig
	workers int

	base    *zap.Logger
	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  *observability.JobTracer
}

// NewJob validates cfg and prepares a job over src. A nil logger uses the
// global logger.
func NewJob(src source.Source, cfg *config.Config, log *zap.Logger) (*Job, error) {
	if src == nil {
		return nil, parseerrors.New(parseerrors.ErrorTypeConfig, "source is required")
	}
	if cfg == nil {
		cfg = config.NewDefault("chunkframe")
	}
	if err := cfg.Parse.Validate(); err != nil {
		return nil, parseerrors.Wrap(err, parseerrors.ErrorTypeConfig, "invalid parse configuration")
	}
	if cfg.Performance.Workers < 0 {
		return nil, parseerrors.New(parseerrors.ErrorTypeConfig, "workers cannot be negative")
	}
	if log == nil {
		log = logger.Get()
	}

	id := uuid.New().String()
	return &Job{
		ID:      id,
		src:     src,
		parse:   cfg.Parse,
		workers: cfg.Performance.GetWorkers(),
		base:    log,
		logger:  log,
		metrics: metrics.NewCollector("", cfg.Observability.EnableMetrics),
		tracer:  observability.NewJobTracer(id, nil),
	}, nil
}

// Phases returns how long each finished phase took
func (j *Job) Phases() map[string]time.Duration {
	return j.metrics.Phases()
}

// Run executes every phase and returns the assembled Frame
func (j *Job) Run(ctx context.Context) (*columnar.Frame, error) {
	start := time.Now()
	ctx = logger.WithJobID(ctx, j.ID)
	j.logger = logger.WithContext(ctx, j.base)

	j.logger.Info("starting parse job",
		zap.Int("chunks", j.src.NumChunks()),
		zap.Int("workers", j.workers))

	ctx, span := j.tracer.StartJob(ctx)
	frame, err := j.run(ctx)
	if frame != nil {
		span.SetAttribute("rows", frame.NumRows())
		span.SetAttribute("columns", frame.NumCols())
	}
	span.End(err)

	if err != nil {
		status := "error"
		if parseerrors.IsType(err, parseerrors.ErrorTypeCanceled) {
			status = "canceled"
		}
		j.metrics.Finish(status)
		j.logger.Error("parse job failed",
			zap.String("error_type", string(parseerrors.TypeOf(err))),
			zap.Error(err))
		return nil, err
	}

	j.metrics.Finish("success")
	j.logger.Info("parse job finished",
		zap.Int("rows", frame.NumRows()),
		zap.Int("columns", frame.NumCols()),
		zap.Int64("bytes", frame.Stats.Bytes),
		zap.Int("stitched", frame.Stats.Stitched),
		zap.Int64("recovered", frame.Stats.Recovered()),
		zap.Duration("duration", time.Since(start)))
	return frame, nil
}

func (j *Job) run(ctx context.Context) (*columnar.Frame, error) {
	quote := j.parse.QuoteByte()
	stats := columnar.ParseStats{Chunks: j.src.NumChunks()}

	var frags []parser.Fragment
	err := j.phase(ctx, PhaseScan, func(ctx context.Context) error {
		var err error
		frags, stats.Bytes, err = j.scan(ctx, quote)
		return err
	})
	if err != nil {
		return nil, err
	}

	var blocks []parser.RowBlock
	err = j.phase(ctx, PhaseReconcile, func(ctx context.Context) error {
		var rs parser.ReconcileStats
		blocks, rs = parser.Reconcile(frags, quote)
		stats.Stitched, stats.Rescanned = rs.Stitched, rs.Rescanned
		return canceled(ctx)
	})
	if err != nil {
		return nil, err
	}

	var setup parser.Setup
	err = j.phase(ctx, PhaseSetup, func(ctx context.Context) error {
		setup, blocks = parser.GuessSetup(blocks, parser.SetupOptionsFrom(&j.parse))
		j.metrics.SetFormat(setup.Format.String())
		j.logger.Info("input setup guessed",
			zap.Stringer("format", setup.Format),
			zap.String("separator", string(setup.Separator)),
			zap.Int("header_columns", len(setup.Names)),
			zap.Int("rows", parser.CountRows(blocks)))
		return canceled(ctx)
	})
	if err != nil {
		return nil, err
	}

	var votes []*schema.ChunkVote
	err = j.phase(ctx, PhaseVote, func(ctx context.Context) error {
		var err error
		votes, err = j.vote(ctx, setup, blocks)
		return err
	})
	if err != nil {
		return nil, err
	}

	var s *schema.Schema
	err = j.phase(ctx, PhaseMerge, func(ctx context.Context) error {
		merged, err := mergeTree(ctx, votes, j.parse.MaxCategoricalLevels, j.workers)
		if err != nil {
			return err
		}
		s, err = schema.Build(merged, schema.Options{
			Format:               setup.Format,
			Separator:            setup.Separator,
			Names:                setup.Names,
			Forced:               j.parse.ForcedColumns(),
			MaxCategoricalLevels: j.parse.MaxCategoricalLevels,
			Logger:               j.logger,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, c := range s.Columns {
		if c.Type == schema.Categorical {
			j.metrics.Levels(c.Name, c.Domain.Len())
		}
	}

	var segments []columnar.Segment
	err = j.phase(ctx, PhaseMaterialize, func(ctx context.Context) error {
		var err error
		var chunkStats columnar.ParseStats
		segments, chunkStats, err = j.materialize(ctx, s, setup, blocks)
		stats.Add(chunkStats)
		return err
	})
	if err != nil {
		return nil, err
	}

	var frame *columnar.Frame
	err = j.phase(ctx, PhaseAssemble, func(context.Context) error {
		var err error
		frame, err = columnar.Assemble(s, segments, stats)
		return err
	})
	if err != nil {
		return nil, err
	}

	j.metrics.Rows(frame.NumRows())
	j.metrics.Recovered(metrics.KindMalformedNumeric, stats.MalformedNumeric)
	j.metrics.Recovered(metrics.KindRowWidth, stats.RowWidthMismatch)
	j.metrics.Recovered(metrics.KindUnterminatedQuote, stats.UnterminatedQuote)
	j.metrics.Recovered(metrics.KindUnknownLevel, stats.UnknownLevel)
	j.metrics.Recovered(metrics.KindMalformedPair, stats.MalformedPairs)
	return frame, nil
}

// phase runs fn inside a span and records its duration
func (j *Job) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	timer := metrics.NewTimer(name)
	err := j.tracer.TracePhase(ctx, name, fn)
	d := j.metrics.ObservePhase(timer)
	j.logger.Debug("phase finished", zap.String("phase", name), zap.Duration("duration", d))
	return err
}

func (j *Job) scan(ctx context.Context, quote byte) ([]parser.Fragment, int64, error) {
	n := j.src.NumChunks()
	frags := make([]parser.Fragment, n)
	sizes := make([]int64, n)
	throughput := metrics.NewThroughputTracker()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cctx := logger.WithChunk(gctx, i)
			c, err := j.src.ReadChunk(cctx, i)
			if err != nil {
				if gctx.Err() == nil {
					logger.WithContext(cctx, j.base).Warn("chunk read failed", zap.Error(err))
				}
				return &chunkReadError{index: i, err: err}
			}
			frags[i] = parser.Scan(c.Data, i == 0, false, quote)
			sizes[i] = int64(len(c.Data))
			throughput.Increment(sizes[i])
			j.metrics.Chunk(len(c.Data))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, readError(ctx, err)
	}

	var total int64
	for _, sz := range sizes {
		total += sz
	}
	j.logger.Debug("chunks scanned",
		zap.Int("chunks", n),
		zap.Int64("bytes", total),
		zap.Float64("bytes_per_second", throughput.Rate()))
	return frags, total, nil
}

// canceled reports a caller cancellation between serial phases
func canceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return parseerrors.Wrap(err, parseerrors.ErrorTypeCanceled, "parse job canceled")
	}
	return nil
}

// readError classifies a scan failure. Cancellation by the caller wins over
// whatever the failing read reported.
func readError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return parseerrors.Wrap(ctx.Err(), parseerrors.ErrorTypeCanceled, "parse job canceled")
	}
	var chunkErr *chunkReadError
	if errors.As(err, &chunkErr) {
		return parseerrors.Wrap(chunkErr.err, parseerrors.ErrorTypeChunkRead, "failed to read chunk").
			WithDetail("chunk", chunkErr.index)
	}
	return parseerrors.Wrap(err, parseerrors.ErrorTypeChunkRead, "failed to read chunk")
}

type chunkReadError struct {
	index int
	err   error
}

func (e *chunkReadError) Error() string { return e.err.Error() }
func (e *chunkReadError) Unwrap() error { return e.err }

func (j *Job) vote(ctx context.Context, setup parser.Setup, blocks []parser.RowBlock) ([]*schema.ChunkVote, error) {
	guesser := parser.NewGuesser(setup, j.parse.NAStrings, j.parse.MaxCategoricalLevels, j.logger)
	votes := make([]*schema.ChunkVote, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)
	for i := range blocks {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			votes[i] = guesser.Vote(blocks[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, parseerrors.Wrap(err, parseerrors.ErrorTypeCanceled, "parse job canceled")
	}
	return votes, nil
}

// mergeTree merges votes pairwise, level by level, until one remains
func mergeTree(ctx context.Context, votes []*schema.ChunkVote, maxLevels, workers int) (*schema.ChunkVote, error) {
	if len(votes) == 0 {
		return schema.NewChunkVote(0), nil
	}
	for len(votes) > 1 {
		next := make([]*schema.ChunkVote, (len(votes)+1)/2)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := range next {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if 2*i+1 < len(votes) {
					next[i] = schema.MergeVotes(maxLevels, votes[2*i], votes[2*i+1])
				} else {
					next[i] = votes[2*i]
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, parseerrors.Wrap(err, parseerrors.ErrorTypeCanceled, "parse job canceled")
		}
		votes = next
	}
	return votes[0], nil
}

func (j *Job) materialize(ctx context.Context, s *schema.Schema, setup parser.Setup, blocks []parser.RowBlock) ([]columnar.Segment, columnar.ParseStats, error) {
	m := parser.NewMaterializer(s, setup.Quote, j.parse.NAStrings, j.logger)
	segments := make([]columnar.Segment, len(blocks))
	perChunk := make([]columnar.ParseStats, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)
	for i := range blocks {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return parseerrors.Wrap(err, parseerrors.ErrorTypeCanceled, "parse job canceled")
			}
			seg, st, err := m.Chunk(blocks[i])
			if err != nil {
				return err
			}
			segments[i], perChunk[i] = seg, st
			return nil
		})
	}
	var total columnar.ParseStats
	if err := g.Wait(); err != nil {
		return nil, total, err
	}
	for _, st := range perChunk {
		total.Add(st)
	}
	return segments, total, nil
}
