package chunkframe

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/chunkframe/internal/pipeline"
	"github.com/ajitpratap0/chunkframe/pkg/columnar"
	"github.com/ajitpratap0/chunkframe/pkg/config"
	"github.com/ajitpratap0/chunkframe/pkg/logger"
	"github.com/ajitpratap0/chunkframe/pkg/observability"
	"github.com/ajitpratap0/chunkframe/pkg/parseerrors"
	"github.com/ajitpratap0/chunkframe/pkg/source"
)

var (
	tracingOnce     sync.Once
	tracingShutdown func(context.Context) error
	tracingErr      error
)

// Parse reads every chunk of src and returns the parsed Frame. src is not
// closed. A nil cfg uses config.NewDefault; a nil log uses the global logger
// at cfg.Observability.LogLevel.
func Parse(ctx context.Context, src source.Source, cfg *config.Config, log *zap.Logger) (*columnar.Frame, error) {
	if cfg == nil {
		cfg = config.NewDefault("chunkframe")
	}
	log, err := setup(cfg, log)
	if err != nil {
		return nil, err
	}

	job, err := pipeline.NewJob(src, cfg, log.With(zap.String("name", cfg.Name)))
	if err != nil {
		return nil, err
	}
	return job.Run(ctx)
}

// ParseURI opens cfg.Source.URI (a local path, s3://bucket/key or
// gs://bucket/object), decodes it from cfg.Parse.Encoding and parses it.
func ParseURI(ctx context.Context, cfg *config.Config, log *zap.Logger) (*columnar.Frame, error) {
	if cfg == nil {
		return nil, parseerrors.New(parseerrors.ErrorTypeConfig, "configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, parseerrors.Wrap(err, parseerrors.ErrorTypeConfig, "invalid configuration")
	}
	log, err := setup(cfg, log)
	if err != nil {
		return nil, err
	}

	src, err := source.Open(ctx, cfg.Source, cfg.Parse.Encoding)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Warn("failed to close source", zap.String("uri", cfg.Source.URI), zap.Error(cerr))
		}
	}()

	ctx = context.WithValue(ctx, logger.SourceKey, cfg.Source.URI)
	return Parse(ctx, src, cfg, log)
}

// Shutdown flushes spans exported since tracing was enabled
func Shutdown(ctx context.Context) error {
	if tracingShutdown == nil {
		return nil
	}
	return tracingShutdown(ctx)
}

func setup(cfg *config.Config, log *zap.Logger) (*zap.Logger, error) {
	if cfg.Observability.EnableTracing {
		tracingOnce.Do(func() {
			tc := observability.DefaultTracingConfig()
			tc.SamplingRate = cfg.Observability.TracingSampleRate
			tracingShutdown, tracingErr = observability.InitTracing(tc)
		})
		if tracingErr != nil {
			return nil, parseerrors.Wrap(tracingErr, parseerrors.ErrorTypeConfig, "failed to initialize tracing")
		}
	}
	if log != nil {
		return log, nil
	}
	if err := logger.Init(logger.Config{Level: cfg.Observability.LogLevel}); err != nil {
		return nil, parseerrors.Wrap(err, parseerrors.ErrorTypeConfig, "failed to initialize logger")
	}
	return logger.Get(), nil
}
