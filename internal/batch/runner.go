// Package batch renders heatmap previews for funscript files on disk.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/strokeheat/internal/adapters/codec"
	"github.com/okian/strokeheat/internal/adapters/mq/queue"
	"github.com/okian/strokeheat/internal/adapters/mq/worker"
	"github.com/okian/strokeheat/internal/adapters/render"
	service "github.com/okian/strokeheat/internal/app"
	"github.com/okian/strokeheat/internal/domain/analysis"
	"github.com/okian/strokeheat/internal/domain/model"
	"github.com/okian/strokeheat/pkg/logger"
)

const (
	scriptExt           = ".funscript"
	directoryPermission = 0o750
)

// Run renders every script named by cfg and returns the run statistics.
// Per-file failures are counted in the report and do not abort the run.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	theme, err := render.ThemeByName(cfg.Theme)
	if err != nil {
		return nil, err
	}
	files, err := collect(cfg.Input)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Output, directoryPermission); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	log := logger.Get().Named("batch")
	report := &Report{Files: len(files), StartTime: time.Now()}
	log.Info(ctx, "starting batch render",
		logger.String("input", cfg.Input),
		logger.String("output", cfg.Output),
		logger.Int("files", len(files)),
		logger.Int("workers", cfg.Workers),
		logger.Bool("card", cfg.Card),
	)

	q := queue.NewInMemoryQueue(queue.WithCapacity(max(len(files), 1)))
	analyzer := service.NewJobAnalyzer(
		codec.NewDecoder(),
		analysis.NewInMemoryAnalyzer(analysis.WithStripSize(cfg.Width, cfg.Height)),
	)
	sink := &fileSink{
		renderer: render.NewRenderer(render.WithTheme(theme)),
		dir:      cfg.Output,
		width:    cfg.Width,
		height:   cfg.Height,
		card:     cfg.Card,
		logger:   log,
	}
	var failed atomic.Int64
	pool := worker.NewPool(cfg.Workers, q, analyzer, sink,
		worker.WithLogger(log),
		worker.WithErrorHandler(func(context.Context, model.Job, error) {
			failed.Add(1)
		}),
	)
	pool.Start(ctx)

	for _, path := range files {
		j := model.Job{
			ID:        uuid.NewString(),
			Name:      scriptName(path),
			Path:      path,
			Submitted: time.Now(),
		}
		if err := q.Enqueue(ctx, j); err != nil {
			_ = pool.Shutdown(ctx)
			return nil, fmt.Errorf("enqueue %s: %w", path, err)
		}
	}
	_ = q.Close()
	if err := pool.Wait(ctx); err != nil {
		return nil, err
	}

	report.Rendered = int(sink.rendered.Load())
	report.Failed = int(failed.Load())
	report.BytesWritten = sink.bytes.Load()
	report.Duration = time.Since(report.StartTime)

	log.Info(ctx, "batch finished",
		logger.Int("files", report.Files),
		logger.Int("rendered", report.Rendered),
		logger.Int("failed", report.Failed),
		logger.Int64("bytesWritten", report.BytesWritten),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}

// collect returns input itself when it is a file, or the sorted
// *.funscript files directly inside it when it is a directory.
func collect(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", input, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), scriptExt) {
			continue
		}
		files = append(files, filepath.Join(input, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// scriptName strips the directory and extension from path.
func scriptName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
