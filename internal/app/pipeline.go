package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/okian/strokeheat/internal/adapters/codec"
	"github.com/okian/strokeheat/internal/adapters/mq/worker"
	"github.com/okian/strokeheat/internal/adapters/repository"
	"github.com/okian/strokeheat/internal/domain/analysis"
	"github.com/okian/strokeheat/internal/domain/model"
	"github.com/okian/strokeheat/pkg/metrics"
)

// JobAnalyzer adapts analysis.Analyzer to worker.Analyzer. Jobs without a
// decoded script are read from their path.
type JobAnalyzer struct {
	decoder  *codec.Decoder
	analyzer analysis.Analyzer
}

// NewJobAnalyzer creates a JobAnalyzer.
func NewJobAnalyzer(decoder *codec.Decoder, analyzer analysis.Analyzer) *JobAnalyzer {
	return &JobAnalyzer{decoder: decoder, analyzer: analyzer}
}

// Analyze implements worker.Analyzer.
func (a *JobAnalyzer) Analyze(ctx context.Context, j model.Job) (worker.Result, error) { //nolint:gocritic // Job arrives by value from the queue
	start := time.Now()
	script := j.Script
	if script == nil {
		s, err := a.load(j.Path)
		if err != nil {
			metrics.RecordDecodeError()
			return worker.Result{}, err
		}
		script = s
	}

	report, err := a.analyzer.Analyze(ctx, script)
	if err != nil {
		return worker.Result{}, err
	}
	metrics.RecordScriptAnalyzed()
	metrics.RecordGaps(report.Gaps)
	metrics.RecordAnalysisLatency(float64(time.Since(start).Microseconds()) / 1000)
	return worker.Result{Job: j, Script: script, Stats: report.Stats}, nil
}

func (a *JobAnalyzer) load(path string) (*model.Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	script, _, err := a.decoder.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return script, nil
}

// librarySink stores analyzed results as library records.
type librarySink struct {
	store repository.Store
}

func (s *librarySink) Store(ctx context.Context, r worker.Result) error {
	rec := repository.Record{
		ID:        r.Job.ID,
		Digest:    r.Job.Digest,
		Stats:     r.Stats,
		Actions:   r.Script.Actions,
		CreatedAt: r.Job.Submitted,
	}
	if meta := r.Script.Metadata; meta != nil {
		rec.Title = meta.Title
		rec.Creator = meta.Creator
		rec.Tags = meta.Tags
	}
	if rec.Title == "" {
		rec.Title = r.Job.Name
	}
	return s.store.Put(ctx, rec)
}
