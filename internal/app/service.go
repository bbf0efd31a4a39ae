// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/strokeheat/internal/adapters/codec"
	"github.com/okian/strokeheat/internal/adapters/mq/queue"
	"github.com/okian/strokeheat/internal/adapters/mq/worker"
	"github.com/okian/strokeheat/internal/adapters/render"
	"github.com/okian/strokeheat/internal/adapters/repository"
	"github.com/okian/strokeheat/internal/domain/analysis"
	"github.com/okian/strokeheat/internal/domain/dedupe"
	"github.com/okian/strokeheat/internal/domain/model"
	"github.com/okian/strokeheat/internal/domain/motion"
	"github.com/okian/strokeheat/internal/domain/types"
	"github.com/okian/strokeheat/pkg/logger"
	"github.com/okian/strokeheat/pkg/metrics"
)

const (
	defaultQueueSize      = 10000
	defaultDedupeSize     = 50000
	defaultStripWidth     = 400
	defaultStripHeight    = 150
	defaultMaxStripHeight = 150
	defaultMaxDocBytes    = 16 << 20
)

// Preview kinds reported to metrics.
const (
	kindStrip = "strip"
	kindCard  = "card"
)

// Service implements the API dependencies for the script analysis system.
type Service struct {
	mu sync.RWMutex

	// Core components
	library  repository.Store
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	decoder  *codec.Decoder
	analyzer analysis.Analyzer
	renderer *render.Renderer
	pool     *worker.Pool

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	theme            render.Theme
	stripWidth       int
	stripHeight      int
	maxStripHeight   int
	sortActions      bool
	maxDocumentBytes int64

	// State
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU(),
		queueSize:        defaultQueueSize,
		dedupeSize:       defaultDedupeSize,
		theme:            render.Dark,
		stripWidth:       defaultStripWidth,
		stripHeight:      defaultStripHeight,
		maxStripHeight:   defaultMaxStripHeight,
		sortActions:      true,
		maxDocumentBytes: defaultMaxDocBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting strokeheat service...")

	if s.library == nil {
		s.library = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory library")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.decoder = codec.NewDecoder(
		codec.WithSortActions(s.sortActions),
		codec.WithMaxBytes(s.maxDocumentBytes),
	)
	s.analyzer = analysis.NewInMemoryAnalyzer(analysis.WithStripSize(s.stripWidth, s.stripHeight))
	s.renderer = render.NewRenderer(render.WithTheme(s.theme))

	s.pool = worker.NewPool(s.workerCount, s.queue,
		NewJobAnalyzer(s.decoder, s.analyzer),
		&librarySink{store: s.library},
		worker.WithErrorHandler(s.onJobError),
	)
	// Workers outlive the caller's context and stop on Stop.
	s.pool.Start(context.WithoutCancel(ctx))

	if n, err := s.library.Count(ctx); err == nil {
		metrics.UpdateLibrarySize(n)
	}

	s.started = true
	s.logger.Info(ctx, "strokeheat service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("theme", s.theme.Name),
	)
	return nil
}

// Stop drains the queue, stops the workers and closes the library.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping strokeheat service...")

	// Accepted jobs are finished before the library closes. Workers still
	// busy when ctx expires are stopped after their current job.
	if err := s.queue.Close(); err != nil {
		s.logger.Warn(ctx, "closing queue", logger.Error(err))
	}
	if err := s.pool.Wait(ctx); err != nil {
		s.logger.Warn(ctx, "queue not drained before deadline",
			logger.Int("pending", s.queue.Len(ctx)),
			logger.Error(err),
		)
		// ctx is already done; the pool bounds the wait for in-flight jobs.
		if err := s.pool.Shutdown(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}
	if err := s.library.Close(); err != nil {
		s.logger.Warn(ctx, "closing library", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "strokeheat service stopped")
}

func (s *Service) onJobError(ctx context.Context, j model.Job, err error) { //nolint:gocritic // signature fixed by worker.ErrorHandler
	s.logger.Warn(ctx, "analysis job failed",
		logger.String("id", j.ID),
		logger.String("name", j.Name),
		logger.Error(err),
	)
	// Allow the same document to be submitted again.
	if j.Digest != "" {
		s.deduper.Unrecord(ctx, j.Digest)
	}
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) decode(doc []byte) (*model.Script, error) {
	script, _, err := s.decoder.Read(bytes.NewReader(doc))
	if err != nil {
		metrics.RecordDecodeError()
		return nil, err
	}
	return script, nil
}

// Analyze decodes doc and returns its statistics synchronously.
func (s *Service) Analyze(ctx context.Context, doc []byte) (types.Analysis, error) {
	if err := s.ready(); err != nil {
		return types.Analysis{}, err
	}
	start := time.Now()
	script, err := s.decode(doc)
	if err != nil {
		return types.Analysis{}, err
	}
	report, err := s.analyzer.Analyze(ctx, script)
	if err != nil {
		return types.Analysis{}, err
	}
	metrics.RecordScriptAnalyzed()
	metrics.RecordGaps(report.Gaps)
	metrics.RecordAnalysisLatency(sinceMS(start))

	return types.Analysis{
		DurationMS:   report.Stats.DurationMS,
		Duration:     motion.FormatTime(report.Stats.DurationMS),
		ActionCount:  report.Stats.ActionCount,
		AverageSpeed: report.Stats.AverageSpeed,
		Gaps:         report.Gaps,
		Segments:     report.Segments,
		Summary:      report.Summary,
	}, nil
}

// Preview decodes doc and renders its heatmap strip as PNG. Zero sizes fall
// back to the configured strip size.
func (s *Service) Preview(ctx context.Context, doc []byte, width, height int) ([]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	script, err := s.decode(doc)
	if err != nil {
		return nil, err
	}
	return s.strip(ctx, script.Actions, width, height)
}

// Card decodes doc and renders the strip together with its summary text.
func (s *Service) Card(ctx context.Context, doc []byte, width int) ([]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	script, err := s.decode(doc)
	if err != nil {
		return nil, err
	}
	if width == 0 {
		width = s.stripWidth
	}

	start := time.Now()
	img, err := s.renderer.Card(script, motion.Summarize(script.Actions), width, s.stripHeight)
	if err != nil {
		return nil, fmt.Errorf("card: %w", err)
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	metrics.RecordRenderLatency(sinceMS(start))
	metrics.RecordPreviewRendered(kindCard)
	s.logger.Debug(ctx, "rendered card", logger.Int("width", width), logger.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (s *Service) strip(ctx context.Context, actions []model.Action, width, height int) ([]byte, error) {
	if width == 0 {
		width = s.stripWidth
	}
	if height == 0 {
		height = s.stripHeight
	}
	if height > s.maxStripHeight {
		height = s.maxStripHeight
	}

	start := time.Now()
	img, err := s.renderer.Strip(actions, render.StripOptions{Width: width, Height: height})
	if err != nil {
		return nil, fmt.Errorf("strip: %w", err)
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	metrics.RecordRenderLatency(sinceMS(start))
	metrics.RecordPreviewRendered(kindStrip)
	s.logger.Debug(ctx, "rendered strip",
		logger.Int("width", width),
		logger.Int("height", height),
		logger.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}

// SeenAndRecord atomically checks if a document digest was seen and records
// it if not. Returns true if the digest was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, digest string) bool {
	if s.deduper == nil {
		return false
	}
	seen := s.deduper.SeenAndRecord(ctx, digest)
	if seen {
		metrics.RecordScriptDuplicate()
	}
	return seen
}

// Unrecord forgets a digest so the document can be submitted again.
func (s *Service) Unrecord(ctx context.Context, digest string) {
	if s.deduper == nil {
		return
	}
	s.deduper.Unrecord(ctx, digest)
}

// Submit decodes doc and queues it for analysis into the library. The
// returned id identifies the library record once the job completes.
func (s *Service) Submit(ctx context.Context, name, digest string, doc []byte) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	script, err := s.decode(doc)
	if err != nil {
		return "", err
	}

	j := model.Job{
		ID:        uuid.NewString(),
		Digest:    digest,
		Name:      name,
		Script:    script,
		Submitted: time.Now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, j); err != nil {
		return "", err
	}
	s.logger.Debug(ctx, "queued script",
		logger.String("id", j.ID),
		logger.String("name", name),
		logger.Int("actions", len(script.Actions)),
	)
	return j.ID, nil
}

// TopN returns the n fastest scripts in the library.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	records, err := s.library.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	entries := make([]types.Entry, len(records))
	for i := range records {
		entries[i] = toEntry(&records[i])
	}
	return entries, nil
}

// Get returns one library entry with its rank.
func (s *Service) Get(ctx context.Context, id string) (types.Entry, error) {
	if err := s.ready(); err != nil {
		return types.Entry{}, err
	}
	rec, err := s.library.Get(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}
	return toEntry(&rec), nil
}

// StoredPreview renders the strip of a library entry.
func (s *Service) StoredPreview(ctx context.Context, id string, width, height int) ([]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rec, err := s.library.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.strip(ctx, rec.Actions, width, height)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"theme":       s.theme.Name,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["processed"] = s.pool.Processed()
		stats["seenDigests"] = s.deduper.Size()
		if n, err := s.library.Count(ctx); err == nil {
			stats["libraryCount"] = n
			metrics.UpdateLibrarySize(n)
		}
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

// Size returns the current number of remembered digests.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

func toEntry(r *repository.Record) types.Entry {
	return types.Entry{
		Rank:         r.Rank,
		ID:           r.ID,
		Title:        r.Title,
		Creator:      r.Creator,
		Tags:         r.Tags,
		DurationMS:   r.Stats.DurationMS,
		Duration:     motion.FormatTime(r.Stats.DurationMS),
		ActionCount:  r.Stats.ActionCount,
		AverageSpeed: r.Stats.AverageSpeed,
		CreatedAt:    r.CreatedAt,
	}
}

func sinceMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
