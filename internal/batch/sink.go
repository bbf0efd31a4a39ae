package batch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/okian/strokeheat/internal/adapters/mq/worker"
	"github.com/okian/strokeheat/internal/adapters/render"
	"github.com/okian/strokeheat/internal/domain/summary"
	"github.com/okian/strokeheat/pkg/logger"
	"github.com/okian/strokeheat/pkg/metrics"
)

const filePermission = 0o644

// fileSink writes the preview image and summary text of each result.
type fileSink struct {
	renderer *render.Renderer
	dir      string
	width    int
	height   int
	card     bool

	rendered atomic.Int64
	bytes    atomic.Int64
	logger   logger.Logger
}

func (s *fileSink) Store(ctx context.Context, r worker.Result) error {
	var (
		img  *image.RGBA
		err  error
		kind = "strip"
	)
	if s.card {
		kind = "card"
		img, err = s.renderer.Card(r.Script, r.Stats, s.width, s.height)
	} else {
		img, err = s.renderer.Strip(r.Script.Actions, render.StripOptions{Width: s.width, Height: s.height})
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", r.Job.Name, err)
	}

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		return err
	}
	text := summary.Render(r.Script, r.Stats)

	pngPath := filepath.Join(s.dir, r.Job.Name+".png")
	if err := os.WriteFile(pngPath, buf.Bytes(), filePermission); err != nil {
		return fmt.Errorf("write %s: %w", pngPath, err)
	}
	txtPath := filepath.Join(s.dir, r.Job.Name+".txt")
	if err := os.WriteFile(txtPath, []byte(text), filePermission); err != nil {
		return fmt.Errorf("write %s: %w", txtPath, err)
	}

	s.rendered.Add(1)
	s.bytes.Add(int64(buf.Len() + len(text)))
	metrics.RecordPreviewRendered(kind)
	s.logger.Debug(ctx, "rendered",
		logger.String("name", r.Job.Name),
		logger.Int("actions", r.Stats.ActionCount),
		logger.Float64("averageSpeed", r.Stats.AverageSpeed),
	)
	return nil
}
