package heatmap

import (
	"image"
	"testing"

	"github.com/okian/strokeheat/internal/domain/model"
)

func TestWindow_PushEvictsOldest(t *testing.T) {
	w := newWindow(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w = w.push(v)
	}
	if w.len() != 3 {
		t.Fatalf("expected 3 samples, got %d", w.len())
	}
	if got := w.mean(); got != 4 {
		t.Errorf("expected mean 4, got %v", got)
	}
}

func TestWindow_PushDoesNotAlias(t *testing.T) {
	base := newWindow(2).push(10)
	a := base.push(20)
	b := base.push(30)
	if a.mean() != 15 || b.mean() != 20 {
		t.Errorf("windows aliased: a=%v b=%v", a.mean(), b.mean())
	}
	if base.len() != 1 {
		t.Errorf("base window mutated: len=%d", base.len())
	}
}

func TestWindow_EmptyMean(t *testing.T) {
	if got := newWindow(5).mean(); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestScanState_PositionWindowBounded(t *testing.T) {
	s := freshState(image.Point{})
	prev := model.Action{}
	for i := 1; i <= 15; i++ {
		cur := model.Action{At: int64(i * 100), Pos: i}
		s, _ = s.advance(prev, cur, image.Point{})
		prev = cur
	}
	if s.positions.len() != PositionWindow {
		t.Errorf("position window holds %d samples, want %d", s.positions.len(), PositionWindow)
	}
	if s.speeds.len() != 15 {
		t.Errorf("speed window holds %d samples, want 15", s.speeds.len())
	}
}
