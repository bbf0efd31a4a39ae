// Package motion computes speeds and aggregate statistics over action series.
package motion

import (
	"math"

	"github.com/okian/strokeheat/internal/domain/model"
)

// msPerSecond converts position units per millisecond into units per second.
const msPerSecond = 1000

// Speed returns the absolute speed between two actions in position units per
// second. The result does not depend on argument order. Coincident
// timestamps carry no velocity information and yield 0.
func Speed(a, b model.Action) float64 {
	if a.At == b.At {
		return 0
	}
	if b.At < a.At {
		a, b = b, a
	}
	posDiff := math.Abs(float64(b.Pos) - float64(a.Pos))
	timeDiff := float64(b.At - a.At)
	return msPerSecond * (posDiff / timeDiff)
}
