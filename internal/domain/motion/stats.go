package motion

import "github.com/okian/strokeheat/internal/domain/model"

// AverageSpeed returns the mean of the pairwise speeds of consecutive actions.
// Series with fewer than two actions have no pairs and yield 0.
func AverageSpeed(actions []model.Action) float64 {
	if len(actions) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(actions); i++ {
		total += Speed(actions[i-1], actions[i])
	}
	return total / float64(len(actions)-1)
}

// Duration returns the timestamp of the final action. The series is assumed
// to be chronological; it is not re-sorted.
func Duration(actions []model.Action) int64 {
	if len(actions) == 0 {
		return 0
	}
	return actions[len(actions)-1].At
}

// Summarize computes the aggregate statistics of a series in one call.
func Summarize(actions []model.Action) model.Stats {
	return model.Stats{
		DurationMS:   Duration(actions),
		ActionCount:  len(actions),
		AverageSpeed: AverageSpeed(actions),
	}
}
