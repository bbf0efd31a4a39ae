package motion

import "fmt"

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
)

// FormatTime renders milliseconds as H:MM:SS when the value reaches one hour
// and as M:SS otherwise. Milliseconds are truncated to whole seconds.
// Negative input formats as 0:00.
func FormatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / msPerSecond
	hours := total / secondsPerHour
	minutes := (total % secondsPerHour) / secondsPerMinute
	seconds := total % secondsPerMinute
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
