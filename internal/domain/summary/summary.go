// Package summary renders the human-readable statistics block for a script.
package summary

import (
	"fmt"
	"strings"

	"github.com/okian/strokeheat/internal/domain/model"
	"github.com/okian/strokeheat/internal/domain/motion"
)

const separator = " | "

// Render builds the multi-line text shown next to a heatmap strip. Empty
// metadata fields are omitted. Lines end with '\n'.
func Render(script *model.Script, stats model.Stats) string {
	var b strings.Builder
	var meta *model.Metadata
	if script != nil {
		meta = script.Metadata
	}

	if meta != nil && meta.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n\n", meta.Title)
	}

	fmt.Fprintf(&b, "Duration: %s | Actions: %d | Avg Speed: %.1f movements/sec\n",
		motion.FormatTime(stats.DurationMS), stats.ActionCount, stats.AverageSpeed)

	if meta == nil {
		return b.String()
	}

	writeJoined(&b,
		labeled("Creator", meta.Creator),
		labeled("Type", meta.Type),
	)
	writeJoined(&b,
		labeled("Performers", strings.Join(meta.Performers, ", ")),
		labeled("License", meta.License),
	)
	writeLine(&b, labeled("Tags", strings.Join(meta.Tags, ", ")))
	writeLine(&b, labeled("Description", meta.Description))
	writeLine(&b, labeled("Notes", meta.Notes))
	writeLine(&b, labeled("Script URL", meta.ScriptURL))
	writeLine(&b, labeled("Video URL", meta.VideoURL))

	if len(meta.Chapters) > 0 {
		b.WriteString("Chapters:\n")
		for _, c := range meta.Chapters {
			fmt.Fprintf(&b, "- %s (%s - %s)\n", c.Name, c.StartTime, c.EndTime)
		}
	}
	return b.String()
}

// Lines splits a rendered summary into lines, dropping the trailing newline.
func Lines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func labeled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + ": " + value
}

func writeLine(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	b.WriteString(s)
	b.WriteByte('\n')
}

func writeJoined(b *strings.Builder, parts ...string) {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	writeLine(b, strings.Join(kept, separator))
}
