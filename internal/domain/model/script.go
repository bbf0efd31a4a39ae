// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"
)

// Action is one timestamped position sample of a stroke script.
type Action struct {
	At         int64    `json:"at"`                   // milliseconds from series start
	Pos        int      `json:"pos"`                  // normalized position, nominally 0-100
	Type       string   `json:"type,omitempty"`       // optional kind tag
	SubActions []Action `json:"subActions,omitempty"` // nested actions; carried, never interpreted
}

// Chapter marks a named section of the timeline. Times are kept as the
// document wrote them (usually "HH:MM:SS.mmm").
type Chapter struct {
	Name      string
	StartTime string
	EndTime   string
}

// Metadata carries the descriptive block of a script document.
type Metadata struct {
	Title        string
	Creator      string
	Description  string
	License      string
	Notes        string
	Type         string
	ScriptURL    string
	VideoURL     string
	Performers   []string
	Tags         []string
	Chapters     []Chapter
	Duration     *int64   // declared by the author; informational only
	AverageSpeed *float64 // declared by the author; informational only
}

// Script is a decoded stroke script document.
type Script struct {
	Actions  []Action
	Metadata *Metadata
	Version  string
	Inverted bool
	Range    int
}

// Last returns the final action and false when the series is empty.
func (s *Script) Last() (Action, bool) {
	if s == nil || len(s.Actions) == 0 {
		return Action{}, false
	}
	return s.Actions[len(s.Actions)-1], true
}

// IsChronological reports whether the actions are ordered by non-decreasing timestamp.
func IsChronological(actions []Action) bool {
	return sort.SliceIsSorted(actions, func(i, j int) bool {
		return actions[i].At < actions[j].At
	})
}

// SortChronologically returns a copy of actions stably ordered by timestamp.
// The input slice is not modified.
func SortChronologically(actions []Action) []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At < out[j].At
	})
	return out
}

// Stats is the aggregate summary of an action series.
type Stats struct {
	DurationMS   int64
	ActionCount  int
	AverageSpeed float64
}

// Job is a unit of asynchronous analysis work.
type Job struct {
	ID        string    // library record id assigned at submission
	Digest    string    // content digest used for idempotency
	Name      string    // file name or caller supplied label
	Path      string    // source path for batch jobs; empty for API submissions
	Script    *Script   // decoded document; nil when the worker must load Path
	Submitted time.Time // submission time
}
