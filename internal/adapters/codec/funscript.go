// Package codec decodes funscript JSON documents into domain models.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/okian/strokeheat/internal/domain/model"
)

// Default decoding limits.
const (
	defaultMaxBytes = 16 << 20
)

// Decoder turns raw documents into model.Script values.
type Decoder struct {
	sortActions bool
	maxBytes    int64
}

// NewDecoder creates a decoder. Actions are sorted by default.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		sortActions: true,
		maxBytes:    defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// wireAction mirrors an action object. Some editors write fractional
// timestamps, so numbers are read loosely and truncated.
type wireAction struct {
	At         json.Number  `json:"at"`
	Pos        json.Number  `json:"pos"`
	Type       string       `json:"type,omitempty"`
	SubActions []wireAction `json:"subActions,omitempty"`
}

type wireChapter struct {
	Name      string `json:"name"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type wireMetadata struct {
	Duration     *json.Number  `json:"duration"`
	AverageSpeed *float64      `json:"average_speed"`
	Creator      string        `json:"creator"`
	Description  string        `json:"description"`
	License      string        `json:"license"`
	Notes        string        `json:"notes"`
	Performers   []string      `json:"performers"`
	ScriptURL    string        `json:"script_url"`
	Tags         []string      `json:"tags"`
	Title        string        `json:"title"`
	Type         string        `json:"type"`
	VideoURL     string        `json:"video_url"`
	Chapters     []wireChapter `json:"chapters"`
}

type wireScript struct {
	Actions  []wireAction  `json:"actions"`
	Metadata *wireMetadata `json:"metadata"`
	Version  string        `json:"version"`
	Inverted bool          `json:"inverted"`
	Range    int           `json:"range"`
}

// Decode parses a complete document held in memory.
func (d *Decoder) Decode(data []byte) (*model.Script, error) {
	const op = "codec.decode"
	var w wireScript
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidDocument, err)
	}
	if len(w.Actions) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoActions)
	}

	actions, err := convertActions(w.Actions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidDocument, err)
	}
	if d.sortActions && !model.IsChronological(actions) {
		actions = model.SortChronologically(actions)
	}

	script := &model.Script{
		Actions:  actions,
		Version:  w.Version,
		Inverted: w.Inverted,
		Range:    w.Range,
	}
	if w.Metadata != nil {
		meta, err := convertMetadata(w.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidDocument, err)
		}
		script.Metadata = meta
	}
	return script, nil
}

// Read consumes r up to the configured size limit and decodes it. The raw
// bytes are returned alongside the script so callers can fingerprint them.
func (d *Decoder) Read(r io.Reader) (*model.Script, []byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, d.maxBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("codec.read: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, nil, fmt.Errorf("codec.read: %w: document exceeds %d bytes", ErrInvalidDocument, d.maxBytes)
	}
	script, err := d.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return script, data, nil
}

func convertActions(in []wireAction) ([]model.Action, error) {
	out := make([]model.Action, len(in))
	for i, wa := range in {
		at, err := toInt64(wa.At)
		if err != nil {
			return nil, fmt.Errorf("action %d: at: %w", i, err)
		}
		if at < 0 {
			return nil, fmt.Errorf("action %d: negative timestamp %d", i, at)
		}
		pos, err := toInt64(wa.Pos)
		if err != nil {
			return nil, fmt.Errorf("action %d: pos: %w", i, err)
		}
		if pos < math.MinInt32 || pos > math.MaxInt32 {
			return nil, fmt.Errorf("action %d: position %d out of range", i, pos)
		}
		out[i] = model.Action{At: at, Pos: int(pos), Type: wa.Type}
		if len(wa.SubActions) > 0 {
			sub, err := convertActions(wa.SubActions)
			if err != nil {
				return nil, fmt.Errorf("action %d: %w", i, err)
			}
			out[i].SubActions = sub
		}
	}
	return out, nil
}

func convertMetadata(w *wireMetadata) (*model.Metadata, error) {
	meta := &model.Metadata{
		Title:        w.Title,
		Creator:      w.Creator,
		Description:  w.Description,
		License:      w.License,
		Notes:        w.Notes,
		Type:         w.Type,
		ScriptURL:    w.ScriptURL,
		VideoURL:     w.VideoURL,
		Performers:   w.Performers,
		Tags:         w.Tags,
		AverageSpeed: w.AverageSpeed,
	}
	if w.Duration != nil {
		v, err := toInt64(*w.Duration)
		if err != nil {
			return nil, fmt.Errorf("metadata duration: %w", err)
		}
		meta.Duration = &v
	}
	for _, c := range w.Chapters {
		meta.Chapters = append(meta.Chapters, model.Chapter(c))
	}
	return meta, nil
}

var errMissingNumber = errors.New("missing number")

// toInt64 accepts integral or fractional JSON numbers and truncates toward zero.
func toInt64(n json.Number) (int64, error) {
	if n == "" {
		return 0, errMissingNumber
	}
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
