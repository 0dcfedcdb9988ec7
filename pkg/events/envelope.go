// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package events implements the structured event envelope and emitter
// described in spec.md §4.3/§5: every event carries a monotonically
// increasing seq, a stable run_id, and a non-decreasing UTC timestamp, and
// is fanned out to a console logging stream and/or an append-only NDJSON
// file sink.
//
// The envelope-stamping pattern (a single writer incrementing a sequence
// counter under a mutex before fan-out) mirrors the teacher's
// pkg/ingestion/index_log.go, which appends timestamped progress lines
// under a similar single-writer discipline.
package events

import (
	"encoding/json"
	"sync"
	"time"
)

// Name is the closed set of event names spec.md §4.3 requires implementers
// to emit exactly.
type Name string

const (
	Start               Name = "start"
	Estimate            Name = "estimate"
	PhaseStart          Name = "phase_start"
	PhaseEnd            Name = "phase_end"
	PhaseError          Name = "phase_error"
	RegexWarning        Name = "regex_warning"
	PluginLoaded        Name = "plugin_loaded"
	PluginLoadFailed    Name = "plugin_load_failed"
	PostAssetStart      Name = "post_asset_start"
	PostAssetProgress   Name = "post_asset_progress"
	PostAssetEnd        Name = "post_asset_end"
	PostAssetError      Name = "post_asset_error"
	PluginFinalizeStart Name = "plugin_finalize_start"
	PluginFinalizeEnd   Name = "plugin_finalize_end"
	PluginFinalizeError Name = "plugin_finalize_error"
	DiffSummary         Name = "diff_summary"
	Verify              Name = "verify"
	Canceled            Name = "canceled"
	ChecksumsCanceled   Name = "checksums_canceled"
	CleanupRemoved      Name = "cleanup_removed"
	Timings             Name = "timings"
	RunContainer        Name = "run_container"
	ServeFolder         Name = "serve_folder"
	Summary             Name = "summary"
	SummaryFinal        Name = "summary_final"
)

const SchemaVersion = 1

// ToolVersion is informational, stamped on every envelope per spec.md §3.
var ToolVersion = "dev"

// Envelope is the common header on every emitted event, plus an arbitrary
// event-specific Fields payload.
type Envelope struct {
	Event         Name           `json:"event"`
	TS            string         `json:"ts"`
	Seq           int64          `json:"seq"`
	RunID         string         `json:"run_id"`
	SchemaVersion int            `json:"schema_version"`
	ToolVersion   string         `json:"tool_version"`
	Fields        map[string]any `json:"-"`
}

// MarshalJSON flattens Fields into the top-level object alongside the
// envelope header, so consumers see one flat JSON object per line.
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"event":          string(e.Event),
		"ts":             e.TS,
		"seq":            e.Seq,
		"run_id":         e.RunID,
		"schema_version": e.SchemaVersion,
		"tool_version":   e.ToolVersion,
	}
	for k, v := range e.Fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// Sink receives a fully-stamped envelope. Implementations must be safe for
// sequential use from a single Emitter (one writer per run, per spec.md §9).
type Sink interface {
	Emit(Envelope) error
}

// Emitter stamps, sequences, and fans events out to its sinks. now is
// injectable for deterministic tests.
type Emitter struct {
	mu    sync.Mutex
	runID string
	seq   int64
	sinks []Sink
	now   func() time.Time
}

// NewEmitter creates an Emitter with a stable run_id and the given sinks.
func NewEmitter(runID string, sinks ...Sink) *Emitter {
	return &Emitter{runID: runID, sinks: sinks, now: time.Now}
}

// RunID returns the stable run identifier stamped on every envelope.
func (e *Emitter) RunID() string { return e.runID }

// AddSink attaches an additional sink (e.g. the NDJSON file, once opened).
func (e *Emitter) AddSink(s Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

// Emit stamps name with the next seq/ts/run_id and fans it out to every
// sink, collecting (but not stopping on) sink errors.
func (e *Emitter) Emit(name Name, fields map[string]any) error {
	e.mu.Lock()
	e.seq++
	env := Envelope{
		Event:         name,
		TS:            e.now().UTC().Format(time.RFC3339Nano),
		Seq:           e.seq,
		RunID:         e.runID,
		SchemaVersion: SchemaVersion,
		ToolVersion:   ToolVersion,
		Fields:        fields,
	}
	sinks := append([]Sink(nil), e.sinks...)
	e.mu.Unlock()

	var firstErr error
	for _, s := range sinks {
		if err := s.Emit(env); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Seq returns the last sequence number emitted (0 if none yet). Used by
// tests asserting strictly-increasing seq.
func (e *Emitter) Seq() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}
