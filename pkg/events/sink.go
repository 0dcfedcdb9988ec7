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

package events

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// NDJSONSink appends one JSON object per line to an append-only file,
// flushing each write immediately so line boundaries stay atomic for
// tailers, per spec.md §9 ("writes must be line-atomic; readers tail by
// newline boundaries").
type NDJSONSink struct {
	mu   sync.Mutex
	file *os.File
}

// OpenNDJSONSink opens (creating/truncating) path for append-only writes.
func OpenNDJSONSink(path string) (*NDJSONSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open events sink %s: %w", path, err)
	}
	return &NDJSONSink{file: f}, nil
}

func (s *NDJSONSink) Emit(env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = s.file.Write(b)
	return err
}

// Close closes the underlying file.
func (s *NDJSONSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// WriterSink writes NDJSON to an arbitrary io.Writer (e.g. a structured
// logging stream when --json-logs is set). Unlike NDJSONSink it does not
// own a file handle.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink { return &WriterSink{w: w} }

func (s *WriterSink) Emit(env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = s.w.Write(b)
	return err
}

// ConsoleObserverSink adapts an events stream onto a ui.Observer-shaped
// console renderer: phase_start/phase_end become Phase calls and every
// other event becomes a Log line. Bandwidth is never called by Emit.
type ConsoleObserverSink struct {
	Log       func(string)
	Phase     func(name string, pct float64)
	Bandwidth func(rate string)
}

func (s *ConsoleObserverSink) Emit(env Envelope) error {
	switch env.Event {
	case PhaseStart:
		if s.Phase != nil {
			name, _ := env.Fields["phase"].(string)
			s.Phase(name, 0)
		}
	case PhaseEnd:
		if s.Phase != nil {
			name, _ := env.Fields["phase"].(string)
			s.Phase(name, 1)
		}
	default:
		if s.Log != nil {
			s.Log(fmt.Sprintf("%s %v", env.Event, env.Fields))
		}
	}
	return nil
}
