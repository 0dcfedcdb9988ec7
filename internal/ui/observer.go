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

// Package ui implements the progress-observer interface and its plain/rich
// console renderers described in spec.md §9 ("Progress callbacks as
// interfaces"). The rich renderer is grounded on the teacher's use of
// github.com/schollz/progressbar/v3 (cmd/cie/index.go's indexing progress
// bar) plus github.com/mattn/go-runewidth for width-aware line truncation,
// the same pairing used by the Aureuma-si terminal tooling in the pack. The
// plain renderer is grounded on vmware-tanzu/sonobuoy's use of
// github.com/briandowns/spinner for its CLI waiters.
package ui

// Observer is the single progress-callback interface every component is
// driven through, per spec.md §9. Multiple implementations (plain, rich,
// null) satisfy it.
type Observer interface {
	Log(msg string)
	Phase(name string, pct float64)
	Bandwidth(rate string)
	APICapture(n int)
	RouterCount(n int)
	Checksum(pct float64)
	IsCanceled() bool
}

// CancelFunc reports whether cancellation has been requested. Observers
// delegate IsCanceled to it so the orchestrator owns the single source of
// truth for the token.
type CancelFunc func() bool

// NullObserver discards everything and never reports cancellation. Useful
// as a safe default when no caller-supplied observer is attached.
type NullObserver struct {
	Cancel CancelFunc
}

func (NullObserver) Log(string)              {}
func (NullObserver) Phase(string, float64)   {}
func (NullObserver) Bandwidth(string)        {}
func (NullObserver) APICapture(int)          {}
func (NullObserver) RouterCount(int)         {}
func (NullObserver) Checksum(float64)        {}
func (n NullObserver) IsCanceled() bool {
	if n.Cancel == nil {
		return false
	}
	return n.Cancel()
}
