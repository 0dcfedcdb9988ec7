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

package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/schollz/progressbar/v3"
)

// Style selects which console renderer Console wraps.
type Style string

const (
	StylePlain Style = "plain"
	StyleRich  Style = "rich"
)

// IsTTY reports whether w looks like an interactive terminal, mirroring the
// teacher's NO_COLOR / isatty handling in cmd/cie/main.go.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Console is a concrete Observer that writes to w using either a rich
// progressbar/v3 bar or a plain spinner+line renderer, degrading to
// line-oriented logs when w is not a TTY (so piping to a file or CI log
// never sees control characters).
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	style    Style
	noColor  bool
	tty      bool
	cancel   CancelFunc
	bar      *progressbar.ProgressBar
	spin     *spinner.Spinner
	lastPct  float64
	lastName string
}

// NewConsole builds a Console observer writing to w.
func NewConsole(w io.Writer, style Style, noColor bool, cancel CancelFunc) *Console {
	if noColor {
		color.NoColor = true
	}
	c := &Console{w: w, style: style, noColor: noColor, tty: IsTTY(w), cancel: cancel}
	if c.tty && style == StylePlain {
		s := spinner.New(spinner.CharSets[11], 120*time.Millisecond)
		s.Writer = w
		c.spin = s
	}
	return c
}

func (c *Console) IsCanceled() bool {
	if c.cancel == nil {
		return false
	}
	return c.cancel()
}

func (c *Console) Log(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, truncateLine(msg, 160))
}

func (c *Console) Phase(name string, pct float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastName, c.lastPct = name, pct

	if !c.tty {
		fmt.Fprintf(c.w, "phase=%s pct=%.1f\n", name, pct*100)
		return
	}

	switch c.style {
	case StyleRich:
		if c.bar == nil || c.bar.GetMax() != 100 {
			c.bar = progressbar.NewOptions(100,
				progressbar.OptionSetDescription(name),
				progressbar.OptionSetWriter(c.w),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		c.bar.Describe(name)
		_ = c.bar.Set(int(pct * 100))
	default: // plain
		if c.spin != nil {
			c.spin.Suffix = fmt.Sprintf(" %s %.0f%%", name, pct*100)
			if !c.spin.Active() {
				c.spin.Start()
			}
		}
	}
}

func (c *Console) Bandwidth(rate string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tty {
		fmt.Fprintf(c.w, "bandwidth=%s\n", rate)
		return
	}
	if c.style == StylePlain && c.spin != nil {
		c.spin.Suffix = fmt.Sprintf(" %s %s", c.lastName, rate)
	}
}

func (c *Console) APICapture(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "api_captured=%d\n", n)
}

func (c *Console) RouterCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "routes_discovered=%d\n", n)
}

func (c *Console) Checksum(pct float64) {
	c.Phase("checksums", pct)
}

// Stop finalizes any active spinner/bar so the terminal is left clean.
func (c *Console) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.spin != nil && c.spin.Active() {
		c.spin.Stop()
	}
	if c.bar != nil {
		_ = c.bar.Finish()
	}
}

func truncateLine(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// Colorize applies fg if the console has color enabled, else returns s
// unchanged. Small helper used by summary printers.
func Colorize(noColor bool, fg *color.Color, s string) string {
	if noColor || color.NoColor {
		return s
	}
	return fg.Sprint(s)
}
