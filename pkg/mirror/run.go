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

package mirror

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/kraklabs/cloneforge/internal/errors"
	"github.com/kraklabs/cloneforge/internal/ui"
	"github.com/kraklabs/cloneforge/pkg/config"
)

// ringSize bounds the diagnostic-output ring buffer retained for error
// reporting (spec.md §4.2: "retain a bounded ring buffer of the last ~25
// diagnostic lines").
const ringSize = 25

// bandwidthDebounce is the minimum interval between emitted Bandwidth
// observer updates, avoiding a flood of events on chatty tools.
const bandwidthDebounce = 250 * time.Millisecond

// forceMissingEnv deterministically simulates an unavailable mirror tool
// (spec.md §6's FORCE_NO_MIRROR diagnostic variable), for exercising the
// degraded no-clone-tool path without uninstalling anything.
const forceMissingEnv = "CLONEFORGE_FORCE_NO_MIRROR"

// percentRE and rateRE extract wget/wget2-style progress tokens such as
// " 42%" and "1.2MB/s" from a diagnostic line.
var (
	percentRE = regexp.MustCompile(`(\d{1,3})%`)
	rateRE    = regexp.MustCompile(`([\d.]+)\s*([KMG]?B/s)`)
)

// Result summarizes one mirror invocation.
type Result struct {
	Bin           string
	Args          []string
	ExitCode      int
	Err           error
	LastLines     []string
	PreFileCount  int
	PostFileCount int
	NewFiles      int
	Canceled      bool
}

// Run invokes the configured mirror binary against destDir, streaming its
// output to obs and accumulating a bounded tail for diagnostics. It never
// panics on a missing binary or non-zero exit; those are reported via
// Result and classified by the caller into a CloneError (see Classify).
func Run(ctx context.Context, cfg config.CloneConfig, destDir string, obs ui.Observer) Result {
	bin := cfg.MirrorBin
	if bin == "" {
		bin = "wget2"
	}
	args := BuildArgs(cfg, destDir)

	if os.Getenv(forceMissingEnv) != "" {
		return Result{
			Bin:      bin,
			Args:     args,
			ExitCode: -1,
			Err:      &exec.Error{Name: bin, Err: exec.ErrNotFound},
		}
	}

	preCount, _ := countFiles(destDir)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{Bin: bin, Args: args, Err: err, ExitCode: -1}
	}
	cmd.Stderr = cmd.Stdout // wget writes progress to stderr; merge streams

	res := Result{Bin: bin, Args: args, PreFileCount: preCount}

	if startErr := cmd.Start(); startErr != nil {
		res.Err = startErr
		res.ExitCode = -1
		return res
	}

	ring := newRing(ringSize)
	lastBW := time.Time{}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		ring.add(line)
		obs.Log(line)

		if pct, rate, ok := parseProgress(line); ok {
			now := time.Now()
			if now.Sub(lastBW) >= bandwidthDebounce {
				lastBW = now
				if rate != "" {
					obs.Bandwidth(rate)
				}
				obs.Phase("clone", float64(pct)/100)
			}
		}
		if ctx.Err() != nil {
			break
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		obs.Log("warn: mirror output scan error: " + err.Error())
	}

	waitErr := cmd.Wait()
	res.LastLines = ring.lines()

	if ctx.Err() != nil {
		res.Canceled = true
		res.ExitCode = 130
		res.Err = ctx.Err()
	} else if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
		res.Err = waitErr
	}

	postCount, _ := countFiles(destDir)
	res.PostFileCount = postCount
	if postCount > preCount {
		res.NewFiles = postCount - preCount
	}
	return res
}

// parseProgress extracts a percent complete and rate string from a
// diagnostic line, if present.
func parseProgress(line string) (pct int, rate string, ok bool) {
	pm := percentRE.FindStringSubmatch(line)
	rm := rateRE.FindStringSubmatch(line)
	if pm == nil && rm == nil {
		return 0, "", false
	}
	if pm != nil {
		pct, _ = strconv.Atoi(pm[1])
	}
	if rm != nil {
		rate = rm[1] + rm[2]
	}
	return pct, rate, true
}

// Classify maps a mirror Result to a typed CloneError per spec.md §4.2/§7:
// missing binary -> EXIT_WGET_MISSING, cancellation -> EXIT_CANCELED,
// anything else -> generic failure with the tail of diagnostic output as
// the Detail.
func Classify(res Result) error {
	if res.Err == nil && res.ExitCode == 0 {
		return nil
	}
	if res.Canceled {
		return errors.NewCancellationError("clone")
	}
	if isNotFound(res.Err) {
		return errors.NewDependencyMissingError(
			res.Bin,
			fmt.Sprintf("%q was not found on PATH", res.Bin),
			"install wget2 (or wget), or pass --mirror-bin to point at an installed binary",
			res.Err,
		)
	}
	return errors.NewInternalError(
		"mirror download failed",
		fmt.Sprintf("%s exited %d; last output:\n%s", String(res.Bin, res.Args), res.ExitCode, strings.Join(res.LastLines, "\n")),
		"inspect the printed command and its output to debug the site directly",
		res.Err,
	)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if perr, ok := err.(*exec.Error); ok {
		return strings.Contains(perr.Err.Error(), "not found") || strings.Contains(perr.Err.Error(), "no such file")
	}
	return strings.Contains(err.Error(), "executable file not found")
}

func countFiles(root string) (int, error) {
	n := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !info.IsDir() {
			n++
		}
		return nil
	})
	return n, err
}

// ring is a small fixed-capacity line buffer.
type ring struct {
	buf   []string
	head  int
	count int
}

func newRing(cap int) *ring {
	return &ring{buf: make([]string, cap)}
}

func (r *ring) add(line string) {
	r.buf[r.head] = line
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

func (r *ring) lines() []string {
	out := make([]string, 0, r.count)
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}
