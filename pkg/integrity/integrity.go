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

// Package integrity implements the Integrity Module (spec.md §4.3):
// scope-aware checksumming (delegated to pkg/fingerprint), a portable
// verifier shipped two ways — the embedded cloneforge-verify Go binary
// and a copy-pasted verify_checksums.sh shell script — and the
// "OK=N Missing=N Mismatched=N Total=N" result line both verifiers agree
// on.
package integrity

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kraklabs/cloneforge/pkg/fingerprint"
)

//go:embed verify_checksums.sh
var verifyScript []byte

// resultLineRE matches "OK=N Missing=N Mismatched=N Total=N" in either
// verifier's stdout; spec.md §8 requires the first such line to win when
// more than one is printed.
var resultLineRE = regexp.MustCompile(`OK=(\d+)\s+Missing=(\d+)\s+Mismatched=(\d+)\s+Total=(\d+)`)

// Result is the parsed outcome of a verification pass.
type Result struct {
	OK         int
	Missing    int
	Mismatched int
	Total      int
	FastMissing bool
}

// Passed reports whether verification found no missing or mismatched
// files.
func (r Result) Passed() bool {
	return r.Missing == 0 && r.Mismatched == 0
}

// ParseResultLine extracts the first "OK=.. Missing=.. Mismatched=..
// Total=.." line found in output.
func ParseResultLine(output string) (Result, bool) {
	m := resultLineRE.FindStringSubmatch(output)
	if m == nil {
		return Result{}, false
	}
	ok, _ := strconv.Atoi(m[1])
	missing, _ := strconv.Atoi(m[2])
	mismatched, _ := strconv.Atoi(m[3])
	total, _ := strconv.Atoi(m[4])
	return Result{OK: ok, Missing: missing, Mismatched: mismatched, Total: total}, true
}

// FormatResultLine renders a Result back into the canonical line format,
// used by the verifier binary, AppendReadmeSection and Selftest.
func FormatResultLine(r Result) string {
	return fmt.Sprintf("OK=%d Missing=%d Mismatched=%d Total=%d", r.OK, r.Missing, r.Mismatched, r.Total)
}

// ComputeChecksums walks root for every in-scope file (spec.md §4.3
// hashing-scope rule, delegated to pkg/fingerprint.InScope) and returns
// the resulting sha256 map, honoring extra configured extensions and
// cancellation.
func ComputeChecksums(root string, extraExt []string, progress fingerprint.ProgressFunc, isCanceled func() bool) (map[string]string, error) {
	extras := map[string]bool{}
	for _, e := range extraExt {
		e = strings.TrimPrefix(e, ".")
		extras["."+strings.ToLower(e)] = true
	}
	files, err := fingerprint.WalkScope(root, extras)
	if err != nil {
		return nil, err
	}
	return fingerprint.Checksums(root, files, progress, isCanceled), nil
}

// Verify checks the manifest's recorded checksums against the files on
// disk, hashing every present file regardless of the fast/deep flag (per
// the original verify_checksums.py: "fast" only means the run doesn't
// bother re-hashing files it already knows are missing, not that present
// files go unhashed — a tampered-but-nonzero file must still be caught).
// deep is kept as the Result.FastMissing marker so callers and reports can
// still distinguish which mode produced a given verification.
func Verify(root string, checksums map[string]string, deep bool) Result {
	r := Result{Total: len(checksums), FastMissing: !deep}
	for relPath, wantHash := range checksums {
		full := filepath.Join(root, relPath)
		if _, statErr := os.Stat(full); statErr != nil {
			r.Missing++
			continue
		}
		gotHash, hashErr := fingerprint.HashFile(full)
		if hashErr != nil {
			r.Missing++
			continue
		}
		if gotHash != wantHash {
			r.Mismatched++
			continue
		}
		r.OK++
	}
	return r
}

// WriteVerifyScript copies the embedded portable verify_checksums.sh into
// destDir, so a cloned site can be checked without the cloneforge binary
// present (spec.md §4.3, "ship a portable verification script alongside
// the Go binary").
func WriteVerifyScript(destDir string) error {
	return os.WriteFile(filepath.Join(destDir, "verify_checksums.sh"), verifyScript, 0o755)
}

// AppendReadmeSection appends a "### Verification Result" section to the
// README at path, creating the file if necessary.
func AppendReadmeSection(path string, r Result) error {
	section := fmt.Sprintf("\n### Verification Result\n\n```\n%s\n```\n", FormatResultLine(r))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(section)
	return err
}

// knownGoodSelftestLine is the fixed input/output pair the built-in
// selftest checks: ParseResultLine must round-trip it exactly.
const knownGoodSelftestLine = "OK=3 Missing=0 Mismatched=0 Total=3"

// Selftest exercises the result-line parser against a known-good line,
// per spec.md §7's EXIT_SELFTEST_FAILED contract ("--selftest-verification").
func Selftest() error {
	r, ok := ParseResultLine(knownGoodSelftestLine)
	if !ok {
		return fmt.Errorf("selftest: failed to parse canonical result line")
	}
	if FormatResultLine(r) != knownGoodSelftestLine {
		return fmt.Errorf("selftest: round-trip mismatch: got %q want %q", FormatResultLine(r), knownGoodSelftestLine)
	}
	if r.OK != 3 || r.Total != 3 || !r.Passed() {
		return fmt.Errorf("selftest: unexpected parsed values: %+v", r)
	}
	return nil
}
