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

// Package mirror implements the Mirror Driver (spec.md §4.2): it invokes
// an external recursive-download tool, streams its diagnostic output
// parsing percent/rate, maps non-zero exits to hints, and performs
// resume/partial-file accounting.
//
// The subprocess-execution idiom (exec.CommandContext, captured
// stdout/stderr, context-cancellation-aware error classification) mirrors
// the teacher's pkg/tools/git.go GitExecutor.Run and
// pkg/ingestion/delta.go's git-diff driver — stdlib os/exec is the
// teacher's own choice here, so it is carried forward (see SPEC_FULL.md
// §2 DOMAIN STACK).
package mirror

import (
	"strconv"
	"strings"

	"github.com/kraklabs/cloneforge/pkg/config"
)

// BuildArgs derives the external mirror tool's argv from cfg, per spec.md
// §4.2: recursive mirror, link conversion, page requisites, no-parent,
// continue/resume, progress output, destination folder, plus optional
// parallelism/quota/rate-limit/cookies/credentials/incremental flags.
func BuildArgs(cfg config.CloneConfig, destDir string) []string {
	args := []string{
		"--mirror",
		"--convert-links",
		"--page-requisites",
		"--no-parent",
		"--continue",
		"--progress=bar",
		"--directory-prefix=" + destDir,
	}

	if cfg.Jobs > 1 {
		args = append(args, "--max-threads="+strconv.Itoa(cfg.Jobs))
	}
	if cfg.SizeCapBytes > 0 {
		args = append(args, "--quota="+strconv.FormatInt(cfg.SizeCapBytes, 10))
	}
	if cfg.ThrottleBytesPerSec > 0 {
		args = append(args, "--limit-rate="+strconv.FormatInt(cfg.ThrottleBytesPerSec, 10))
	}
	if cfg.CookiesFile != "" {
		args = append(args, "--load-cookies="+cfg.CookiesFile)
	}
	if cfg.AuthUser != "" {
		args = append(args, "--http-user="+cfg.AuthUser, "--http-password="+cfg.AuthPass)
	}
	if cfg.Incremental {
		args = append(args, "--timestamping")
	}

	args = append(args, cfg.URL)
	return args
}

// SanitizeCommand returns a copy of args with password/auth-token values
// masked, for safe inclusion in logs/events per spec.md §4.2 ("emit
// sanitized command (masking passwords and auth tokens)").
func SanitizeCommand(bin string, args []string) []string {
	out := make([]string, 0, len(args)+1)
	out = append(out, bin)
	for _, a := range args {
		switch {
		case hasPrefix(a, "--http-password="):
			out = append(out, "--http-password=***")
		case hasPrefix(a, "--load-cookies="):
			out = append(out, a) // path, not a secret
		default:
			out = append(out, a)
		}
	}
	return out
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// String renders a sanitized command for display, e.g. in a phase_error
// event.
func String(bin string, args []string) string {
	return strings.Join(SanitizeCommand(bin, args), " ")
}
