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
	"context"
	"os/exec"
	"regexp"

	version "github.com/hashicorp/go-version"
)

// minMirrorVersion is the oldest wget2 release this tool has been built
// against; earlier releases are missing flags this package relies on
// (--no-parent interacting correctly with --spider among them).
var minMirrorVersion = version.Must(version.NewVersion("2.0.0"))

var mirrorVersionRE = regexp.MustCompile(`(\d+\.\d+(\.\d+)?)`)

// CheckVersion runs "<bin> --version" and compares the first version-like
// token against minMirrorVersion. It has no error return: a missing binary
// or an unparseable banner yields ("", false) — classifying a missing
// binary is mirror.Run's job — and tooOld is true only for a version that
// parses fine but is below the known-good floor, so callers can log a
// warning instead of failing the run outright.
func CheckVersion(ctx context.Context, bin string) (installed string, tooOld bool) {
	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return "", false
	}
	m := mirrorVersionRE.FindString(string(out))
	if m == "" {
		return "", false
	}
	v, err := version.NewVersion(m)
	if err != nil {
		return m, false
	}
	return m, v.LessThan(minMirrorVersion)
}
