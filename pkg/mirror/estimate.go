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
	"os/exec"
	"regexp"

	"github.com/kraklabs/cloneforge/pkg/config"
)

// spiderURLRE extracts absolute URLs wget/wget2 prints while spidering
// ("--2024-... URL:https://example.com/page [...]" and plain "https://..."
// link lines both show up depending on verbosity).
var spiderURLRE = regexp.MustCompile(`https?://[^\s'"<>]+`)

// Estimate runs the mirror tool in spider (no-download, link-enumeration)
// mode and counts the distinct absolute URLs it reports, per spec.md §4.2:
// "never blocks or fails the run". Any error (tool missing, non-zero exit)
// is swallowed and reported as a zero estimate — estimation is a courtesy,
// never a precondition for cloning.
func Estimate(ctx context.Context, cfg config.CloneConfig) int {
	bin := cfg.MirrorBin
	if bin == "" {
		bin = "wget2"
	}
	args := append([]string{"--spider", "--recursive", "--no-parent"}, cfg.URL)

	cmd := exec.CommandContext(ctx, bin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return 0
	}

	seen := make(map[string]bool)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		for _, u := range spiderURLRE.FindAllString(scanner.Text(), -1) {
			seen[u] = true
		}
	}
	_ = cmd.Wait()

	return len(seen)
}
