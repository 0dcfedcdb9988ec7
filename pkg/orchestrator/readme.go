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

package orchestrator

import (
	"fmt"
	"os"
	"strings"

	"github.com/kraklabs/cloneforge/pkg/config"
	"github.com/kraklabs/cloneforge/pkg/manifest"
)

// writeReadme renders the project README spec.md §6 names as an external
// interface artifact: origin URL, reproduce command, and a summary of
// what was captured.
func writeReadme(path string, cfg config.CloneConfig, m *manifest.Manifest) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cfg.DockerName)
	fmt.Fprintf(&b, "Cloned from %s\n\n", cfg.URL)
	b.WriteString("## Reproduce\n\n```\n")
	b.WriteString(strings.Join(config.ReproduceCommand(cfg), " "))
	b.WriteString("\n```\n\n")

	b.WriteString("## Summary\n\n")
	if cfg.Prerender {
		fmt.Fprintf(&b, "- Dynamic pages rendered: %d\n", m.PrerenderPages)
		fmt.Fprintf(&b, "- Routes discovered: %d\n", m.RoutesDiscovered)
	}
	if cfg.CaptureAPI {
		fmt.Fprintf(&b, "- API responses captured: %d\n", m.APICapturedCount)
	}
	if cfg.CaptureGraphQL {
		fmt.Fprintf(&b, "- GraphQL operations captured: %d\n", m.GraphQLCapturedCount)
	}
	if cfg.Checksums {
		b.WriteString("- SHA-256 checksums recorded in clone_manifest.json\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
