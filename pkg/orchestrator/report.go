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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kraklabs/cloneforge/pkg/manifest"
)

// writeReport renders the optional clone_report artifact named in spec.md
// §6 ("Optional .../clone_report.{json,md}"). Unlike clone_manifest.json,
// which is the engine's stable machine-readable record, the report is a
// human-facing digest meant to be skimmed or pasted into a PR description;
// it is derived entirely from the already-saved manifest, never a second
// source of truth.
func writeReport(path string, format string, m *manifest.Manifest) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(reportDigest{
			URL:            m.URL,
			DockerName:     m.DockerName,
			CloneSuccess:   m.CloneSuccess,
			DockerBuilt:    m.DockerBuilt,
			PrerenderPages: m.PrerenderPages,
			RoutesDiscovered: m.RoutesDiscovered,
			APICaptured:    m.APICapturedCount,
			GraphQLCaptured: m.GraphQLCapturedCount,
			StorageCaptured: m.StorageCapturedCount,
			Checksums:      m.ChecksumsIncluded,
			Verification:   m.Verification,
			Warnings:       m.Warnings,
			TotalSeconds:   m.Timings["total"],
		}, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(path, b, 0o644)
	case "md":
		var b strings.Builder
		fmt.Fprintf(&b, "# Clone report: %s\n\n", m.DockerName)
		fmt.Fprintf(&b, "- Source: %s\n", m.URL)
		fmt.Fprintf(&b, "- Clone succeeded: %t\n", m.CloneSuccess)
		if m.DockerBuilt {
			b.WriteString("- Docker image built: true\n")
		}
		if m.Prerender {
			fmt.Fprintf(&b, "- Pages rendered: %d (routes discovered: %d)\n", m.PrerenderPages, m.RoutesDiscovered)
		}
		if m.CaptureAPI {
			fmt.Fprintf(&b, "- API responses captured: %d\n", m.APICapturedCount)
		}
		if m.CaptureGraphQL {
			fmt.Fprintf(&b, "- GraphQL operations captured: %d\n", m.GraphQLCapturedCount)
		}
		if m.Verification != nil {
			fmt.Fprintf(&b, "- Verification: %s (ok=%d missing=%d mismatched=%d total=%d)\n",
				m.Verification.Status, m.Verification.OK, m.Verification.Missing, m.Verification.Mismatched, m.Verification.Total)
		}
		if len(m.Warnings) > 0 {
			b.WriteString("\n## Warnings\n\n")
			for _, w := range m.Warnings {
				fmt.Fprintf(&b, "- %s\n", w)
			}
		}
		fmt.Fprintf(&b, "\nTotal time: %.2fs\n", m.Timings["total"])
		return os.WriteFile(path, []byte(b.String()), 0o644)
	default:
		return fmt.Errorf("unknown report format %q (want json or md)", format)
	}
}

// reportDigest is the JSON shape of clone_report.json: a deliberately
// smaller, flatter projection of the manifest aimed at humans and simple
// CI checks rather than full programmatic consumption (that's what
// clone_manifest.json is for).
type reportDigest struct {
	URL              string                  `json:"url"`
	DockerName       string                  `json:"docker_name"`
	CloneSuccess     bool                    `json:"clone_success"`
	DockerBuilt      bool                    `json:"docker_built"`
	PrerenderPages   int                     `json:"prerender_pages,omitempty"`
	RoutesDiscovered int                     `json:"routes_discovered,omitempty"`
	APICaptured      int                     `json:"api_captured,omitempty"`
	GraphQLCaptured  int                     `json:"graphql_captured,omitempty"`
	StorageCaptured  int                     `json:"storage_captured,omitempty"`
	Checksums        bool                    `json:"checksums"`
	Verification     *manifest.Verification  `json:"verification,omitempty"`
	Warnings         []string                `json:"warnings,omitempty"`
	TotalSeconds     float64                 `json:"total_seconds"`
}
