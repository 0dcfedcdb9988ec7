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

// Package manifest defines the Manifest artifact (spec.md §3) persisted at
// <output>/clone_manifest.json, plus the mutation-order contract from §5:
// baseline → integrity → post_asset → finalize → final enrichment.
//
// The field grouping (booleans/counts zeroed-not-omitted when a feature is
// off, a free-form Extensions escape hatch for plugin-added keys) follows
// the "typed record ... reserve extensions: map<string, json>" guidance in
// spec.md §9, grounded on the teacher's own manifest.go
// (pkg/ingestion/manifest.go), which likewise keeps a stable typed struct
// for per-run state instead of an ad-hoc dict.
package manifest

import (
	"encoding/json"
	"os"
)

// SchemaVersion is the current clone_manifest.json schema revision.
const SchemaVersion = 1

// Resume summarizes file-resume accounting from the Mirror Driver.
type Resume struct {
	PreFiles     int `json:"pre_files"`
	PrePartials  int `json:"pre_partials"`
	PostFiles    int `json:"post_files"`
	PostPartials int `json:"post_partials"`
	NewFiles     int `json:"new_files"`
}

// Environment captures interpreter/runtime + OS metadata (spec.md §3 names
// this field but leaves its Go-native contents to SPEC_FULL.md).
type Environment struct {
	GoVersion string `json:"go_version"`
	GOOS      string `json:"goos"`
	GOARCH    string `json:"goarch"`
	Hostname  string `json:"hostname"`
}

// JSStripping summarizes Post-Processor script-stripping counts.
type JSStripping struct {
	HTMLFiles             int `json:"html_files"`
	Modified               int `json:"modified"`
	ScriptsRemoved         int `json:"scripts_removed"`
	InlineScriptsRemoved   int `json:"inline_scripts_removed"`
}

// VerificationMeta carries non-manifest-schema verification timing.
type VerificationMeta struct {
	ElapsedMS int64 `json:"elapsed_ms"`
}

// Verification is the integrity verifier's result, merged into the
// manifest by the Integrity Module.
type Verification struct {
	Status      string `json:"status"` // "passed" | "failed"
	OK          int    `json:"ok"`
	Missing     int    `json:"missing"`
	Mismatched  int    `json:"mismatched"`
	Total       int    `json:"total"`
	FastMissing bool   `json:"fast_missing"`
}

// Manifest is the engine's primary machine-readable artifact (spec.md §3).
type Manifest struct {
	SchemaVersion int    `json:"schema_version"`
	ToolVersion   string `json:"tool_version"`
	StartedUTC    string `json:"started_utc"`
	CompletedUTC  string `json:"completed_utc,omitempty"`

	URL            string `json:"url"`
	DockerName     string `json:"docker_name"`
	OutputFolder   string `json:"output_folder"`
	CloneSuccess   bool   `json:"clone_success"`
	DockerBuilt    bool   `json:"docker_built"`

	Prerender            bool `json:"prerender"`
	PrerenderPages       int  `json:"prerender_pages"`
	RoutesDiscovered     int  `json:"routes_discovered"`
	CaptureAPI           bool `json:"capture_api"`
	APICapture           bool `json:"api_capture"` // alias of CaptureAPI, must stay equal
	APICapturedCount     int  `json:"api_captured_count"`
	APICaptureNote       string `json:"api_capture_note,omitempty"`
	CaptureGraphQL       bool `json:"capture_graphql"`
	GraphQLCapturedCount int  `json:"graphql_captured_count"`
	CaptureStorage       bool `json:"capture_storage"`
	StorageCapturedCount int  `json:"storage_captured_count"`
	RouterIntercept      bool `json:"router_intercept"`
	RouterMaxRoutes      int  `json:"router_max_routes,omitempty"`

	ChecksumsIncluded bool              `json:"checksums_included"`
	Checksums         bool              `json:"checksums"` // alias of ChecksumsIncluded, must stay equal
	ChecksumsSHA256   map[string]string `json:"checksums_sha256,omitempty"`

	Resume Resume `json:"resume"`

	Environment Environment `json:"environment"`

	Timings                map[string]float64 `json:"timings"`
	PhaseDurationsSeconds  map[string]float64 `json:"phase_durations_seconds"`

	ReproduceCommand []string `json:"reproduce_command"`

	Warnings []string `json:"warnings"`

	JSStripping *JSStripping `json:"js_stripping,omitempty"`

	PluginModifications map[string]int `json:"plugin_modifications,omitempty"`

	Verification     *Verification     `json:"verification,omitempty"`
	VerificationMeta *VerificationMeta `json:"verification_meta,omitempty"`

	Canceled bool `json:"canceled,omitempty"`

	SizeCapBytes        int64 `json:"size_cap_bytes,omitempty"`
	ThrottleBytesPerSec int64 `json:"throttle_bytes_per_sec,omitempty"`
	DOMStableMS         int   `json:"dom_stable_ms,omitempty"`
	DOMStableTimeoutMS  int   `json:"dom_stable_timeout_ms,omitempty"`

	WgetMissing bool `json:"wget2_missing,omitempty"`

	// Extensions is the escape hatch: plugin finalize hooks may attach
	// arbitrary JSON here without widening the struct (spec.md §9).
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
}

// SyncAliases enforces the two alias invariants spec.md §3/§8 require:
// capture_api == api_capture and checksums == checksums_included.
func (m *Manifest) SyncAliases() {
	m.APICapture = m.CaptureAPI
	m.Checksums = m.ChecksumsIncluded
}

// DerivePhaseDurations computes phase_durations_seconds from Timings: every
// timing key except the "total" key itself; other keys ending in "_total"
// are kept.
func (m *Manifest) DerivePhaseDurations() {
	out := make(map[string]float64, len(m.Timings))
	for k, v := range m.Timings {
		if k == "total" {
			continue
		}
		out[k] = v
	}
	m.PhaseDurationsSeconds = out
}

// Save writes the manifest to path as indented JSON, after syncing aliases
// and derived fields. Writes are not atomic-renamed: spec.md §5 only
// requires atomicity "enough that a read-while-write race is acceptable
// only for the cleanup phase", i.e. a plain O_TRUNC write suffices here.
func (m *Manifest) Save(path string) error {
	m.SyncAliases()
	m.DerivePhaseDurations()
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Load reads a manifest back from disk.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
