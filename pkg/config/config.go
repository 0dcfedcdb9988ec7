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

// Package config defines CloneConfig, the immutable per-run input to the
// orchestrator (spec.md §3), plus validation and defaults. The grouping
// into identity/mirroring/dynamic-capture/routing/integrity/extensibility
// sections mirrors the teacher's own pkg/ingestion/config.go, which groups
// its Config struct by concern (project identity, embedding, storage
// backend) rather than flattening every field.
package config

import (
	"fmt"
	"net"
	"path/filepath"

	cferrors "github.com/kraklabs/cloneforge/internal/errors"
)

// ProgressStyle selects the console renderer.
type ProgressStyle string

const (
	ProgressPlain ProgressStyle = "plain"
	ProgressRich  ProgressStyle = "rich"
)

// CloneConfig is the immutable input to a single capture run (spec.md §3).
type CloneConfig struct {
	// Identity & output.
	URL          string
	DestBase     string
	DockerName   string
	BindIP       string
	HostPort     int
	ContainerPort int

	// Mirroring.
	Jobs                  int
	SizeCapBytes          int64
	ThrottleBytesPerSec   int64
	AuthUser              string
	AuthPass              string
	CookiesFile           string
	ImportBrowserCookies  bool
	Incremental           bool

	// Dynamic capture.
	Prerender           bool
	PrerenderMaxPages   int
	PrerenderScroll     int
	DOMStableMS         int
	DOMStableTimeoutMS  int
	CaptureAPI          bool
	CaptureAPITypes     []string
	CaptureAPIBinary    bool
	CaptureStorage      bool
	CaptureGraphQL      bool
	HookScript          string
	RewriteAbsoluteURLs bool

	// SPA routing.
	RouterIntercept      bool
	RouterIncludeHash    bool
	RouterMaxRoutes      int
	RouterSettleMS       int
	RouterWaitSelector   string
	RouterAllow          []string
	RouterDeny           []string
	RouterQuiet          bool

	// Integrity.
	EmitManifest     bool
	Checksums        bool
	ChecksumExtra    []string
	VerifyAfter      bool
	VerifyDeep       bool
	DiffLatest       bool

	// Extensibility & I/O.
	PluginsDir     string
	JSONLogs       bool
	EventsFile     string
	ProgressStyle  ProgressStyle
	Profile        bool
	Report         string // "", "json", or "md"
	Build          bool
	RunAfterBuild  bool
	ServeFolder    bool
	OpenBrowser    bool
	EstimateFirst  bool
	Cleanup        bool
	DisableJS      bool
	DryRun         bool
	MirrorBin      string
}

// Defaults returns a CloneConfig with every spec.md-mandated default
// populated. Callers overlay CLI flags / config-file values on top.
func Defaults() CloneConfig {
	return CloneConfig{
		DockerName:          "site",
		BindIP:               "127.0.0.1",
		HostPort:             8080,
		ContainerPort:        80,
		Jobs:                 4,
		PrerenderMaxPages:    50,
		PrerenderScroll:      0,
		DOMStableMS:          0,
		DOMStableTimeoutMS:   2000,
		CaptureAPITypes:      []string{"application/json"},
		RewriteAbsoluteURLs:  true,
		RouterMaxRoutes:      200,
		RouterSettleMS:       300,
		EmitManifest:         true,
		ProgressStyle:        ProgressPlain,
		MirrorBin:            "wget2",
	}
}

// Validate enforces spec.md §7's configuration taxonomy: missing URL,
// missing destination, invalid bind IP, build requested without an image
// name.
func (c *CloneConfig) Validate() error {
	if c.URL == "" {
		return cferrors.NewConfigError("missing URL", "a source URL is required", "pass --url <https://example.com>")
	}
	if c.DestBase == "" {
		return cferrors.NewConfigError("missing destination", "a destination base directory is required", "pass --dest <path>")
	}
	if c.BindIP != "" {
		if ip := net.ParseIP(c.BindIP); ip == nil {
			return cferrors.NewConfigError("invalid bind IP", fmt.Sprintf("%q is not a valid IP address", c.BindIP), "pass a dotted IPv4 or IPv6 address to --bind-ip")
		}
	}
	if c.Build && c.DockerName == "" {
		return cferrors.NewConfigError("build requested without image name", "--build requires --docker-name", "pass --docker-name <name> or omit --build")
	}
	if c.Jobs < 1 {
		return cferrors.NewConfigError("invalid jobs", "--jobs must be >= 1", "pass --jobs 1 or higher")
	}
	if c.Prerender && c.PrerenderMaxPages < 1 {
		return cferrors.NewConfigError("invalid prerender-max-pages", "--prerender-max-pages must be >= 1", "pass --prerender-max-pages 1 or higher")
	}
	if c.RouterIntercept && c.RouterMaxRoutes < 1 {
		return cferrors.NewConfigError("invalid router-max-routes", "--router-max-routes must be >= 1", "pass --router-max-routes 1 or higher")
	}
	if c.Report != "" && c.Report != "json" && c.Report != "md" {
		return cferrors.NewConfigError("invalid report format", fmt.Sprintf("%q is not a supported --report value", c.Report), "pass --report json or --report md")
	}
	return nil
}

// OutputFolder returns <dest>/<docker_name>, the project root (GLOSSARY).
func (c *CloneConfig) OutputFolder() string {
	return filepath.Join(c.DestBase, c.DockerName)
}
