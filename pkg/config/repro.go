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

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ReproduceCommand builds the deterministic --flag token list stored in the
// manifest's reproduce_command field (spec.md §4.8). Boolean flags appear
// only when true; integer/string fields only when they differ from
// Defaults(); list fields join with commas. Field order is fixed so that
// identical configs always produce identical token lists (testable
// property 5, scenario S6).
func ReproduceCommand(c CloneConfig) []string {
	d := Defaults()
	var tokens []string

	add := func(tok string) { tokens = append(tokens, tok) }
	addIfTrue := func(flag string, v bool) {
		if v {
			add(flag)
		}
	}
	addIntIfDiff := func(flag string, v, def int) {
		if v != def {
			add(fmt.Sprintf("%s=%d", flag, v))
		}
	}
	addInt64IfDiff := func(flag string, v, def int64) {
		if v != def {
			add(fmt.Sprintf("%s=%d", flag, v))
		}
	}
	addStrIfDiff := func(flag string, v, def string) {
		if v != "" && v != def {
			add(fmt.Sprintf("%s=%s", flag, v))
		}
	}
	addListIfNonEmpty := func(flag string, v []string) {
		if len(v) > 0 {
			add(fmt.Sprintf("%s=%s", flag, strings.Join(v, ",")))
		}
	}

	// Fixed field order — do not reorder without bumping schema_version.
	// The relative order of prerender < capture-api < checksums <
	// verify-after < incremental < diff-latest < disable-js < router-allow
	// < router-deny is a tested invariant (spec.md §8 scenario S6).
	add("--url=" + c.URL)
	add("--dest=" + c.DestBase)
	addStrIfDiff("--docker-name", c.DockerName, d.DockerName)
	addIfTrue("--build", c.Build)
	addStrIfDiff("--bind-ip", c.BindIP, d.BindIP)
	addIntIfDiff("--host-port", c.HostPort, d.HostPort)
	addIntIfDiff("--container-port", c.ContainerPort, d.ContainerPort)
	if c.SizeCapBytes > 0 {
		add("--size-cap=" + strconv.FormatInt(c.SizeCapBytes, 10))
	}
	addInt64IfDiff("--throttle", c.ThrottleBytesPerSec, d.ThrottleBytesPerSec)
	addStrIfDiff("--auth-user", c.AuthUser, "")
	addStrIfDiff("--auth-pass", maskSecret(c.AuthPass), "")
	addStrIfDiff("--cookies-file", c.CookiesFile, "")
	addIfTrue("--import-browser-cookies", c.ImportBrowserCookies)
	addIfTrue("--estimate", c.EstimateFirst)
	addIntIfDiff("--jobs", c.Jobs, d.Jobs)
	addIfTrue("--run-built", c.RunAfterBuild)
	addIfTrue("--serve-folder", c.ServeFolder)
	addIfTrue("--open-browser", c.OpenBrowser)

	addIfTrue("--prerender", c.Prerender)
	addIntIfDiff("--prerender-max-pages", c.PrerenderMaxPages, d.PrerenderMaxPages)
	addIntIfDiff("--prerender-scroll", c.PrerenderScroll, d.PrerenderScroll)
	addIntIfDiff("--dom-stable-ms", c.DOMStableMS, d.DOMStableMS)
	addIntIfDiff("--dom-stable-timeout-ms", c.DOMStableTimeoutMS, d.DOMStableTimeoutMS)

	addIfTrue("--capture-api", c.CaptureAPI)
	addListIfNonEmpty("--capture-api-types", diffStrList(c.CaptureAPITypes, d.CaptureAPITypes))
	addIfTrue("--capture-api-binary", c.CaptureAPIBinary)
	addIfTrue("--capture-storage", c.CaptureStorage)
	addIfTrue("--capture-graphql", c.CaptureGraphQL)
	addStrIfDiff("--hook-script", c.HookScript, "")
	if !c.RewriteAbsoluteURLs {
		add("--no-url-rewrite")
	}

	if !c.EmitManifest {
		add("--no-manifest")
	}
	addIfTrue("--checksums", c.Checksums)
	addListIfNonEmpty("--checksum-ext", c.ChecksumExtra)
	addIfTrue("--verify-after", c.VerifyAfter)
	addIfTrue("--verify-deep", c.VerifyDeep)
	addIfTrue("--incremental", c.Incremental)
	addIfTrue("--diff-latest", c.DiffLatest)

	addIfTrue("--disable-js", c.DisableJS)

	addIfTrue("--router-intercept", c.RouterIntercept)
	addIfTrue("--router-include-hash", c.RouterIncludeHash)
	addIntIfDiff("--router-max-routes", c.RouterMaxRoutes, d.RouterMaxRoutes)
	addIntIfDiff("--router-settle-ms", c.RouterSettleMS, d.RouterSettleMS)
	addStrIfDiff("--router-wait-selector", c.RouterWaitSelector, "")
	addListIfNonEmpty("--router-allow", c.RouterAllow)
	addListIfNonEmpty("--router-deny", c.RouterDeny)
	addIfTrue("--router-quiet", c.RouterQuiet)

	addIfTrue("--json-logs", c.JSONLogs)
	addStrIfDiff("--plugins-dir", c.PluginsDir, "")
	addIfTrue("--profile", c.Profile)
	addStrIfDiff("--events-file", c.EventsFile, "")
	addStrIfDiff("--progress", string(c.ProgressStyle), string(d.ProgressStyle))
	addIfTrue("--cleanup", c.Cleanup)

	return tokens
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

// diffStrList returns v unchanged unless it exactly equals def, in which
// case it returns nil (so the flag is omitted from the repro command).
func diffStrList(v, def []string) []string {
	if len(v) != len(def) {
		return v
	}
	for i := range v {
		if v[i] != def[i] {
			return v
		}
	}
	return nil
}
