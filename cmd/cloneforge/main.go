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

// Package main implements the cloneforge CLI: a single-command clone
// orchestration engine that mirrors a website, optionally prerenders its
// dynamic routes, and packages the result for replay in a container.
//
// Usage:
//
//	cloneforge --url https://example.com --dest ./out --docker-name site
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cloneforge/internal/errors"
	"github.com/kraklabs/cloneforge/internal/ui"
	"github.com/kraklabs/cloneforge/pkg/config"
	"github.com/kraklabs/cloneforge/pkg/events"
	"github.com/kraklabs/cloneforge/pkg/integrity"
	"github.com/kraklabs/cloneforge/pkg/orchestrator"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	flag.SetInterspersed(false)

	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")

		url        = flag.String("url", "", "Source URL to clone")
		dest       = flag.String("dest", ".", "Destination base directory")
		dockerName = flag.String("docker-name", "site", "Project/image name")
		bindIP     = flag.String("bind-ip", "127.0.0.1", "Host IP to bind the served container to")
		hostPort   = flag.Int("host-port", 8080, "Host port to publish")
		containerPort = flag.Int("container-port", 80, "Container port the server listens on")
		sizeCap    = flag.Int64("size-cap", 0, "Abort the mirror once this many bytes have been downloaded (0 = unlimited)")
		throttle   = flag.Int64("throttle", 0, "Limit download rate in bytes/sec (0 = unlimited)")
		authUser   = flag.String("auth-user", "", "HTTP basic auth username")
		authPass   = flag.String("auth-pass", "", "HTTP basic auth password")
		cookiesFile = flag.String("cookies-file", "", "Netscape-format cookie jar to send with requests")
		importBrowserCookies = flag.Bool("import-browser-cookies", false, "Import cookies from the local browser profile")
		estimate   = flag.Bool("estimate", false, "Print an estimate before cloning, without downloading")
		jobs       = flag.Int("jobs", 4, "Parallel download workers")
		build      = flag.Bool("build", false, "Build a Docker image from the cloned site")
		runBuilt   = flag.Bool("run-built", false, "Run the built image after a successful build")
		serveFolder = flag.Bool("serve-folder", false, "Serve the cloned folder with a stock web-server image, skipping a real build")
		openBrowser = flag.Bool("open-browser", false, "Open the served site in the local default browser")

		prerender  = flag.Bool("prerender", false, "Render dynamic pages with a headless browser")
		prerenderMaxPages = flag.Int("prerender-max-pages", 50, "Maximum pages to render")
		prerenderScroll = flag.Int("prerender-scroll", 0, "Number of scroll-to-bottom passes per page")
		domStableMS = flag.Int("dom-stable-ms", 0, "DOM mutation quiet window in milliseconds")
		domStableTimeoutMS = flag.Int("dom-stable-timeout-ms", 2000, "Max time to wait for DOM stability")
		captureAPI = flag.Bool("capture-api", false, "Capture XHR/fetch JSON responses during prerender")
		captureAPITypes = flag.StringSlice("capture-api-types", []string{"application/json"}, "Content types to capture under --capture-api")
		captureAPIBinary = flag.Bool("capture-api-binary", false, "Capture non-JSON API response bodies too")
		captureStorage = flag.Bool("capture-storage", false, "Capture localStorage/sessionStorage per page")
		captureGraphQL = flag.Bool("capture-graphql", false, "Detect and separately capture GraphQL operations")
		hookScript = flag.String("hook-script", "", "JS file to evaluate in-page after each render")
		disableJS  = flag.Bool("disable-js", false, "Strip <script> tags from captured HTML")
		noURLRewrite = flag.Bool("no-url-rewrite", false, "Do not rewrite absolute same-origin URLs to relative ones")

		routerIntercept = flag.Bool("router-intercept", false, "Intercept client-side navigation to discover SPA routes")
		routerIncludeHash = flag.Bool("router-include-hash", false, "Include URL fragments when normalizing discovered routes")
		routerMaxRoutes = flag.Int("router-max-routes", 200, "Maximum distinct routes to discover")
		routerSettleMS = flag.Int("router-settle-ms", 300, "Settle time after a client-side navigation before snapshotting")
		routerWaitSelector = flag.String("router-wait-selector", "", "CSS selector to wait for before snapshotting a route")
		routerAllow = flag.StringSlice("router-allow", nil, "Regexes: only discover routes matching at least one")
		routerDeny  = flag.StringSlice("router-deny", nil, "Regexes: never discover routes matching any")
		routerQuiet = flag.Bool("router-quiet", false, "Suppress per-route log lines")

		noManifest = flag.Bool("no-manifest", false, "Do not write clone_manifest.json")
		checksums  = flag.Bool("checksums", false, "Compute SHA-256 checksums over in-scope files")
		checksumExt = flag.StringSlice("checksum-ext", nil, "Extra file extensions to include in the checksum scope")
		verifyAfter = flag.Bool("verify-after", false, "Verify checksums immediately after the clone completes")
		verifyDeep  = flag.Bool("verify-deep", false, "Deep verification: like fast mode it hashes every present file, but reports fast_missing=false")
		verifyFast  = flag.Bool("verify-fast", false, "Alias of --verify-after")

		configPath = flag.String("config", "", "YAML/JSON config file overlaying these flags")
		incremental = flag.Bool("incremental", false, "Persist and compare against prior-run state")
		diffLatest  = flag.Bool("diff-latest", false, "Emit a diff summary against the most recent prior state")

		jsonLogs = flag.Bool("json-logs", false, "Emit structured logs as JSON instead of text")
		pluginsDir = flag.String("plugins-dir", "", "Directory of sidecar plugin executables")
		profile  = flag.Bool("profile", false, "Record detailed phase timings")
		report   = flag.String("report", "", "Write a clone_report alongside the manifest: json|md")
		eventsFile = flag.String("events-file", "", "NDJSON file to append structured events to")
		progress = flag.String("progress", "plain", "Console progress style: plain|rich")
		printRepro = flag.Bool("print-repro", false, "Print the reproduce command and exit")
		dryRun   = flag.Bool("dry-run", false, "Validate configuration and exit without cloning")
		cleanup  = flag.Bool("cleanup", false, "Remove build scaffolding after a successful run")
		selftestVerification = flag.Bool("selftest-verification", false, "Run the built-in verifier selftest and exit")
		mirrorBin = flag.String("mirror-bin", "wget2", "Mirror tool binary name/path (also CLONEFORGE_MIRROR_BIN)")

		noColor = flag.Bool("no-color", false, "Disable color output (respects NO_COLOR env var)")
		jsonOut = flag.Bool("json", false, "Print the final summary as JSON")
		verbose = flag.CountP("verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `cloneforge - clone orchestration engine

Usage:
  cloneforge --url <https://example.com> --dest <path> [options]

Run 'cloneforge --print-repro' after a capture to see the exact command
that reproduces it.
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("cloneforge version %s (commit %s, built %s)\n", version, commit, date)
		os.Exit(0)
	}

	if *selftestVerification {
		if err := integrity.Selftest(); err != nil {
			errors.FatalError(errors.NewSelftestError("verification selftest failed", err.Error()), *jsonOut)
		}
		fmt.Println("selftest: ok")
		os.Exit(errors.ExitSuccess)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if envBin := os.Getenv("CLONEFORGE_MIRROR_BIN"); envBin != "" {
		*mirrorBin = envBin
	}

	cfg := config.Defaults()
	cfg.URL = *url
	cfg.DestBase = *dest
	cfg.DockerName = *dockerName
	cfg.BindIP = *bindIP
	cfg.HostPort = *hostPort
	cfg.ContainerPort = *containerPort
	cfg.Jobs = *jobs
	cfg.SizeCapBytes = *sizeCap
	cfg.ThrottleBytesPerSec = *throttle
	cfg.AuthUser = *authUser
	cfg.AuthPass = *authPass
	cfg.CookiesFile = *cookiesFile
	cfg.ImportBrowserCookies = *importBrowserCookies
	cfg.EstimateFirst = *estimate
	cfg.Build = *build
	cfg.RunAfterBuild = *runBuilt
	cfg.ServeFolder = *serveFolder
	cfg.OpenBrowser = *openBrowser
	cfg.Prerender = *prerender
	cfg.PrerenderMaxPages = *prerenderMaxPages
	cfg.PrerenderScroll = *prerenderScroll
	cfg.DOMStableMS = *domStableMS
	cfg.DOMStableTimeoutMS = *domStableTimeoutMS
	cfg.CaptureAPI = *captureAPI
	cfg.CaptureAPITypes = *captureAPITypes
	cfg.CaptureAPIBinary = *captureAPIBinary
	cfg.CaptureStorage = *captureStorage
	cfg.CaptureGraphQL = *captureGraphQL
	cfg.HookScript = *hookScript
	cfg.DisableJS = *disableJS
	cfg.RewriteAbsoluteURLs = !*noURLRewrite
	cfg.RouterIntercept = *routerIntercept
	cfg.RouterIncludeHash = *routerIncludeHash
	cfg.RouterMaxRoutes = *routerMaxRoutes
	cfg.RouterSettleMS = *routerSettleMS
	cfg.RouterWaitSelector = *routerWaitSelector
	cfg.RouterAllow = *routerAllow
	cfg.RouterDeny = *routerDeny
	cfg.RouterQuiet = *routerQuiet
	cfg.EmitManifest = !*noManifest
	cfg.Checksums = *checksums
	cfg.ChecksumExtra = *checksumExt
	cfg.VerifyAfter = *verifyAfter || *verifyFast
	cfg.VerifyDeep = *verifyDeep
	cfg.Incremental = *incremental
	cfg.DiffLatest = *diffLatest
	cfg.JSONLogs = *jsonLogs
	cfg.PluginsDir = *pluginsDir
	cfg.Profile = *profile
	cfg.Report = *report
	cfg.EventsFile = *eventsFile
	cfg.DryRun = *dryRun
	cfg.Cleanup = *cleanup
	cfg.MirrorBin = *mirrorBin
	if *progress == "rich" {
		cfg.ProgressStyle = config.ProgressRich
	}

	if *configPath != "" {
		merged, err := config.LoadFile(*configPath, cfg)
		if err != nil {
			errors.FatalError(err, *jsonOut)
		}
		cfg = merged
	}

	if *printRepro {
		fmt.Println(joinArgs(config.ReproduceCommand(cfg)))
		os.Exit(errors.ExitSuccess)
	}

	if err := cfg.Validate(); err != nil {
		errors.FatalError(err, *jsonOut)
	}

	logLevel := slog.LevelWarn
	switch *verbose {
	case 1:
		logLevel = slog.LevelInfo
	default:
		if *verbose >= 2 {
			logLevel = slog.LevelDebug
		}
	}
	var handler slog.Handler
	if cfg.JSONLogs {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	runID := orchestrator.NewRunID()
	events.ToolVersion = version

	console := ui.NewConsole(os.Stderr, ui.Style(cfg.ProgressStyle), *noColor, func() bool { return ctx.Err() != nil })
	defer console.Stop()

	emit := events.NewEmitter(runID, &events.ConsoleObserverSink{
		Log:       console.Log,
		Phase:     console.Phase,
		Bandwidth: console.Bandwidth,
	})
	if cfg.EventsFile != "" {
		sink, err := events.OpenNDJSONSink(cfg.EventsFile)
		if err != nil {
			logger.Warn("could not open events file", "path", cfg.EventsFile, "error", err)
		} else {
			defer sink.Close()
			emit.AddSink(sink)
		}
	}

	orch := orchestrator.New(cfg, console, emit, logger)
	result := orch.Run(ctx)

	_ = emit.Emit(events.SummaryFinal, map[string]any{"exit_code": result.ExitCode})

	if result.Err != nil {
		errors.FatalError(result.Err, *jsonOut)
	}
	os.Exit(result.ExitCode)
}

func joinArgs(args []string) string {
	out := "cloneforge"
	for _, a := range args {
		out += " " + a
	}
	return out
}
