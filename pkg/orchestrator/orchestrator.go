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

// Package orchestrator implements the Orchestrator (spec.md §4.1): it
// sequences every phase of a capture run, propagates cancellation,
// accumulates timings, and builds the final manifest and exit
// classification.
//
// The phase-sequencing + timings-accumulation pattern (a fixed ordered
// list of named steps, each timed and checked against a cancellation
// token before running) is grounded on the teacher's
// pkg/ingestion/local_pipeline.go, which drives its own ingest pipeline
// the same way.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	cferrors "github.com/kraklabs/cloneforge/internal/errors"
	"github.com/kraklabs/cloneforge/internal/ui"
	"github.com/kraklabs/cloneforge/pkg/config"
	"github.com/kraklabs/cloneforge/pkg/containerbuild"
	"github.com/kraklabs/cloneforge/pkg/events"
	"github.com/kraklabs/cloneforge/pkg/fingerprint"
	"github.com/kraklabs/cloneforge/pkg/integrity"
	"github.com/kraklabs/cloneforge/pkg/manifest"
	"github.com/kraklabs/cloneforge/pkg/mirror"
	"github.com/kraklabs/cloneforge/pkg/pluginhost"
	"github.com/kraklabs/cloneforge/pkg/postprocess"
	"github.com/kraklabs/cloneforge/pkg/regexrisk"
	"github.com/kraklabs/cloneforge/pkg/render"
)

// forceCancelEnv lets operators and tests simulate mid-run cancellation
// deterministically, mirrored from the Mirror Driver's own
// CLONEFORGE_FORCE_NO_MIRROR escape hatch (spec.md §9).
const forceCancelEnv = "CLONEFORGE_FORCE_CANCEL"

// baseWeights gives each optionally-run phase its share of overall
// progress when every optional phase is active (spec.md §9: "weighted
// progress normalization... clone dominates when alone; build,
// prerender, checksums, verify, cleanup draw from clone's share when
// present"). Phases not listed here (start, scaffold, readme, diff,
// manifest, post_asset, finalize) are bookkeeping steps with no visible
// progress segment of their own.
var baseWeights = map[string]float64{
	"clone":     0.50,
	"prerender": 0.20,
	"build":     0.15,
	"checksums": 0.05,
	"verify":    0.05,
	"cleanup":   0.05,
}

// computeWeights normalizes baseWeights down to just the phases this run
// will actually execute, so their shares always sum to 1.0.
func (o *Orchestrator) computeWeights() map[string]float64 {
	active := map[string]bool{"clone": true}
	if o.cfg.Prerender {
		active["prerender"] = true
	}
	if o.cfg.Build {
		active["build"] = true
	}
	if o.cfg.VerifyAfter || o.cfg.Checksums {
		active["checksums"] = true
	}
	if o.cfg.VerifyAfter {
		active["verify"] = true
	}
	if o.cfg.Cleanup {
		active["cleanup"] = true
	}

	var sum float64
	for name := range active {
		sum += baseWeights[name]
	}
	if sum == 0 {
		return nil
	}
	out := make(map[string]float64, len(active))
	for name := range active {
		out[name] = baseWeights[name] / sum
	}
	return out
}

// weightOrder fixes the run order of the weighted phases so a phase's base
// offset (the cumulative weight of everything that finishes before it) can
// be computed without threading extra state through mirror/render/build.
var weightOrder = []string{"clone", "prerender", "build", "checksums", "verify", "cleanup"}

// weightedObserver rewrites each weighted phase's own 0..1 completion
// fraction into its place in the overall 0..1 progress bar, per spec.md §9's
// weighting requirement. Phases outside weights (scaffold, readme, diff,
// post_asset, ...) pass through untouched: they have no reserved share of
// overall progress.
type weightedObserver struct {
	ui.Observer
	weights map[string]float64
}

func newWeightedObserver(obs ui.Observer, weights map[string]float64) ui.Observer {
	return &weightedObserver{Observer: obs, weights: weights}
}

func (w *weightedObserver) Phase(name string, pct float64) {
	share, ok := w.weights[name]
	if !ok {
		w.Observer.Phase(name, pct)
		return
	}
	var base float64
	for _, n := range weightOrder {
		if n == name {
			break
		}
		base += w.weights[n]
	}
	w.Observer.Phase(name, base+share*pct)
}

// Checksum must route through w.Phase rather than the embedded Observer's
// Checksum, which would otherwise call the unwrapped Phase directly and
// skip the blending above.
func (w *weightedObserver) Checksum(pct float64) {
	w.Phase("checksums", pct)
}

// Result is what the CLI layer needs to compute its exit code and print
// a summary.
type Result struct {
	Manifest *manifest.Manifest
	ExitCode int
	Err      error
}

// Orchestrator drives one capture run end to end.
type Orchestrator struct {
	cfg     config.CloneConfig
	obs     ui.Observer
	emit    *events.Emitter
	log     *slog.Logger
	runID   string
	timings map[string]float64
}

// New constructs an Orchestrator for one run.
func New(cfg config.CloneConfig, obs ui.Observer, emit *events.Emitter, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{cfg: cfg, obs: obs, emit: emit, log: log, runID: emit.RunID(), timings: map[string]float64{}}
}

func (o *Orchestrator) isCanceled(ctx context.Context) bool {
	if os.Getenv(forceCancelEnv) != "" {
		return true
	}
	return ctx.Err() != nil || o.obs.IsCanceled()
}

// timed runs fn, recording its wall-clock duration under key and emitting
// phase_start/phase_end around it.
func (o *Orchestrator) timed(key string, fn func() error) error {
	_ = o.emit.Emit(events.PhaseStart, map[string]any{"phase": key})
	start := time.Now()
	err := fn()
	elapsed := time.Since(start).Seconds()
	o.timings[key] = elapsed
	if err != nil {
		_ = o.emit.Emit(events.PhaseError, map[string]any{"phase": key, "error": err.Error()})
		return err
	}
	_ = o.emit.Emit(events.PhaseEnd, map[string]any{"phase": key, "elapsed_seconds": elapsed})
	return nil
}

// Run executes start -> clone -> [prerender] -> [js_strip] -> scaffold ->
// [build] -> [run/serve] -> readme -> [diff] -> manifest -> [verify] ->
// [post_asset] -> [finalize] -> [cleanup] -> summary, per spec.md §4.1.
func (o *Orchestrator) Run(ctx context.Context) Result {
	if err := o.cfg.Validate(); err != nil {
		return o.fail(nil, err)
	}

	outputFolder := o.cfg.OutputFolder()
	if err := os.MkdirAll(outputFolder, 0o755); err != nil {
		return o.fail(nil, cferrors.NewInternalError("could not create output folder", err.Error(), "check permissions on --dest", err))
	}

	if weights := o.computeWeights(); weights != nil {
		o.obs = newWeightedObserver(o.obs, weights)
	}

	var metrics *events.MetricsSink
	if o.cfg.Profile {
		metrics = events.NewMetricsSink()
		o.emit.AddSink(metrics)
	}

	m := &manifest.Manifest{
		SchemaVersion: manifest.SchemaVersion,
		ToolVersion:   events.ToolVersion,
		StartedUTC:    time.Now().UTC().Format(time.RFC3339Nano),
		URL:           o.cfg.URL,
		DockerName:    o.cfg.DockerName,
		OutputFolder:  outputFolder,
		Timings:       o.timings,
		Environment: manifest.Environment{
			GoVersion: runtime.Version(),
			GOOS:      runtime.GOOS,
			GOARCH:    runtime.GOARCH,
			Hostname:  hostname(),
		},
		ReproduceCommand: config.ReproduceCommand(o.cfg),
		CaptureAPI:       o.cfg.CaptureAPI,
		CaptureGraphQL:   o.cfg.CaptureGraphQL,
		CaptureStorage:   o.cfg.CaptureStorage,
		RouterIntercept:  o.cfg.RouterIntercept,
		RouterMaxRoutes:  o.cfg.RouterMaxRoutes,
		Prerender:        o.cfg.Prerender,
		SizeCapBytes:     o.cfg.SizeCapBytes,
		ThrottleBytesPerSec: o.cfg.ThrottleBytesPerSec,
		DOMStableMS:      o.cfg.DOMStableMS,
		DOMStableTimeoutMS: o.cfg.DOMStableTimeoutMS,
	}

	_ = o.emit.Emit(events.Start, map[string]any{"url": o.cfg.URL, "docker_name": o.cfg.DockerName})

	if o.cfg.DryRun {
		m.CompletedUTC = time.Now().UTC().Format(time.RFC3339Nano)
		return o.finish(m, nil)
	}

	// --- plugin discovery + pre_download ------------------------------------
	var pluginHost *pluginhost.Host
	if o.cfg.PluginsDir != "" {
		var discErr error
		pluginHost, discErr = pluginhost.Discover(o.cfg.PluginsDir, o.log)
		if discErr != nil {
			_ = o.emit.Emit(events.PluginLoadFailed, map[string]any{"error": discErr.Error()})
		} else if pluginHost.HasPlugins() {
			for _, name := range pluginHost.Names() {
				_ = o.emit.Emit(events.PluginLoaded, map[string]any{"plugin": name})
			}
			pluginHost.Call(ctx, pluginhost.Request{
				Hook:  pluginhost.HookPreDownload,
				RunID: o.runID,
				URL:   o.cfg.URL,
				Path:  outputFolder,
			}, nil)
		}
	}

	// --- estimate ------------------------------------------------------------
	if o.cfg.EstimateFirst {
		_ = o.timed("estimate", func() error {
			count := mirror.Estimate(ctx, o.cfg)
			_ = o.emit.Emit(events.Estimate, map[string]any{"count": count})
			return nil
		})
	}

	// --- cookie import -----------------------------------------------------
	if o.cfg.ImportBrowserCookies && o.cfg.CookiesFile == "" {
		cookies, err := render.CollectBrowserCookies(ctx, o.cfg.URL)
		if err != nil {
			o.log.Warn("browser cookie import failed, continuing without cookies", "error", err)
		} else {
			importedPath := filepath.Join(outputFolder, "imported_cookies.txt")
			if err := mirror.WriteNetscapeCookieFile(importedPath, cookies); err != nil {
				o.log.Warn("could not write imported cookie jar", "error", err)
			} else {
				o.cfg.CookiesFile = importedPath
			}
		}
	}

	// --- clone -----------------------------------------------------------
	mirrorBin := o.cfg.MirrorBin
	if mirrorBin == "" {
		mirrorBin = "wget2"
	}
	if installed, tooOld := mirror.CheckVersion(ctx, mirrorBin); tooOld {
		o.log.Warn("mirror tool is older than the known-good floor, continuing anyway",
			"bin", mirrorBin, "installed", installed, "minimum", "2.0.0")
	}

	var mirRes mirror.Result
	if err := o.timed("clone", func() error {
		mirRes = mirror.Run(ctx, o.cfg, outputFolder, o.obs)
		return mirror.Classify(mirRes)
	}); err != nil {
		ce := cferrors.AsCloneError(err)
		if ce.Kind == cferrors.KindDependencyMissing {
			m.WgetMissing = true
			m.CloneSuccess = false
			m.CompletedUTC = time.Now().UTC().Format(time.RFC3339Nano)
			o.log.Warn("mirror tool unavailable, writing degraded manifest and stopping")
			if saveErr := m.Save(filepath.Join(outputFolder, "clone_manifest.json")); saveErr != nil {
				o.log.Warn("could not write degraded manifest", "error", saveErr)
			}
			return o.fail(m, err)
		} else if ce.Kind == cferrors.KindCanceled {
			return o.canceled(m)
		} else {
			return o.fail(m, err)
		}
	}
	m.Resume = manifest.Resume{
		PreFiles:  mirRes.PreFileCount,
		PostFiles: mirRes.PostFileCount,
		NewFiles:  mirRes.NewFiles,
	}
	m.CloneSuccess = mirRes.Err == nil

	if o.isCanceled(ctx) {
		return o.canceled(m)
	}

	// --- prerender ---------------------------------------------------------
	if o.cfg.Prerender {
		var stats *render.Stats
		if err := o.timed("prerender", func() error {
			r := render.New(o.cfg, outputFolder, o.obs, o.log)
			var runErr error
			stats, runErr = r.Run(ctx)
			return runErr
		}); err != nil {
			o.log.Warn("prerender failed, continuing without dynamic capture", "error", err)
		}
		if stats != nil {
			m.PrerenderPages = stats.PagesProcessed
			m.RoutesDiscovered = stats.RoutesDiscovered
			m.APICapturedCount = stats.APICaptures
			m.GraphQLCapturedCount = stats.GraphQLCaptures
			m.StorageCapturedCount = stats.StorageCaptures
			if stats.BrowserMissing {
				m.APICaptureNote = "dynamic renderer unavailable; static mirror only"
			}
		}
	}
	if o.isCanceled(ctx) {
		return o.canceled(m)
	}

	// --- js_strip ------------------------------------------------------
	jsStripped := false
	if o.cfg.DisableJS {
		var sres postprocess.StripResult
		if err := o.timed("js_strip", func() error {
			var stripErr error
			sres, stripErr = postprocess.StripScriptsInTree(outputFolder)
			return stripErr
		}); err == nil {
			jsStripped = sres.Modified
			m.JSStripping = &manifest.JSStripping{
				Modified:             boolToInt(sres.Modified),
				ScriptsRemoved:       sres.ScriptsRemoved,
				InlineScriptsRemoved: sres.InlineScriptsRemoved,
			}
		}
	}

	// --- scaffold --------------------------------------------------------
	_ = o.timed("scaffold", func() error {
		if err := postprocess.WriteDockerfile(outputFolder, o.cfg); err != nil {
			return err
		}
		return postprocess.WriteNginxConf(outputFolder, o.cfg, jsStripped)
	})

	// --- build -------------------------------------------------------------
	buildSucceeded := false
	var runResult containerbuild.RunResult
	if o.cfg.Build || o.cfg.RunAfterBuild || o.cfg.ServeFolder {
		driver, dialErr := containerbuild.New(o.log)
		if dialErr != nil || driver.Ping(ctx) != nil {
			m.Warnings = append(m.Warnings, "Docker daemon unavailable: skipped build/run")
			o.log.Warn("docker unavailable, skipping build/run phase")
		} else {
			defer driver.Close()

			if o.cfg.Build {
				_ = o.timed("build", func() error {
					err := driver.BuildImage(ctx, outputFolder, o.cfg.DockerName, o.obs)
					buildSucceeded = err == nil
					m.DockerBuilt = buildSucceeded
					return err
				})
			}

			if o.cfg.RunAfterBuild && buildSucceeded {
				_ = o.timed("run", func() error {
					var runErr error
					runResult, runErr = driver.RunImage(ctx, o.cfg, o.cfg.DockerName)
					if runErr == nil {
						_ = o.emit.Emit(events.RunContainer, map[string]any{"container_id": runResult.ContainerID, "url": runResult.URL, "ready": runResult.Ready})
					}
					return runErr
				})
			} else if o.cfg.ServeFolder {
				_ = o.timed("serve", func() error {
					var serveErr error
					runResult, serveErr = driver.ServeFolder(ctx, o.cfg, outputFolder, filepath.Join(outputFolder, "nginx.conf"))
					if serveErr == nil {
						_ = o.emit.Emit(events.ServeFolder, map[string]any{"container_id": runResult.ContainerID, "url": runResult.URL, "ready": runResult.Ready})
					}
					return serveErr
				})
			}
		}
	}

	if o.cfg.OpenBrowser && runResult.URL != "" {
		if err := openInBrowser(runResult.URL); err != nil {
			o.log.Warn("could not open browser", "error", err)
		}
	}

	// --- readme ------------------------------------------------------------
	readmePath := filepath.Join(outputFolder, fmt.Sprintf("README_%s.md", o.cfg.DockerName))
	_ = o.timed("readme", func() error {
		return writeReadme(readmePath, o.cfg, m)
	})

	// --- diff ------------------------------------------------------------
	if o.cfg.Incremental || o.cfg.DiffLatest {
		_ = o.timed("diff", func() error {
			statePath := filepath.Join(outputFolder, ".cloneforge", "state.json")
			prev, loadErr := fingerprint.LoadState(statePath)
			if loadErr != nil {
				return loadErr
			}
			cur, stateErr := fingerprint.NewState(outputFolder)
			if stateErr != nil {
				return stateErr
			}
			diff := fingerprint.Compare(prev, cur)
			if prev != nil {
				_ = o.emit.Emit(events.DiffSummary, map[string]any{
					"added": len(diff.Added), "removed": len(diff.Removed),
					"modified": len(diff.Modified), "unchanged": diff.UnchangedCount,
					"total": diff.TotalCurrent,
				})
				diffPath := filepath.Join(outputFolder, ".cloneforge", fmt.Sprintf("diff_%d.json", time.Now().Unix()))
				if diffErr := writeDiffArtifact(diffPath, diff); diffErr != nil {
					o.log.Warn("could not write diff artifact", "error", diffErr)
				}
			}
			return cur.Save(statePath)
		})
	}

	// --- manifest (baseline) ---------------------------------------------
	m.Timings = o.timings
	if err := m.Save(filepath.Join(outputFolder, "clone_manifest.json")); err != nil {
		return o.fail(m, err)
	}

	// --- verify ------------------------------------------------------------
	if o.cfg.VerifyAfter || o.cfg.Checksums {
		_ = o.timed("checksums", func() error {
			sums, err := integrity.ComputeChecksums(outputFolder, o.cfg.ChecksumExtra, func(done, total int) {
				if total > 0 {
					o.obs.Checksum(float64(done) / float64(total))
				}
			}, func() bool { return o.isCanceled(ctx) })
			if err != nil {
				return err
			}
			if o.isCanceled(ctx) {
				_ = o.emit.Emit(events.ChecksumsCanceled, map[string]any{"computed": len(sums)})
				return nil
			}
			m.ChecksumsIncluded = true
			m.ChecksumsSHA256 = sums
			if err := integrity.WriteVerifyScript(outputFolder); err != nil {
				return err
			}
			return nil
		})

		if o.cfg.VerifyAfter {
			_ = o.timed("verify", func() error {
				start := time.Now()
				result := integrity.Verify(outputFolder, m.ChecksumsSHA256, o.cfg.VerifyDeep)
				m.Verification = &manifest.Verification{
					Status:      verifyStatus(result),
					OK:          result.OK,
					Missing:     result.Missing,
					Mismatched:  result.Mismatched,
					Total:       result.Total,
					FastMissing: result.FastMissing,
				}
				m.VerificationMeta = &manifest.VerificationMeta{ElapsedMS: time.Since(start).Milliseconds()}
				_ = o.emit.Emit(events.Verify, map[string]any{"status": m.Verification.Status, "ok": result.OK, "missing": result.Missing, "mismatched": result.Mismatched})
				_ = integrity.AppendReadmeSection(readmePath, result)
				if !result.Passed() {
					return cferrors.NewVerificationError("verification failed", integrity.FormatResultLine(result))
				}
				return nil
			})
		}
	}

	// --- post_asset / finalize plugins ------------------------------------
	if pluginHost != nil && pluginHost.HasPlugins() {
		_ = o.emit.Emit(events.PostAssetStart, nil)
		processed := runPostAssetPlugins(ctx, pluginHost, o.runID, outputFolder, o.emit)
		_ = o.emit.Emit(events.PostAssetEnd, map[string]any{"processed": processed})

		_ = o.emit.Emit(events.PluginFinalizeStart, nil)
		manifestSnapshot, snapErr := json.Marshal(m)
		if snapErr != nil {
			manifestSnapshot = nil
		}
		failures, extensions := pluginHost.CallFinalize(ctx, o.runID, outputFolder, manifestSnapshot)
		for _, failure := range failures {
			_ = o.emit.Emit(events.PluginFinalizeError, map[string]any{"plugin": failure.Plugin, "error": failure.Err.Error()})
		}
		if len(extensions) > 0 {
			if m.Extensions == nil {
				m.Extensions = map[string]json.RawMessage{}
			}
			for k, v := range extensions {
				m.Extensions[k] = v
			}
		}
		_ = o.emit.Emit(events.PluginFinalizeEnd, nil)
		if len(pluginHost.Modifications) > 0 {
			m.PluginModifications = pluginHost.Modifications
		}
	}

	// Surface any risky router patterns the user configured, once, here,
	// so they land in both the events stream and the manifest warnings.
	for _, f := range regexrisk.DetectAll(append(append([]string{}, o.cfg.RouterAllow...), o.cfg.RouterDeny...)) {
		_ = o.emit.Emit(events.RegexWarning, map[string]any{"pattern": f.Pattern, "shape": string(f.Shape)})
		m.Warnings = append(m.Warnings, fmt.Sprintf("risky router filter pattern %q (%s)", f.Pattern, f.Shape))
	}

	// --- cleanup -----------------------------------------------------------
	if o.cfg.Cleanup {
		_ = o.timed("cleanup", func() error {
			postprocess.CleanupScaffold(outputFolder, buildSucceeded)
			_ = o.emit.Emit(events.CleanupRemoved, map[string]any{"nginx_conf": true, "dockerfile": buildSucceeded})
			return nil
		})
	}

	m.CompletedUTC = time.Now().UTC().Format(time.RFC3339Nano)
	m.Timings["total"] = sumTimings(o.timings)
	_ = o.emit.Emit(events.Timings, map[string]any{"timings": o.timings})
	_ = m.Save(filepath.Join(outputFolder, "clone_manifest.json"))

	if o.cfg.Report != "" {
		reportPath := filepath.Join(outputFolder, "clone_report."+o.cfg.Report)
		if err := writeReport(reportPath, o.cfg.Report, m); err != nil {
			o.log.Warn("could not write clone report", "error", err)
		}
	}

	if metrics != nil {
		if text, err := metrics.WriteText(); err != nil {
			o.log.Warn("could not render profiling metrics", "error", err)
		} else if err := os.WriteFile(filepath.Join(outputFolder, "clone_metrics.prom"), text, 0o644); err != nil {
			o.log.Warn("could not write clone_metrics.prom", "error", err)
		}
	}

	return o.finish(m, nil)
}

// summaryFields builds the manifest-derived fields every summary event
// carries (url, output_folder), when a manifest exists to draw them from.
func summaryFields(m *manifest.Manifest) map[string]any {
	fields := map[string]any{}
	if m != nil {
		fields["url"] = m.URL
		fields["output_folder"] = m.OutputFolder
	}
	return fields
}

func (o *Orchestrator) canceled(m *manifest.Manifest) Result {
	m.Canceled = true
	m.CompletedUTC = time.Now().UTC().Format(time.RFC3339Nano)
	_ = o.emit.Emit(events.Canceled, map[string]any{"run_id": o.runID})
	err := cferrors.NewCancellationError("clone")
	fields := summaryFields(m)
	fields["error"] = "canceled"
	_ = o.emit.Emit(events.Summary, fields)
	return Result{Manifest: m, ExitCode: cferrors.AsCloneError(err).ExitCode(), Err: err}
}

// fail reports a terminal error. m is the manifest accumulated so far, or
// nil when the failure occurred before one could be built (config
// validation, output-folder creation) — callers that already wrote a
// degraded manifest to disk (e.g. a missing mirror tool) pass it along so
// Result.Manifest reflects what actually landed on the filesystem.
func (o *Orchestrator) fail(m *manifest.Manifest, err error) Result {
	ce := cferrors.AsCloneError(err)
	fields := summaryFields(m)
	if m != nil && m.WgetMissing {
		fields["error"] = "wget_missing"
	} else {
		fields["error"] = ce.Title
	}
	_ = o.emit.Emit(events.Summary, fields)
	return Result{Manifest: m, ExitCode: ce.ExitCode(), Err: err}
}

func (o *Orchestrator) finish(m *manifest.Manifest, err error) Result {
	exitCode := cferrors.ExitSuccess
	fields := summaryFields(m)
	if err != nil {
		exitCode = cferrors.AsCloneError(err).ExitCode()
		fields["error"] = cferrors.AsCloneError(err).Title
	} else if m.Verification != nil && m.Verification.Status == "failed" {
		exitCode = cferrors.ExitVerifyFailed
		fields["error"] = "verification failed"
	}
	_ = o.emit.Emit(events.Summary, fields)
	return Result{Manifest: m, ExitCode: exitCode, Err: err}
}

func verifyStatus(r integrity.Result) string {
	if r.Passed() {
		return "passed"
	}
	return "failed"
}

func sumTimings(t map[string]float64) float64 {
	var sum float64
	for k, v := range t {
		if k == "total" {
			continue
		}
		sum += v
	}
	return sum
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

// NewRunID mints a fresh run identifier (spec.md §3: "stable run_id").
func NewRunID() string {
	return uuid.NewString()
}
