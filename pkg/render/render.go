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

// Package render implements the Dynamic Renderer (spec.md §4.4): it drives
// a headless browser across a bounded page queue, waits for each page to
// settle, snapshots its rendered HTML (optionally rewriting absolute
// URLs), captures storage and API/GraphQL traffic, and discovers
// in-origin routes via either anchor-following or history/router
// interception.
//
// The overall page lifecycle (stealth injection before navigation, an
// idle-wait strategy, then HTML extraction) is grounded on
// Easonliuliang-purify's scraper/page.go doScrapeRod; DOM-mutation-based
// stability is grounded on hazyhaar-chrc's domwatch/internal/observer's
// use of an injected MutationObserver alongside CDP tracking. Both were
// independently retrieved for this spec (see SPEC_FULL.md §2).
package render

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/kraklabs/cloneforge/internal/ui"
	"github.com/kraklabs/cloneforge/pkg/config"
)

// Stats summarizes one render run, folded into the manifest (spec.md §3).
type Stats struct {
	PagesProcessed   int
	RoutesDiscovered int
	APICaptures      int
	GraphQLCaptures  int
	StorageCaptures  int
	BrowserMissing   bool
	Pages            []PageResult
}

// PageResult is one rendered page's outcome.
type PageResult struct {
	URL       string
	OutputRel string
	Bytes     int
	StorageOK bool
}

// Renderer drives the headless browser across the crawl queue.
type Renderer struct {
	cfg     config.CloneConfig
	destDir string
	obs     ui.Observer
	log     *slog.Logger
	router  *RouteSet
}

// New constructs a Renderer for one capture run.
func New(cfg config.CloneConfig, destDir string, obs ui.Observer, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{
		cfg:     cfg,
		destDir: destDir,
		obs:     obs,
		log:     log,
		router:  NewRouteSet(cfg.RouterMaxRoutes),
	}
}

// browserForceMissingEnv lets tests and operators simulate an unavailable
// browser engine without actually uninstalling Chromium, matching the
// CLONEFORGE_FORCE_NO_MIRROR idiom used by the Mirror Driver for its own
// degraded path (spec.md §9).
const browserForceMissingEnv = "CLONEFORGE_FORCE_NO_BROWSER"

// Run executes the full prerender pass: launches the browser, seeds the
// queue with cfg.URL, and processes pages (bounded by
// cfg.PrerenderMaxPages) until the queue drains or cancellation fires.
func (r *Renderer) Run(ctx context.Context) (*Stats, error) {
	if os.Getenv(browserForceMissingEnv) != "" {
		r.obs.Log("prerender: browser engine unavailable, skipping dynamic capture")
		r.runHookOnMissingBrowser()
		return &Stats{BrowserMissing: true}, nil
	}

	browserPath, has := launcher.LookPath()
	if !has {
		r.obs.Log("prerender: no Chromium-family browser found on this system")
		r.runHookOnMissingBrowser()
		return &Stats{BrowserMissing: true}, nil
	}

	l := launcher.New().Bin(browserPath).Headless(true)
	defer l.Cleanup()
	controlURL, err := l.Launch()
	if err != nil {
		r.obs.Log("prerender: failed to launch browser: " + err.Error())
		r.runHookOnMissingBrowser()
		return &Stats{BrowserMissing: true}, nil
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		r.obs.Log("prerender: failed to connect to browser: " + err.Error())
		r.runHookOnMissingBrowser()
		return &Stats{BrowserMissing: true}, nil
	}
	defer browser.Close()

	stats := &Stats{}
	queue := newPageQueue(r.cfg.URL)

	for !queue.empty() && len(stats.Pages) < r.cfg.PrerenderMaxPages {
		if r.obs.IsCanceled() || ctx.Err() != nil {
			break
		}
		next := queue.pop()
		pr, discovered, err := r.renderOne(ctx, browser, next)
		if err != nil {
			r.obs.Log(fmt.Sprintf("prerender: %s failed: %v", next, err))
			continue
		}
		stats.Pages = append(stats.Pages, pr)
		if pr.StorageOK {
			stats.StorageCaptures++
		}
		for _, d := range discovered {
			queue.push(d)
		}
		r.obs.Phase("prerender", float64(len(stats.Pages))/float64(r.cfg.PrerenderMaxPages))
	}

	stats.PagesProcessed = len(stats.Pages)
	stats.RoutesDiscovered = r.router.Count()
	r.obs.RouterCount(stats.RoutesDiscovered)
	return stats, nil
}

// runHookOnMissingBrowser passes the configured hook script to
// runHookScript once with a nil page when the browser engine could not be
// started at all; the script is read and logged there, not evaluated.
func (r *Renderer) runHookOnMissingBrowser() {
	if r.cfg.HookScript != "" {
		runHookScript(r.cfg.HookScript, nil, r.log)
	}
}

// renderOne navigates to pageURL, waits for it to settle, snapshots its
// HTML, optionally captures storage, and returns same-origin links
// discovered on the page for the queue.
func (r *Renderer) renderOne(ctx context.Context, browser *rod.Browser, pageURL string) (PageResult, []string, error) {
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return PageResult{}, nil, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Navigate("about:blank")
		_ = page.Close()
	}()

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		r.log.Warn("stealth injection failed, proceeding without it", "error", err)
	}

	var hijackStop func() error
	var apiCap *apiCapture
	if r.cfg.CaptureAPI {
		apiCap = newAPICapture(r.cfg, r.destDir)
		hijackStop = apiCap.install(page)
	}
	if hijackStop != nil {
		defer func() { _ = hijackStop() }()
	}

	if r.cfg.RouterIntercept {
		if err := installRouterHooks(page); err != nil {
			r.log.Warn("router interception injection failed", "error", err)
		}
	}

	p := page.Context(ctx)
	if err := p.Navigate(pageURL); err != nil {
		return PageResult{}, nil, fmt.Errorf("navigate: %w", err)
	}

	waitNetworkIdle(p)
	waitDOMStable(p, r.cfg.DOMStableMS, r.cfg.DOMStableTimeoutMS)

	for i := 0; i < r.cfg.PrerenderScroll; i++ {
		_, _ = p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
		time.Sleep(150 * time.Millisecond)
	}

	if r.cfg.RouterIntercept {
		r.settleRouter(p)
	}

	if r.cfg.HookScript != "" {
		runHookScript(r.cfg.HookScript, p, r.log)
	}

	html, err := p.HTML()
	if err != nil {
		return PageResult{}, nil, fmt.Errorf("extract HTML: %w", err)
	}
	if r.cfg.RewriteAbsoluteURLs {
		html = rewriteAbsoluteURLs(html, pageURL)
	}

	outRel := outputRelPath(pageURL, r.cfg.URL)
	outPath := filepath.Join(r.destDir, outRel)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return PageResult{}, nil, fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(html), 0o644); err != nil {
		return PageResult{}, nil, fmt.Errorf("write html: %w", err)
	}

	storageOK := false
	if r.cfg.CaptureStorage {
		if err := captureStorage(p, r.destDir, outRel); err == nil {
			storageOK = true
		}
	}

	var discovered []string
	if r.cfg.RouterIntercept {
		discovered = r.router.Discover(p, r.cfg.URL, r.cfg.RouterAllow, r.cfg.RouterDeny, r.cfg.RouterIncludeHash)
	} else {
		discovered = discoverAnchors(p, r.cfg.URL)
	}

	return PageResult{URL: pageURL, OutputRel: outRel, Bytes: len(html), StorageOK: storageOK}, discovered, nil
}

func (r *Renderer) settleRouter(p *rod.Page) {
	if r.cfg.RouterWaitSelector != "" {
		if el, err := p.Timeout(2 * time.Second).Element(r.cfg.RouterWaitSelector); err == nil {
			_ = el.WaitVisible()
		}
	}
	if r.cfg.RouterSettleMS > 0 {
		time.Sleep(time.Duration(r.cfg.RouterSettleMS) * time.Millisecond)
	}
}

// waitNetworkIdle waits until no request has been in flight for 300ms; it
// has no upper bound of its own beyond the page's context, matching purify's pre-Fetch-domain-conflict approach of falling
// back to DOM-stability when idle detection itself is unreliable.
func waitNetworkIdle(p *rod.Page) {
	wait := p.WaitRequestIdle(300*time.Millisecond, nil, nil, nil)
	wait()
}

// waitDOMStable polls for a quiet DOM (no size/mutation-count change for
// one poll interval), bounded by timeoutMS. A 0 stableMS/timeoutMS simply
// uses rod's own default stability heuristic once.
func waitDOMStable(p *rod.Page, stableMS, timeoutMS int) {
	diff := 0.1
	window := 300 * time.Millisecond
	if stableMS > 0 {
		window = time.Duration(stableMS) * time.Millisecond
	}
	if timeoutMS > 0 {
		p = p.Timeout(time.Duration(timeoutMS) * time.Millisecond)
	}
	_ = p.WaitDOMStable(window, diff)
}

// rewriteAbsoluteURLs removes every occurrence of the page's own
// scheme+host from the document (in attributes and text alike), leaving
// root-relative paths, so the snapshot behaves
// correctly when served from an arbitrary container port (spec.md §4.4).
func rewriteAbsoluteURLs(html, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return html
	}
	origin := u.Scheme + "://" + u.Host
	return strings.ReplaceAll(html, origin, "")
}

// outputRelPath derives a project-relative output path for pageURL: the
// root page becomes index.html, and nested paths receive a .html
// extension when they don't already name a file.
func outputRelPath(pageURL, rootURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "index.html"
	}
	p := strings.Trim(u.Path, "/")
	if p == "" {
		return "index.html"
	}
	if strings.Contains(filepath.Base(p), ".") {
		return p
	}
	return p + ".html"
}
