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

package render

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/go-rod/rod"

	"github.com/kraklabs/cloneforge/pkg/regexrisk"
)

// routerInstrumentJS wraps history.pushState/replaceState, listens for
// popstate/hashchange, and installs a capture-phase click handler on
// anchors so in-app navigations are recorded even when the app never
// triggers a full page load (spec.md §4.5, SPA routing).
const routerInstrumentJS = `() => {
  if (window.__cloneforge_routes) return;
  window.__cloneforge_routes = [];
  const record = (path) => { window.__cloneforge_routes.push(path); };

  const wrap = (fn) => function(state, title, url) {
    if (url) record(url);
    return fn.apply(this, arguments);
  };
  history.pushState = wrap(history.pushState);
  history.replaceState = wrap(history.replaceState);

  window.addEventListener('popstate', () => record(location.pathname + location.search + location.hash));
  window.addEventListener('hashchange', () => record(location.pathname + location.search + location.hash));

  document.addEventListener('click', (e) => {
    const a = e.target.closest && e.target.closest('a[href]');
    if (a && a.href) record(a.getAttribute('href'));
  }, true);
}`

// installRouterHooks injects routerInstrumentJS so it runs on every
// subsequent navigation within the page's lifetime.
func installRouterHooks(page *rod.Page) error {
	_, err := page.EvalOnNewDocument(routerInstrumentJS)
	return err
}

// RouteSet accumulates normalized, deduplicated routes discovered across
// the crawl, capped at max per spec.md §4.5 ("bound by router-max-routes,
// log a warning and stop discovering further routes beyond the cap").
type RouteSet struct {
	max   int
	seen  map[string]bool
	order []string
}

// NewRouteSet constructs a RouteSet capped at max routes.
func NewRouteSet(max int) *RouteSet {
	return &RouteSet{max: max, seen: map[string]bool{}}
}

// Count returns the number of distinct routes recorded so far.
func (r *RouteSet) Count() int {
	return len(r.order)
}

// Discover reads window.__cloneforge_routes off p, normalizes and filters
// each entry, records newly-seen routes (up to the cap), and returns the
// absolute URLs that should be enqueued for further rendering.
func (r *RouteSet) Discover(p *rod.Page, rootURL string, allow, deny []string, includeHash bool) []string {
	res, err := p.Eval(`() => window.__cloneforge_routes || []`)
	if err != nil {
		return nil
	}
	raw := res.Value.Arr()

	allowRE := compileAll(allow)
	denyRE := compileAll(deny)

	var out []string
	for _, v := range raw {
		path := v.Str()
		norm := NormalizeRoute(path, includeHash)
		if norm == "" {
			continue
		}
		if !passesFilters(norm, allowRE, denyRE) {
			continue
		}
		if r.seen[norm] {
			continue
		}
		if len(r.order) >= r.max {
			slog.Warn("router-max-routes reached, no further routes will be discovered", "max", r.max)
			break
		}
		r.seen[norm] = true
		r.order = append(r.order, norm)

		if abs, ok := toAbsolute(rootURL, norm); ok {
			out = append(out, abs)
		}
	}
	sort.Strings(out)
	return out
}

// NormalizeRoute canonicalizes a discovered route per spec.md §4.5:
// "path[?query][#fragment]", with the fragment dropped unless
// includeHash is set.
func NormalizeRoute(raw string, includeHash bool) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "javascript:") || strings.HasPrefix(raw, "mailto:") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	norm := path
	if u.RawQuery != "" {
		norm += "?" + u.RawQuery
	}
	if includeHash && u.Fragment != "" {
		norm += "#" + u.Fragment
	}
	return norm
}

// compileAll compiles each pattern, skipping (and logging) any flagged by
// regexrisk.Detect so a pathological pattern never reaches regexp.Compile
// on the crawl's hot path. Each compile happens once per run, never
// through a shared cache (spec.md §9).
func compileAll(patterns []string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range patterns {
		if findings := regexrisk.Detect(p); len(findings) > 0 {
			slog.Warn("skipping risky router filter pattern", "pattern", p, "shape", findings[0].Shape)
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			slog.Warn("invalid router filter pattern", "pattern", p, "error", err)
			continue
		}
		out = append(out, re)
	}
	return out
}

// passesFilters applies an allow-list (if any, the route must match one
// entry) followed by a deny-list (any match excludes the route).
func passesFilters(route string, allow, deny []*regexp.Regexp) bool {
	if len(allow) > 0 {
		matched := false
		for _, re := range allow {
			if re.MatchString(route) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range deny {
		if re.MatchString(route) {
			return false
		}
	}
	return true
}

func toAbsolute(rootURL, route string) (string, bool) {
	base, err := url.Parse(rootURL)
	if err != nil {
		return "", false
	}
	rel, err := url.Parse(route)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(rel).String(), true
}

// discoverAnchors is the non-router-intercept fallback: it walks
// same-origin <a href> elements on the current page.
func discoverAnchors(p *rod.Page, rootURL string) []string {
	res, err := p.Eval(fmt.Sprintf(`() => {
		const origin = %q;
		return Array.from(document.querySelectorAll('a[href]'))
			.map(a => a.href)
			.filter(href => href.startsWith(origin));
	}`, rootOrigin(rootURL)))
	if err != nil {
		return nil
	}
	var out []string
	for _, v := range res.Value.Arr() {
		out = append(out, v.Str())
	}
	return out
}

func rootOrigin(rootURL string) string {
	u, err := url.Parse(rootURL)
	if err != nil {
		return rootURL
	}
	return u.Scheme + "://" + u.Host
}
