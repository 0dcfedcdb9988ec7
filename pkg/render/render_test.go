package render

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cloneforge/internal/ui"
	"github.com/kraklabs/cloneforge/pkg/config"
)

func TestPageQueueDedup(t *testing.T) {
	q := newPageQueue("https://example.com/")
	q.push("https://example.com/")
	q.push("https://example.com/a")
	require.False(t, q.empty())
	require.Equal(t, "https://example.com/", q.pop())
	require.Equal(t, "https://example.com/a", q.pop())
	require.True(t, q.empty())
}

func TestNormalizeRoute(t *testing.T) {
	require.Equal(t, "/a/b", NormalizeRoute("/a/b", false))
	require.Equal(t, "/a?x=1", NormalizeRoute("/a?x=1", false))
	require.Equal(t, "/a", NormalizeRoute("/a#frag", false))
	require.Equal(t, "/a#frag", NormalizeRoute("/a#frag", true))
	require.Equal(t, "", NormalizeRoute("javascript:void(0)", false))
	require.Equal(t, "", NormalizeRoute("mailto:a@b.com", false))
}

func TestRouteSetCountsRecordedRoutes(t *testing.T) {
	rs := NewRouteSet(2)
	rs.seen["/a"] = true
	rs.order = append(rs.order, "/a")
	require.Equal(t, 1, rs.Count())
}

func TestPassesFilters(t *testing.T) {
	allow := compileAll([]string{"^/blog/"})
	deny := compileAll([]string{"/blog/draft"})
	require.True(t, passesFilters("/blog/post-1", allow, deny))
	require.False(t, passesFilters("/blog/draft-1", allow, deny))
	require.False(t, passesFilters("/about", allow, deny))
}

func TestCompileAllSkipsRiskyPattern(t *testing.T) {
	res := compileAll([]string{"(a+b+)+", "^/safe/"})
	require.Len(t, res, 1)
}

func TestOutputRelPath(t *testing.T) {
	require.Equal(t, "index.html", outputRelPath("https://example.com/", "https://example.com/"))
	require.Equal(t, "about.html", outputRelPath("https://example.com/about", "https://example.com/"))
	require.Equal(t, "assets/logo.png", outputRelPath("https://example.com/assets/logo.png", "https://example.com/"))
}

func TestBaseMediaType(t *testing.T) {
	require.Equal(t, "application/json", baseMediaType("application/json; charset=utf-8"))
}

func TestLooksLikeGraphQL(t *testing.T) {
	require.True(t, looksLikeGraphQL("/graphql", "POST", ""))
	require.True(t, looksLikeGraphQL("/api", "POST", `{"query":"{ viewer { id } }"}`))
	require.False(t, looksLikeGraphQL("/api/users", "GET", ""))
}

func TestGraphqlOperationExtractsName(t *testing.T) {
	require.Equal(t, "GetViewer", graphqlOperation(`{"operationName":"GetViewer","query":"..."}`))
}

func TestRunWithForcedMissingBrowserStillRunsHookScript(t *testing.T) {
	t.Setenv(browserForceMissingEnv, "1")

	hookPath := filepath.Join(t.TempDir(), "hook.js")
	require.NoError(t, os.WriteFile(hookPath, []byte("/* noop */"), 0o644))

	var logged []string
	log := slog.New(slog.NewTextHandler(&lineCapture{lines: &logged}, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := config.CloneConfig{URL: "https://example.com/", HookScript: hookPath, PrerenderMaxPages: 1}
	r := New(cfg, t.TempDir(), ui.NullObserver{}, log)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	require.True(t, stats.BrowserMissing)

	found := false
	for _, l := range logged {
		if strings.Contains(l, "running without a page context") {
			found = true
		}
	}
	require.True(t, found, "expected the hook script to run with a nil page when the browser is unavailable")
}

// lineCapture is an io.Writer that splits slog's text output into lines for
// substring assertions, without pulling in a third-party log-capture helper.
type lineCapture struct {
	lines *[]string
}

func (c *lineCapture) Write(p []byte) (int, error) {
	*c.lines = append(*c.lines, string(p))
	return len(p), nil
}
