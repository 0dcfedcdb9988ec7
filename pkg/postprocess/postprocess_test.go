package postprocess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cloneforge/pkg/config"
)

func TestStripScriptsRemovesInlineAndExternal(t *testing.T) {
	html := `<html><head><script src="/a.js"></script><script>alert(1)\nmore</script></head></html>`
	out, res := StripScripts(html)
	require.Equal(t, 2, res.ScriptsRemoved)
	require.Equal(t, 1, res.InlineScriptsRemoved)
	require.NotContains(t, out, "<script")
}

func TestStripScriptsNoop(t *testing.T) {
	html := `<html><body>hi</body></html>`
	out, res := StripScripts(html)
	require.False(t, res.Modified)
	require.Equal(t, html, out)
}

func TestStripScriptsInTreeOnlyRewritesChanged(t *testing.T) {
	dir := t.TempDir()
	withScript := filepath.Join(dir, "a.html")
	without := filepath.Join(dir, "b.html")
	require.NoError(t, os.WriteFile(withScript, []byte(`<script>1</script><p>x</p>`), 0o644))
	require.NoError(t, os.WriteFile(without, []byte(`<p>x</p>`), 0o644))

	res, err := StripScriptsInTree(dir)
	require.NoError(t, err)
	require.Equal(t, 1, res.ScriptsRemoved)
	require.True(t, res.Modified)
}

func TestWriteDockerfileAndNginxConf(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.ContainerPort = 8081
	require.NoError(t, WriteDockerfile(dir, cfg))
	require.NoError(t, WriteNginxConf(dir, cfg, true))

	df, err := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	require.NoError(t, err)
	require.Contains(t, string(df), "EXPOSE 8081")

	nc, err := os.ReadFile(filepath.Join(dir, "nginx.conf"))
	require.NoError(t, err)
	require.Contains(t, string(nc), "Content-Security-Policy")
}

func TestCleanupScaffoldKeepsDockerfileOnFailedBuild(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nginx.conf"), []byte("x"), 0o644))

	CleanupScaffold(dir, false)
	_, err := os.Stat(filepath.Join(dir, "Dockerfile"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "nginx.conf"))
	require.True(t, os.IsNotExist(err))
}
