package pluginhost

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeEchoPlugin writes an executable shell plugin that reads one JSON
// request line and replies with a fixed response body, for exercising the
// real subprocess path without a compiled test fixture.
func writeEchoPlugin(t *testing.T, dir, name, responseJSON string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\nread line\ncat <<'PLUGIN_EOF'\n" + responseJSON + "\nPLUGIN_EOF\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestDiscoverMissingDirYieldsNoPlugins(t *testing.T) {
	h, err := Discover("", nil)
	require.NoError(t, err)
	require.False(t, h.HasPlugins())

	h2, err := Discover(t.TempDir()+"/does-not-exist", nil)
	require.NoError(t, err)
	require.False(t, h2.HasPlugins())
}

func TestResponseDecoded(t *testing.T) {
	payload := []byte("hello")
	resp := Response{Action: "replaced", DataB64: base64.StdEncoding.EncodeToString(payload)}
	got, err := resp.Decoded()
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestCallWithNoPluginsReturnsPayloadUnchanged(t *testing.T) {
	h, err := Discover("", nil)
	require.NoError(t, err)
	out := h.Call(context.Background(), Request{Hook: HookPostAsset, RunID: "r1"}, []byte("data"))
	require.Equal(t, []byte("data"), out)
}

func TestCallFinalizeMergesExtensions(t *testing.T) {
	dir := t.TempDir()
	writeEchoPlugin(t, dir, "add-ext",
		`{"action":"unchanged","extensions":{"build_id":"abc123"}}`)

	h, err := Discover(dir, nil)
	require.NoError(t, err)
	require.True(t, h.HasPlugins())

	failures, extensions := h.CallFinalize(context.Background(), "r1", "/tmp/out", []byte(`{"url":"https://example.com"}`))
	require.Empty(t, failures)
	require.Contains(t, extensions, "build_id")
	require.JSONEq(t, `"abc123"`, string(extensions["build_id"]))
}
