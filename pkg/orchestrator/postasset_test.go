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

package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cloneforge/pkg/events"
	"github.com/kraklabs/cloneforge/pkg/pluginhost"
)

func TestInPostAssetScope(t *testing.T) {
	require.True(t, inPostAssetScope("index.html"))
	require.True(t, inPostAssetScope("about.htm"))
	require.True(t, inPostAssetScope("data/thing.json"))
	require.True(t, inPostAssetScope("style.css"))
	require.True(t, inPostAssetScope("app.js"))
	require.False(t, inPostAssetScope("favicon.ico"))
	require.False(t, inPostAssetScope("image.png"))
}

func TestRunPostAssetPluginsSkipsOutOfScopeFiles(t *testing.T) {
	dir := t.TempDir()
	pluginsDir := t.TempDir()

	pluginPath := filepath.Join(pluginsDir, "noop")
	script := "#!/bin/sh\nread line\nprintf '{\"action\":\"unchanged\"}\\n'\n"
	require.NoError(t, os.WriteFile(pluginPath, []byte(script), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte("binary"), 0o644))

	host, err := pluginhost.Discover(pluginsDir, nil)
	require.NoError(t, err)
	require.True(t, host.HasPlugins())

	emit := events.NewEmitter("run1")
	processed := runPostAssetPlugins(context.Background(), host, "run1", dir, emit)

	// Only index.html is in scope; logo.png must never reach the plugin.
	require.Equal(t, 1, processed)
}
