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
	"strings"

	"github.com/kraklabs/cloneforge/pkg/events"
	"github.com/kraklabs/cloneforge/pkg/pluginhost"
)

// postAssetExtensions is the post_asset hook's file-extension allowlist
// (spec.md §4.6): broader than pkg/fingerprint.InScope's hashing scope
// (which restricts .json to the _api/ capture tree), since post_asset
// plugins may legitimately want to rewrite any captured stylesheet or
// script, not just the hashed subset.
var postAssetExtensions = map[string]bool{
	".html": true,
	".htm":  true,
	".json": true,
	".css":  true,
	".js":   true,
}

// inPostAssetScope reports whether rel's extension is one post_asset
// plugins are offered.
func inPostAssetScope(rel string) bool {
	return postAssetExtensions[strings.ToLower(filepath.Ext(rel))]
}

// isEngineOwned reports whether name is an artifact the engine itself
// writes; plugins see
// only the cloned content, not the engine's own bookkeeping files
// (spec.md §5: "post_asset files are processed in the order returned by
// the directory walk").
func isEngineOwned(name string) bool {
	switch {
	case name == "clone_manifest.json",
		name == "Dockerfile",
		name == "nginx.conf",
		name == "imported_cookies.txt",
		name == "verify_checksums.sh",
		name == ".cloneforge":
		return true
	case strings.HasPrefix(name, "README_"),
		strings.HasPrefix(name, "clone_report."):
		return true
	}
	return false
}

// runPostAssetPlugins walks outputFolder in directory-walk order and
// offers each non-engine-owned file to every discovered plugin's
// post_asset hook, in plugin-load order, writing back any replacement.
// A read/write failure on one file is reported via post_asset_error and
// skipped; it never aborts the walk.
func runPostAssetPlugins(ctx context.Context, host *pluginhost.Host, runID, outputFolder string, emit *events.Emitter) int {
	processed := 0
	_ = filepath.Walk(outputFolder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			_ = emit.Emit(events.PostAssetError, map[string]any{"path": path, "error": err.Error()})
			return nil
		}
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		rel, relErr := filepath.Rel(outputFolder, path)
		if relErr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}
		top := strings.SplitN(rel, string(filepath.Separator), 2)[0]
		if isEngineOwned(top) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !inPostAssetScope(rel) {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			_ = emit.Emit(events.PostAssetError, map[string]any{"path": rel, "error": readErr.Error()})
			return nil
		}

		out := host.Call(ctx, pluginhost.Request{
			Hook:  pluginhost.HookPostAsset,
			RunID: runID,
			Path:  rel,
		}, data)

		processed++
		if processed%25 == 0 {
			_ = emit.Emit(events.PostAssetProgress, map[string]any{"processed": processed})
		}

		if len(out) != len(data) || string(out) != string(data) {
			if writeErr := os.WriteFile(path, out, info.Mode().Perm()); writeErr != nil {
				_ = emit.Emit(events.PostAssetError, map[string]any{"path": rel, "error": writeErr.Error()})
			}
		}
		return nil
	})
	return processed
}
