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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-rod/rod"
)

// storageSnapshotJS reads every key from both Web Storage areas; rod's
// gson result decodes straight into a map[string]string.
const storageSnapshotJS = `() => {
  const dump = (store) => {
    const out = {};
    for (let i = 0; i < store.length; i++) {
      const k = store.key(i);
      out[k] = store.getItem(k);
    }
    return out;
  };
  return { local_storage: dump(window.localStorage), session_storage: dump(window.sessionStorage) };
}`

type storageSnapshot struct {
	LocalStorage   map[string]string `json:"local_storage"`
	SessionStorage map[string]string `json:"session_storage"`
}

// captureStorage dumps localStorage/sessionStorage for the current page
// into <destDir>/_storage/<page>.storage.json, per spec.md §4.4
// ("--capture-storage").
func captureStorage(p *rod.Page, destDir, outRel string) error {
	res, err := p.Eval(storageSnapshotJS)
	if err != nil {
		return err
	}
	var snap storageSnapshot
	if err := json.Unmarshal([]byte(res.Value.Raw), &snap); err != nil {
		return err
	}

	storageDir := filepath.Join(destDir, "_storage")
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return err
	}

	base := strings.TrimSuffix(strings.ReplaceAll(outRel, string(filepath.Separator), "_"), ".html")
	if base == "" {
		base = "index"
	}
	out := filepath.Join(storageDir, base+".storage.json")

	enc, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, enc, 0o644)
}
