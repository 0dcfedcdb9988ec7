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
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kraklabs/cloneforge/pkg/fingerprint"
)

// writeDiffArtifact persists the diff_<ts>.json file named in spec.md §6,
// the on-disk counterpart to the diff_summary event. Only written when a
// prior state existed to diff against; a first incremental run has no
// diff to report at all.
func writeDiffArtifact(path string, d *fingerprint.Diff) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
