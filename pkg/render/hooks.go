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
	"log/slog"
	"os"

	"github.com/go-rod/rod"
)

// runHookScript evaluates a user-supplied JS file in the page's context
// after it has settled, per spec.md §4.4 ("--hook-script"). Failures are
// logged and swallowed: a broken hook must never abort the capture run.
// With a nil page (browser unavailable) the file is still read and a debug
// line is logged, but the script itself is not evaluated.
func runHookScript(path string, p *rod.Page, log *slog.Logger) {
	src, err := os.ReadFile(path)
	if err != nil {
		log.Warn("hook-script: could not read file", "path", path, "error", err)
		return
	}
	if p == nil {
		log.Debug("hook-script: running without a page context (browser unavailable)", "path", path)
		return
	}
	if _, err := p.Eval(string(src)); err != nil {
		log.Warn("hook-script: execution failed", "path", path, "error", err)
	}
}
