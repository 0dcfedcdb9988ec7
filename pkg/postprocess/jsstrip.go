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

// Package postprocess implements the Post-Processor (spec.md §4.7):
// optional JS stripping from captured HTML, and Dockerfile/nginx.conf
// scaffold generation for the Build/Serve Driver.
package postprocess

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// scriptTagRE matches a <script>...</script> element, including its
// attributes and body, case-insensitively and across newlines — the
// dot-matches-newline + case-insensitive combination spec.md §4.7 asks
// for ("strip <script> tags, case-insensitive, spanning newlines").
var scriptTagRE = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)

// scriptOpenRE captures the attribute text of the opening tag of an element
// scriptTagRE has already matched; it removes nothing on its own.
var scriptOpenRE = regexp.MustCompile(`(?is)<script\b([^>]*)/?>`)

// srcAttrRE detects a src= attribute inside a matched <script ...> open
// tag, used to classify external vs inline scripts.
var srcAttrRE = regexp.MustCompile(`(?i)\bsrc\s*=`)

// StripResult summarizes one file's script-stripping pass.
type StripResult struct {
	Modified             bool
	ScriptsRemoved       int
	InlineScriptsRemoved int
}

// StripScripts removes every <script>...</script> element from html and
// reports counts split by external (has a src attribute) vs inline.
func StripScripts(html string) (string, StripResult) {
	var res StripResult
	out := scriptTagRE.ReplaceAllStringFunc(html, func(tag string) string {
		res.ScriptsRemoved++
		if open := scriptOpenRE.FindStringSubmatch(tag); open != nil && !srcAttrRE.MatchString(open[1]) {
			res.InlineScriptsRemoved++
		}
		return ""
	})
	res.Modified = res.ScriptsRemoved > 0
	return out, res
}

// StripScriptsInTree walks root for *.html/*.htm files, strips scripts in
// place (only rewriting a file if it actually changed, per spec.md §4.7),
// and returns the aggregate counts.
func StripScriptsInTree(root string) (StripResult, error) {
	var total StripResult
	var htmlFiles int

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".html" && ext != ".htm" {
			return nil
		}
		htmlFiles++

		b, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		out, res := StripScripts(string(b))
		if res.Modified {
			if err := os.WriteFile(path, []byte(out), info.Mode()); err != nil {
				return err
			}
		}
		total.ScriptsRemoved += res.ScriptsRemoved
		total.InlineScriptsRemoved += res.InlineScriptsRemoved
		if res.Modified {
			total.Modified = true
		}
		return nil
	})
	return total, err
}

// CSPHeaderLine is the Content-Security-Policy header nginx emits when JS
// stripping is active, disallowing script execution entirely since no
// script should remain.
const CSPHeaderLine = `add_header Content-Security-Policy "script-src 'none'; object-src 'none';" always;`
