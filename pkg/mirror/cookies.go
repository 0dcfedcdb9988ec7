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

package mirror

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Cookie is one browser cookie to import, per spec.md §4.2
// ("--import-browser-cookies").
type Cookie struct {
	Domain  string
	Path    string
	Secure  bool
	Expires time.Time
	Name    string
	Value   string
}

// WriteNetscapeCookieFile renders cookies into the Netscape cookie-jar
// format wget/wget2 understand and writes it to destPath
// ("imported_cookies.txt" under the project root), so the mirror run can
// authenticate without credentials embedded in the reproduce command.
func WriteNetscapeCookieFile(destPath string, cookies []Cookie) error {
	var b strings.Builder
	b.WriteString("# Netscape HTTP Cookie File\n")
	b.WriteString("# generated by cloneforge, do not edit\n")
	for _, c := range cookies {
		includeSub := "FALSE"
		if strings.HasPrefix(c.Domain, ".") {
			includeSub = "TRUE"
		}
		secure := "FALSE"
		if c.Secure {
			secure = "TRUE"
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			c.Domain, includeSub, path, secure, c.Expires.Unix(), c.Name, c.Value)
	}
	return os.WriteFile(destPath, []byte(b.String()), 0o600)
}
