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

package postprocess

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kraklabs/cloneforge/pkg/config"
)

// dockerfileTemplate serves the static site with nginx, foregrounded so
// the container stays up under `docker run`.
const dockerfileTemplate = `FROM nginx:alpine
COPY . /usr/share/nginx/html
COPY nginx.conf /etc/nginx/conf.d/default.conf
EXPOSE %d
CMD ["nginx", "-g", "daemon off;"]
`

// nginxConfTemplate serves the captured static tree, falling back to
// index.html for unmatched paths (spec.md §4.4's SPA routing support
// requires this so client-side routes resolve on a hard refresh).
const nginxConfTemplate = `server {
    listen %d;
    server_name _;
    root /usr/share/nginx/html;
    index index.html;

    location / {
        try_files $uri $uri.html $uri/ /index.html;
    }
%s}
`

// WriteDockerfile renders and writes a Dockerfile into destDir.
func WriteDockerfile(destDir string, cfg config.CloneConfig) error {
	content := fmt.Sprintf(dockerfileTemplate, cfg.ContainerPort)
	return os.WriteFile(filepath.Join(destDir, "Dockerfile"), []byte(content), 0o644)
}

// WriteNginxConf renders and writes nginx.conf into destDir. When
// jsStripped is true, a CSP header forbidding script execution is added.
func WriteNginxConf(destDir string, cfg config.CloneConfig, jsStripped bool) error {
	extra := ""
	if jsStripped {
		extra = "    " + CSPHeaderLine + "\n"
	}
	content := fmt.Sprintf(nginxConfTemplate, cfg.ContainerPort, extra)
	return os.WriteFile(filepath.Join(destDir, "nginx.conf"), []byte(content), 0o644)
}

// CleanupScaffold removes nginx.conf always, and Dockerfile only when the
// image build actually succeeded (spec.md §4.7 cleanup-phase rule: a
// failed build should leave its Dockerfile behind for inspection).
func CleanupScaffold(destDir string, buildSucceeded bool) {
	_ = os.Remove(filepath.Join(destDir, "nginx.conf"))
	if buildSucceeded {
		_ = os.Remove(filepath.Join(destDir, "Dockerfile"))
	}
}
