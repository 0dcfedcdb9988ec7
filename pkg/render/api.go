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
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-rod/rod"

	"github.com/kraklabs/cloneforge/pkg/config"
)

// apiExtensionByType is the closed content-type -> file-extension map.
// A response is captured when its type starts with one of the
// --capture-api-types prefixes (written as .txt when the type is not in
// this map), or under --capture-api-binary (written as .bin when the type
// is not in this map); anything else is skipped.
var apiExtensionByType = map[string]string{
	"application/json":        ".json",
	"application/ld+json":     ".json",
	"application/problem+json": ".json",
	"text/json":               ".json",
}

// graphqlOpRE extracts a GraphQL operation name from a request body, for
// naming captured files deterministically ("<op>-<n>.graphql.json").
var graphqlOpRE = regexp.MustCompile(`"operationName"\s*:\s*"([A-Za-z0-9_]+)"`)

type apiCapture struct {
	cfg     config.CloneConfig
	destDir string
	types   map[string]bool

	mu       sync.Mutex
	count    int
	opCounts map[string]int
}

func newAPICapture(cfg config.CloneConfig, destDir string) *apiCapture {
	types := map[string]bool{}
	for _, t := range cfg.CaptureAPITypes {
		types[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &apiCapture{cfg: cfg, destDir: destDir, types: types, opCounts: map[string]int{}}
}

// install mounts a hijack router on page that intercepts every request,
// loads the real response, and persists matching bodies under
// destDir/_api (or destDir/_graphql for detected GraphQL operations). It
// returns a stop function the caller must invoke once rendering of the
// page is done.
func (a *apiCapture) install(page *rod.Page) func() error {
	router := page.HijackRequests()
	router.MustAdd("*", func(ctx *rod.Hijack) {
		ctx.MustLoadResponse()

		ct := baseMediaType(contentType(ctx))
		allowed := false
		for t := range a.types {
			if t != "" && strings.HasPrefix(ct, t) {
				allowed = true
				break
			}
		}
		ext, ok := apiExtensionByType[ct]
		switch {
		case !allowed && !a.cfg.CaptureAPIBinary:
			return
		case !ok && allowed:
			ext = ".txt"
		case !ok:
			ext = ".bin"
		}

		method := ctx.Request.Method()
		reqBody := ctx.Request.Body()

		isGraphQL := a.cfg.CaptureGraphQL && looksLikeGraphQL(ctx.Request.URL().Path, method, reqBody)

		body := []byte(ctx.Response.Body())
		if len(body) == 0 {
			return
		}

		a.mu.Lock()
		defer a.mu.Unlock()

		if isGraphQL {
			op := graphqlOperation(reqBody)
			a.opCounts[op]++
			name := fmt.Sprintf("%s-%d.graphql.json", op, a.opCounts[op])
			a.writeCapture("_graphql", name, body)
		} else {
			name := fmt.Sprintf("capture-%d%s", a.count, ext)
			a.writeCapture("_api", name, body)
		}
		a.count++
	})
	go router.Run()
	return router.Stop
}

func (a *apiCapture) writeCapture(subdir, name string, body []byte) {
	dir := filepath.Join(a.destDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(dir, name), body, 0o644)
}

func contentType(ctx *rod.Hijack) string {
	h := ctx.Response.Headers()
	return h.Get("Content-Type")
}

func baseMediaType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func looksLikeGraphQL(path, method, body string) bool {
	if strings.Contains(path, "graphql") {
		return true
	}
	return method == http.MethodPost && (strings.Contains(body, `"query"`) || strings.Contains(body, "operationName"))
}

func graphqlOperation(body string) string {
	if m := graphqlOpRE.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return "op-" + randomSuffix()
}

func randomSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
