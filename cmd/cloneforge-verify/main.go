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

// Command cloneforge-verify is a standalone checker: given a cloned
// project's output folder (containing clone_manifest.json), it re-derives
// checksums and reports the same "OK=N Missing=N Mismatched=N Total=N"
// line the engine's own verify phase prints, exiting non-zero on any
// mismatch or missing file. It has no dependency on the orchestrator —
// a site can be copied or archived away from the machine that cloned it
// and still be checked with just this binary and the manifest it shipped
// with.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cloneforge/pkg/integrity"
)

func main() {
	var (
		deep     = flag.Bool("deep", false, "Deep mode: like fast mode it hashes every present file, but reports fast_missing=false")
		jsonOut  = flag.Bool("json", false, "Print the result as JSON")
		selftest = flag.Bool("selftest", false, "Run the built-in verifier selftest and exit")
	)
	flag.Parse()

	if *selftest {
		if err := integrity.Selftest(); err != nil {
			fmt.Fprintln(os.Stderr, "selftest failed:", err)
			os.Exit(1)
		}
		fmt.Println("selftest: ok")
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: cloneforge-verify [--deep] [--json] <output-folder>")
		os.Exit(2)
	}
	root := args[0]

	manifestPath := filepath.Join(root, "clone_manifest.json")
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read manifest: %v\n", err)
		os.Exit(2)
	}

	var doc struct {
		ChecksumsSHA256 map[string]string `json:"checksums_sha256"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "parse manifest: %v\n", err)
		os.Exit(2)
	}
	if len(doc.ChecksumsSHA256) == 0 {
		fmt.Fprintln(os.Stderr, "manifest has no checksums_sha256 block; nothing to verify")
		os.Exit(2)
	}

	result := integrity.Verify(root, doc.ChecksumsSHA256, *deep)

	if *jsonOut {
		b, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(b))
	} else {
		fmt.Println(integrity.FormatResultLine(result))
	}

	if !result.Passed() {
		os.Exit(1)
	}
}
