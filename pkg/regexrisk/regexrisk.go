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

// Package regexrisk implements the "risky regex" heuristics spec.md §7/§9
// calls for: detecting patterns likely to cause catastrophic backtracking
// before they are compiled into the router allow/deny lists. Per spec.md
// §9 ("Global regex cache / lazy module state: avoid; construct regex
// objects once per run"), detection is a pure function with no package-
// level state, and the caller constructs regexp.Regexp objects once per
// run rather than through a shared cache.
package regexrisk

import "strings"

// Shape names the two heuristic categories spec.md §7/§8 (scenario S4)
// names explicitly.
type Shape string

const (
	ConsecutiveAnyWildcards Shape = "consecutive_any_wildcards"
	NestedRepeatingGroup    Shape = "nested_repeating_group"
)

// Finding is one detected risky pattern.
type Finding struct {
	Pattern string
	Shape   Shape
}

// Detect scans pattern for the two named risky shapes:
//   - consecutive unbounded wildcards, like "(.*.*"
//   - nested repeating groups, like "(a+b+)+" or a trailing "+)+"
//
// Detection is heuristic and intentionally narrow (spec.md §9 leaves "the
// precise boundary for risky regex heuristics beyond the two named shapes"
// an open question — see DESIGN.md).
func Detect(pattern string) []Finding {
	var findings []Finding
	if hasConsecutiveAnyWildcards(pattern) {
		findings = append(findings, Finding{Pattern: pattern, Shape: ConsecutiveAnyWildcards})
	}
	if hasNestedRepeatingGroup(pattern) {
		findings = append(findings, Finding{Pattern: pattern, Shape: NestedRepeatingGroup})
	}
	return findings
}

// DetectAll runs Detect across every pattern in patterns, preserving order.
func DetectAll(patterns []string) []Finding {
	var all []Finding
	for _, p := range patterns {
		all = append(all, Detect(p)...)
	}
	return all
}

// hasConsecutiveAnyWildcards looks for two ".*" (or ".+") tokens back to
// back, e.g. "(.*.*foo)".
func hasConsecutiveAnyWildcards(pattern string) bool {
	for _, tok := range []string{".*.*", ".*.+", ".+.*", ".+.+"} {
		if strings.Contains(pattern, tok) {
			return true
		}
	}
	return false
}

// hasNestedRepeatingGroup looks for a repeated group whose body itself ends
// in a repetition operator, e.g. "(a+b+)+" or any group ending in "+)+" /
// "*)+" / "+)*" / "*)*".
func hasNestedRepeatingGroup(pattern string) bool {
	for _, tok := range []string{"+)+", "*)+", "+)*", "*)*"} {
		if strings.Contains(pattern, tok) {
			return true
		}
	}
	return false
}
