/**
 * Copyright 2025 codemorph Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/codemorph/codemorph/lang/ir"
)

// diagLine matches the file:line[:col]: message shape shared by the Go,
// Python (SyntaxError traceback tail), rustc and tsc toolchains.
var diagLine = regexp.MustCompile(`^(?:.*?[\\/])?([\w.\-]+\.\w+)[:(](\d+)(?:[:,]\d+\)?)?[: ]\s*(.+)$`)

// javacLine matches javac's "File.java:12: error: message" shape.
var javacLine = regexp.MustCompile(`^(?:.*?[\\/])?([\w.\-]+\.java):(\d+):\s*(?:error|warning):\s*(.+)$`)

// ParseDiagnostics turns raw toolchain output into structured diagnostics.
// Lines that do not look like diagnostics (progress, banners, tracebacks)
// are dropped; a completely unparsable failure is the caller's problem.
func ParseDiagnostics(lang ir.Language, output string) []ir.Diagnostic {
	var diags []ir.Diagnostic
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var m []string
		if lang == ir.Java {
			m = javacLine.FindStringSubmatch(line)
		}
		if m == nil {
			m = diagLine.FindStringSubmatch(line)
		}
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[2])
		msg := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(m[3], "error:"), "error "))
		diags = append(diags, ir.Diagnostic{
			File:    m[1],
			Line:    n,
			Message: msg,
			Class:   Classify(msg),
		})
	}
	return diags
}

// Classify buckets a diagnostic message into an error class. Link errors are
// separated from type errors because they usually mean a dependency mapping
// problem rather than a bad translation.
func Classify(msg string) ir.ErrorClass {
	l := strings.ToLower(msg)
	switch {
	case strings.Contains(l, "undefined:"),
		strings.Contains(l, "undeclared name"),
		strings.Contains(l, "cannot find symbol"),
		strings.Contains(l, "cannot find package"),
		strings.Contains(l, "unresolved import"),
		strings.Contains(l, "no required module"),
		strings.Contains(l, "undefined reference"):
		return ir.ClassLink
	case strings.Contains(l, "syntax error"),
		strings.Contains(l, "expected"),
		strings.Contains(l, "unexpected"),
		strings.Contains(l, "unterminated"),
		strings.Contains(l, "invalid syntax"):
		return ir.ClassSyntax
	case strings.Contains(l, "cannot use"),
		strings.Contains(l, "mismatched types"),
		strings.Contains(l, "type mismatch"),
		strings.Contains(l, "incompatible types"),
		strings.Contains(l, "wrong type"),
		strings.Contains(l, "not enough arguments"),
		strings.Contains(l, "too many arguments"),
		strings.Contains(l, "is not assignable"):
		return ir.ClassType
	case strings.Contains(l, "timed out"),
		strings.Contains(l, "deadline exceeded"):
		return ir.ClassTimeout
	default:
		return ir.ClassRuntime
	}
}
