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
	"fmt"
	"regexp"
	"strings"

	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/translate"
)

// checkSignature verifies that a candidate declares the unit's symbol under
// the target naming convention with a compatible arity. Signature drift is a
// warning, not an error: the toolchain already rejects hard breakage, this
// catches contract drift the compiler cannot see (e.g. a silently renamed
// function).
func checkSignature(unit *ir.TranslationUnit, code string, target ir.Language) []ir.Diagnostic {
	if unit.IR == nil || unit.IR.Name == "" {
		return nil
	}
	symbol := translate.ConvertSymbol(target, unit.Kind, unit.IR.Name, unit.IR.Exported)

	decl := declPattern(target, symbol)
	if decl == nil {
		return nil
	}
	m := decl.FindStringSubmatch(code)
	if m == nil {
		return []ir.Diagnostic{{
			File:    unit.Identity.File,
			Message: fmt.Sprintf("signature contract: symbol %s not declared in candidate", symbol),
			Class:   ir.ClassLink,
		}}
	}
	if unit.Kind != ir.KindFunction && unit.Kind != ir.KindTest {
		return nil
	}
	got := countParams(m[1])
	want := len(unit.IR.Params)
	if got != want {
		return []ir.Diagnostic{{
			File:    unit.Identity.File,
			Message: fmt.Sprintf("signature contract: %s declares %d parameters, source has %d", symbol, got, want),
			Class:   ir.ClassType,
		}}
	}
	return nil
}

// declPattern builds the declaration matcher for the target language. The
// single capture group is the parameter list.
func declPattern(target ir.Language, symbol string) *regexp.Regexp {
	q := regexp.QuoteMeta(symbol)
	switch target {
	case ir.Golang:
		return regexp.MustCompile(`func\s+(?:\([^)]*\)\s+)?` + q + `\s*\(([^)]*)\)`)
	case ir.Rust:
		return regexp.MustCompile(`fn\s+` + q + `\s*(?:<[^>]*>)?\s*\(([^)]*)\)`)
	case ir.Python:
		return regexp.MustCompile(`def\s+` + q + `\s*\(([^)]*)\)`)
	case ir.Java, ir.TypeScript:
		return regexp.MustCompile(`\b` + q + `\s*\(([^)]*)\)`)
	default:
		return nil
	}
}

// countParams counts comma-separated parameters at bracket depth zero, so
// map[string]int or Vec<(A, B)> arguments count once.
func countParams(list string) int {
	list = strings.TrimSpace(list)
	if list == "" {
		return 0
	}
	n, depth := 1, 0
	for _, r := range list {
		switch r {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case ',':
			if depth == 0 {
				n++
			}
		}
	}
	return n
}
