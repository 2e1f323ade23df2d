// Copyright 2025 codemorph Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rules

import (
	"regexp"

	"github.com/codemorph/codemorph/lang/ir"
)

// AssertionMapping maps a source-language assertion call to its target
// equivalent, used by the test translator. Literal expected values are never
// touched; only the call form is mapped.
type AssertionMapping struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// AssertionTable holds the assertion mappings for one language pair.
type AssertionTable struct {
	pair     string
	mappings []AssertionMapping
	counters []*regexp.Regexp
}

// Built-in assertion call patterns per source language, used to count test
// assertions so translated tests can be checked for 1:1 preservation.
var assertionPatterns = map[ir.Language][]string{
	ir.Java:   {`\bassert[A-Z]\w*\s*\(`, `\bassertThat\s*\(`},
	ir.Python: {`\bassert\s`, `\bself\.assert\w+\s*\(`},
	ir.Golang: {`\bt\.(Error|Errorf|Fatal|Fatalf)\s*\(`, `\b(assert|require)\.\w+\s*\(`},
}

// DefaultAssertionTable returns the built-in table for a language pair.
// Unknown pairs get an empty table; the translator then maps nothing and the
// count check still runs.
func DefaultAssertionTable(source, target ir.Language) *AssertionTable {
	t := &AssertionTable{pair: string(source) + "->" + string(target)}
	if source == ir.Java && target == ir.Golang {
		t.mappings = []AssertionMapping{
			{Source: "assertEquals", Target: "assert.Equal"},
			{Source: "assertNotEquals", Target: "assert.NotEqual"},
			{Source: "assertTrue", Target: "assert.True"},
			{Source: "assertFalse", Target: "assert.False"},
			{Source: "assertNull", Target: "assert.Nil"},
			{Source: "assertNotNull", Target: "assert.NotNil"},
			{Source: "assertThrows", Target: "assert.Panics"},
			{Source: "fail", Target: "t.Fatal"},
		}
	}
	if source == ir.Python && target == ir.Golang {
		t.mappings = []AssertionMapping{
			{Source: "assertEqual", Target: "assert.Equal"},
			{Source: "assertTrue", Target: "assert.True"},
			{Source: "assertFalse", Target: "assert.False"},
			{Source: "assertIsNone", Target: "assert.Nil"},
			{Source: "assertRaises", Target: "assert.Panics"},
		}
	}
	for _, p := range assertionPatterns[source] {
		t.counters = append(t.counters, regexp.MustCompile(p))
	}
	return t
}

// NewAssertionTable builds a table from explicit mappings (e.g. loaded from a
// manifest) for a language pair.
func NewAssertionTable(source, target ir.Language, mappings []AssertionMapping) *AssertionTable {
	t := DefaultAssertionTable(source, target)
	t.mappings = mappings
	return t
}

// Mappings returns the mapping list for prompt construction.
func (t *AssertionTable) Mappings() []AssertionMapping {
	return t.mappings
}

// CountAssertions counts assertion call sites in source code of the table's
// source language. The test translator requires translated count == source
// count.
func (t *AssertionTable) CountAssertions(code string) int {
	n := 0
	for _, re := range t.counters {
		n += len(re.FindAllStringIndex(code, -1))
	}
	return n
}

// CountTargetAssertions counts assertion call sites in target-language code.
func CountTargetAssertions(target ir.Language, code string) int {
	n := 0
	for _, p := range assertionPatterns[target] {
		n += len(regexp.MustCompile(p).FindAllStringIndex(code, -1))
	}
	return n
}
