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

package translate

import (
	"strings"
	"testing"
)

func TestSplitChunksLossless(t *testing.T) {
	cases := []struct {
		name string
		code string
		max  int
	}{
		{"small stays whole", "func a() {}\n", 1024},
		{"multi line split", strings.Repeat("x := 1\n", 100), 64},
		{"no trailing newline", "a\nb\nc", 4},
		{"single long line", strings.Repeat("a", 500), 64},
		{"empty", "", 64},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			chunks := splitChunks(c.code, c.max)
			if got := strings.Join(chunks, ""); got != c.code {
				t.Fatalf("join(chunks) != code: %q vs %q", got, c.code)
			}
		})
	}
}

func TestSplitChunksRespectsLineBoundaries(t *testing.T) {
	code := strings.Repeat("line\n", 50)
	for _, chunk := range splitChunks(code, 32) {
		if !strings.HasSuffix(chunk, "\n") {
			t.Fatalf("chunk does not end on a line boundary: %q", chunk)
		}
	}
}

func TestReassembleInsertsMissingNewlines(t *testing.T) {
	got := reassemble([]string{"func a() {}", "func b() {}"})
	if !strings.Contains(got, "}\nfunc b") {
		t.Fatalf("parts ran together: %q", got)
	}
}
