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

package ir

import "testing"

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		lang Language
		in   string
		want string
	}{
		{Java, "String", "string"},
		{Java, "long", "int64"},
		{Java, "List<String>", "list<string>"},
		{Java, "Map<String, Long>", "map<string,int64>"},
		{Java, "Optional<Integer>", "optional<int>"},
		{Java, "List<List<String>>", "list<list<string>>"},
		{Java, "void", "void"},
		{Java, "UserRepository", "UserRepository"},
		{Python, "str", "string"},
		{Python, "Dict[str, int]", "map<string,int>"},
		{Python, "Optional[str]", "optional<string>"},
		{TypeScript, "number", "float"},
		{Golang, "[]byte", "bytes"},
		{Java, "", "void"},
	}
	for _, tt := range tests {
		if got := NormalizeType(tt.lang, tt.in); got != tt.want {
			t.Errorf("NormalizeType(%s, %q) = %q, want %q", tt.lang, tt.in, got, tt.want)
		}
	}
}

func TestIRSignature(t *testing.T) {
	r := &IR{
		Name: "findUser",
		Kind: KindFunction,
		Params: []Param{
			{Name: "id", Type: "int64"},
			{Name: "strict", Type: "bool"},
		},
		Results: []Param{{Type: "optional<User>"}},
	}
	want := "function findUser(id int64, strict bool) -> optional<User>"
	if got := r.Signature(); got != want {
		t.Errorf("Signature() = %q, want %q", got, want)
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []UnitStatus{StatusPass, StatusFailedTerminal, StatusSkipped}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []UnitStatus{StatusNew, StatusTranslated, StatusValidating, StatusFailed, StatusRepairing} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestUnitFlags(t *testing.T) {
	u := &TranslationUnit{ID: "a.java#A"}
	u.AddFlag(FlagNeedsManualMapping)
	u.AddFlag(FlagNeedsManualMapping)
	if len(u.Flags) != 1 {
		t.Errorf("duplicate flag recorded: %v", u.Flags)
	}
	if !u.HasFlag(FlagNeedsManualMapping) || u.HasFlag(FlagNeedsManualReview) {
		t.Errorf("flag lookup broken: %v", u.Flags)
	}
}
