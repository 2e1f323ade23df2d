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

import (
	"fmt"
	"strings"
)

// Language identifies a programming language on either side of a translation.
type Language string

const (
	Unknown    Language = ""
	Golang     Language = "go"
	Rust       Language = "rust"
	Python     Language = "python"
	Java       Language = "java"
	TypeScript Language = "typescript"
	Cxx        Language = "cxx"
)

// NewLanguage normalizes a user-supplied language name.
func NewLanguage(s string) Language {
	switch strings.ToLower(s) {
	case "go", "golang":
		return Golang
	case "rust", "rs":
		return Rust
	case "python", "py":
		return Python
	case "java":
		return Java
	case "ts", "typescript":
		return TypeScript
	case "c", "cxx", "cpp", "c++":
		return Cxx
	}
	return Unknown
}

// FileExt returns the conventional source file extension for the language.
func (l Language) FileExt() string {
	switch l {
	case Golang:
		return ".go"
	case Rust:
		return ".rs"
	case Python:
		return ".py"
	case Java:
		return ".java"
	case TypeScript:
		return ".ts"
	case Cxx:
		return ".cpp"
	}
	return ""
}

// UnitKind is the kind of a translation unit.
type UnitKind string

const (
	KindFunction  UnitKind = "function"
	KindClass     UnitKind = "class"
	KindInterface UnitKind = "interface"
	KindEnum      UnitKind = "enum"
	KindModule    UnitKind = "module"
	KindTest      UnitKind = "test"
)

// UnitStatus is the repair-loop state of a unit. PASS, FAILED_TERMINAL and
// SKIPPED are terminal; a unit never leaves a terminal state.
type UnitStatus string

const (
	StatusNew            UnitStatus = "NEW"
	StatusTranslated     UnitStatus = "TRANSLATED"
	StatusValidating     UnitStatus = "VALIDATING"
	StatusPass           UnitStatus = "PASS"
	StatusFailed         UnitStatus = "FAILED"
	StatusRepairing      UnitStatus = "REPAIRING"
	StatusFailedTerminal UnitStatus = "FAILED_TERMINAL"
	StatusSkipped        UnitStatus = "SKIPPED"
)

// Terminal reports whether the status is final.
func (s UnitStatus) Terminal() bool {
	return s == StatusPass || s == StatusFailedTerminal || s == StatusSkipped
}

// Unit flags, orthogonal to status. A unit flagged NeedsManualMapping still
// proceeds through translation with the best-guess mapping.
const (
	FlagNeedsManualMapping = "NEEDS_MANUAL_MAPPING"
	FlagNeedsManualReview  = "NEEDS_MANUAL_REVIEW"
)

// Identity locates a unit inside its source tree.
type Identity struct {
	File    string `json:"file"`
	Package string `json:"package,omitempty"`
	Name    string `json:"name"`
}

// Full returns the canonical unit id. Extraction is deterministic, so the id
// is stable across runs on unchanged input.
func (i Identity) Full() string {
	if i.Package == "" {
		return i.File + "#" + i.Name
	}
	return i.File + "#" + i.Package + "." + i.Name
}

// Param is one parameter or result in the normalized type vocabulary.
type Param struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}

// IR is the language-neutral structural description of a unit. It is immutable
// once produced by the extractor; downstream components read it only.
type IR struct {
	Name      string   `json:"name"`
	Kind      UnitKind `json:"kind"`
	Exported  bool     `json:"exported"`
	Receiver  string   `json:"receiver,omitempty"`
	Params    []Param  `json:"params,omitempty"`
	Results   []Param  `json:"results,omitempty"`
	Imports   []string `json:"imports,omitempty"`    // external imports referenced by the unit
	IntraDeps []string `json:"intra_deps,omitempty"` // ids of units this unit depends on inside the project
	Doc       string   `json:"doc,omitempty"`
	Line      int      `json:"line"`
}

// Signature renders the public signature of the unit in the normalized
// vocabulary. The validator diffs translated signatures against this.
func (r *IR) Signature() string {
	var sb strings.Builder
	sb.WriteString(string(r.Kind))
	sb.WriteString(" ")
	if r.Receiver != "" {
		sb.WriteString("(" + r.Receiver + ") ")
	}
	sb.WriteString(r.Name)
	sb.WriteString("(")
	for i, p := range r.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.Name != "" {
			sb.WriteString(p.Name + " ")
		}
		sb.WriteString(p.Type)
	}
	sb.WriteString(")")
	if len(r.Results) > 0 {
		sb.WriteString(" -> ")
		for i, p := range r.Results {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.Type)
		}
	}
	return sb.String()
}

// TranslationUnit is the smallest independently translated item. It is owned
// by the pipeline run: created by the extractor, mutated only by the repair
// loop and the candidate selector.
type TranslationUnit struct {
	ID             string     `json:"id"`
	Kind           UnitKind   `json:"kind"`
	SourceLanguage Language   `json:"source_language"`
	TargetLanguage Language   `json:"target_language"`
	Identity       Identity   `json:"identity"`
	SourceCode     string     `json:"source_code"`
	IR             *IR        `json:"ir,omitempty"`
	Status         UnitStatus `json:"status"`
	AttemptCount   int        `json:"attempt_count"`
	Flags          []string   `json:"flags,omitempty"`
}

// HasFlag reports whether the unit carries the given flag.
func (u *TranslationUnit) HasFlag(flag string) bool {
	for _, f := range u.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddFlag appends the flag if not already present.
func (u *TranslationUnit) AddFlag(flag string) {
	if !u.HasFlag(flag) {
		u.Flags = append(u.Flags, flag)
	}
}

// TranslationCandidate is one rendering of a unit in the target language.
// Ephemeral: at most one per unit survives past the candidate selector.
type TranslationCandidate struct {
	UnitID            string `json:"unit_id"`
	CandidateIndex    int    `json:"candidate_index"`
	Code              string `json:"code"`
	GenerationAttempt int    `json:"generation_attempt"`
}

// NormalizeType maps a language-specific type name into the neutral vocabulary
// shared by all IRs: string, int, int64, float, bool, bytes, void, any,
// list<T>, map<K,V>, optional<T>.
func NormalizeType(lang Language, t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return "void"
	}
	base := t
	var generic string
	if i := strings.IndexAny(t, "<["); i > 0 {
		base = strings.TrimSpace(t[:i])
		generic = extractGeneric(t)
	}
	if n, ok := primitiveVocab[lang][base]; ok {
		switch {
		case n == "list":
			return "list<" + NormalizeType(lang, generic) + ">"
		case n == "map":
			parts := splitGeneric(generic)
			if len(parts) == 2 {
				return "map<" + NormalizeType(lang, parts[0]) + "," + NormalizeType(lang, parts[1]) + ">"
			}
			return "map<any,any>"
		case n == "optional":
			return "optional<" + NormalizeType(lang, generic) + ">"
		}
		return n
	}
	// Slice / array notation.
	if strings.HasPrefix(t, "[]") {
		return "list<" + NormalizeType(lang, t[2:]) + ">"
	}
	if strings.HasSuffix(t, "[]") {
		return "list<" + NormalizeType(lang, t[:len(t)-2]) + ">"
	}
	return base
}

var primitiveVocab = map[Language]map[string]string{
	Java: {
		"int": "int", "Integer": "int", "short": "int", "Short": "int",
		"long": "int64", "Long": "int64",
		"float": "float", "Float": "float", "double": "float", "Double": "float",
		"boolean": "bool", "Boolean": "bool",
		"byte": "int", "Byte": "int", "byte[]": "bytes",
		"char": "string", "Character": "string", "String": "string",
		"void": "void", "Object": "any",
		"List": "list", "ArrayList": "list", "LinkedList": "list",
		"Set": "list", "HashSet": "list",
		"Map": "map", "HashMap": "map", "Optional": "optional",
	},
	Python: {
		"int": "int", "float": "float", "str": "string", "bool": "bool",
		"bytes": "bytes", "None": "void", "Any": "any", "object": "any",
		"list": "list", "List": "list", "set": "list", "Set": "list",
		"dict": "map", "Dict": "map", "Optional": "optional",
	},
	TypeScript: {
		"number": "float", "string": "string", "boolean": "bool",
		"void": "void", "any": "any", "unknown": "any",
		"Array": "list", "Map": "map", "Record": "map",
	},
	Golang: {
		"int": "int", "int32": "int", "int64": "int64", "float32": "float",
		"float64": "float", "string": "string", "bool": "bool",
		"[]byte": "bytes", "interface{}": "any", "any": "any",
	},
}

func extractGeneric(t string) string {
	start := strings.IndexAny(t, "<[")
	end := strings.LastIndexAny(t, ">]")
	if start >= 0 && end > start {
		return strings.TrimSpace(t[start+1 : end])
	}
	return ""
}

// splitGeneric splits "K, V" into its top-level comma-separated parts,
// respecting nested generics.
func splitGeneric(generic string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	for _, r := range generic {
		switch r {
		case '<', '[':
			depth++
			current.WriteRune(r)
		case '>', ']':
			depth--
			current.WriteRune(r)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
			} else {
				current.WriteRune(r)
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}

// String implements fmt.Stringer for diagnostics.
func (u *TranslationUnit) String() string {
	return fmt.Sprintf("%s(%s)[%s]", u.ID, u.Kind, u.Status)
}
