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
	"unicode"

	"github.com/codemorph/codemorph/lang/ir"
)

// ConvertSymbol adapts a source symbol name to the target language's naming
// convention. The rename is tracked per unit so the assembler can resolve
// final references.
func ConvertSymbol(target ir.Language, kind ir.UnitKind, name string, exported bool) string {
	switch target {
	case ir.Golang:
		if exported {
			return toPascalCase(name)
		}
		return toCamelCase(name)
	case ir.Rust:
		if kind == ir.KindFunction || kind == ir.KindTest {
			return toSnakeCase(name)
		}
		return toPascalCase(name)
	case ir.Python:
		if kind == ir.KindClass || kind == ir.KindInterface || kind == ir.KindEnum {
			return toPascalCase(name)
		}
		return toSnakeCase(name)
	case ir.Java, ir.TypeScript:
		if kind == ir.KindFunction || kind == ir.KindTest {
			return toCamelCase(name)
		}
		return toPascalCase(name)
	default:
		return name
	}
}

// ConvertFileName adapts a source file base name to the target convention.
func ConvertFileName(target ir.Language, base string) string {
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	switch target {
	case ir.Golang:
		return strings.ToLower(strings.ReplaceAll(toSnakeCase(base), "__", "_")) + ".go"
	case ir.Rust:
		return toSnakeCase(base) + ".rs"
	case ir.Python:
		return toSnakeCase(base) + ".py"
	case ir.Java:
		return toPascalCase(base) + ".java"
	case ir.TypeScript:
		return toCamelCase(base) + ".ts"
	default:
		return base
	}
}

// Naming convention conversion helpers

// toPascalCase converts a string to PascalCase.
func toPascalCase(s string) string {
	if s == "" {
		return s
	}
	words := splitWords(s)
	var result strings.Builder
	for _, word := range words {
		if len(word) > 0 {
			result.WriteString(strings.ToUpper(word[:1]))
			if len(word) > 1 {
				result.WriteString(word[1:])
			}
		}
	}
	return result.String()
}

// toCamelCase converts a string to camelCase.
func toCamelCase(s string) string {
	pascal := toPascalCase(s)
	if len(pascal) == 0 {
		return pascal
	}
	return strings.ToLower(pascal[:1]) + pascal[1:]
}

// toSnakeCase converts a string to snake_case.
func toSnakeCase(s string) string {
	if s == "" {
		return s
	}
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				result.WriteRune('_')
			}
			result.WriteRune(unicode.ToLower(r))
		} else if r == '-' || r == ' ' {
			result.WriteRune('_')
		} else {
			result.WriteRune(r)
		}
	}
	return strings.ReplaceAll(result.String(), "__", "_")
}

// splitWords splits a string into words based on case changes and separators.
func splitWords(s string) []string {
	var words []string
	var current strings.Builder
	for i, r := range s {
		if r == '_' || r == '-' || r == ' ' {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		} else if unicode.IsUpper(r) && i > 0 {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
			current.WriteRune(r)
		} else {
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}
