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
	"fmt"
	"strings"

	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/rules"
)

// PromptBuilder renders generation and repair prompts for one language pair.
type PromptBuilder struct {
	source ir.Language
	target ir.Language
}

// NewPromptBuilder creates a new PromptBuilder.
func NewPromptBuilder(source, target ir.Language) *PromptBuilder {
	return &PromptBuilder{source: source, target: target}
}

// BuildUnitPrompt builds the prompt for translating one unit (or one chunk).
func (b *PromptBuilder) BuildUnitPrompt(unit *ir.TranslationUnit, uctx *UnitContext, matched []*rules.Rule, chunkText string, chunk, total int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Translate the following %s %s to %s.\n\n", b.source, unit.Kind, b.target))

	if total > 1 {
		sb.WriteString(fmt.Sprintf("This is chunk %d of %d of one unit. Translate only this chunk; it will be reassembled in order with the others.\n\n", chunk+1, total))
	}

	if uctx != nil && len(uctx.Resolved) > 0 {
		sb.WriteString("## Import Mapping Reference\n")
		for _, ri := range uctx.Resolved {
			m := ri.Mapping
			sb.WriteString(fmt.Sprintf("- %s -> %s (confidence %.2f)\n", m.SourceImport, m.TargetImport, m.Confidence))
			for _, alt := range m.Alternatives {
				sb.WriteString(fmt.Sprintf("  alternative: %s\n", alt))
			}
		}
		sb.WriteString("\n")
	}

	if uctx != nil && len(uctx.Dependencies) > 0 {
		sb.WriteString("## Already Translated Dependencies\n")
		sb.WriteString("Use exactly these signatures when calling dependencies:\n")
		for _, d := range uctx.Dependencies {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", d.TargetSymbol, d.TargetSignature))
		}
		sb.WriteString("\n")
	}

	if len(matched) > 0 {
		sb.WriteString("## Feature Mapping Rules\n")
		for _, r := range matched {
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", r.ID, r.Description))
		}
		sb.WriteString("\n")
	}

	if unit.IR != nil {
		sb.WriteString("## Signature Contract\n")
		sb.WriteString("Preserve this public signature exactly, adapted only to the target naming convention:\n")
		sb.WriteString(unit.IR.Signature())
		sb.WriteString("\n\n")
		if unit.IR.Doc != "" {
			sb.WriteString("## Documentation To Preserve\n")
			sb.WriteString(unit.IR.Doc)
			sb.WriteString("\n\n")
		}
	}

	b.writeSource(&sb, chunkText)

	sb.WriteString("## Output\n")
	sb.WriteString("Return ONLY the translated code, no explanations or markdown formatting.\n")
	return sb.String()
}

// BuildTestPrompt builds the prompt for translating a test unit.
func (b *PromptBuilder) BuildTestPrompt(unit *ir.TranslationUnit, uctx *UnitContext, table *rules.AssertionTable) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Translate the following %s test to %s.\n\n", b.source, b.target))

	if table != nil && len(table.Mappings()) > 0 {
		sb.WriteString("## Assertion Mapping\n")
		for _, m := range table.Mappings() {
			sb.WriteString(fmt.Sprintf("- %s -> %s\n", m.Source, m.Target))
		}
		sb.WriteString("\n")
	}

	if uctx != nil && len(uctx.Dependencies) > 0 {
		sb.WriteString("## Code Under Test\n")
		for _, d := range uctx.Dependencies {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", d.TargetSymbol, d.TargetSignature))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Requirements\n")
	sb.WriteString("- Keep the test case count identical: every source test case maps to exactly one target test case.\n")
	sb.WriteString("- Keep every literal fixture and expected value byte-for-byte unchanged.\n")
	sb.WriteString("- Do not rewrite human-readable scenario text; translate only executable steps.\n\n")

	b.writeSource(&sb, unit.SourceCode)

	sb.WriteString("## Output\n")
	sb.WriteString("Return ONLY the translated test code, no explanations or markdown formatting.\n")
	return sb.String()
}

// BuildRepairPrompt builds a targeted-fix prompt from the full diagnostics of
// the immediately preceding validation. The full structured error set is
// always included, never summarized.
func (b *PromptBuilder) BuildRepairPrompt(unit *ir.TranslationUnit, lastCandidate string, result *ir.ValidationResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("The following %s translation of a %s unit failed validation. ", b.target, b.source))
	sb.WriteString("Apply the minimal targeted fix for the reported diagnostics. Do NOT rewrite the unit from scratch.\n\n")

	sb.WriteString("## Diagnostics\n")
	for _, d := range result.Errors {
		sb.WriteString("- " + d.String() + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Original Source\n")
	sb.WriteString("```" + string(b.source) + "\n")
	sb.WriteString(unit.SourceCode)
	sb.WriteString("\n```\n\n")

	sb.WriteString("## Failing Candidate\n")
	sb.WriteString("```" + string(b.target) + "\n")
	sb.WriteString(lastCandidate)
	sb.WriteString("\n```\n\n")

	if unit.IR != nil {
		sb.WriteString("## Signature Contract\n")
		sb.WriteString(unit.IR.Signature())
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Output\n")
	sb.WriteString("Return ONLY the fixed code, no explanations or markdown formatting.\n")
	return sb.String()
}

func (b *PromptBuilder) writeSource(sb *strings.Builder, code string) {
	sb.WriteString("## Source Code\n")
	sb.WriteString("```" + string(b.source) + "\n")
	sb.WriteString(code)
	sb.WriteString("\n```\n\n")
}
