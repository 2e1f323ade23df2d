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

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/codemorph/codemorph/lang/depmap"
	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/translate"
)

// TranslateBackend adapts a Generator to the translator's backend
// capability. Markdown fences around the answer are stripped; everything
// else is passed through untouched.
func TranslateBackend(gen Generator) translate.BackendFunc {
	return func(ctx context.Context, req *translate.Request) (*translate.Response, error) {
		out, err := gen.Call(ctx, req.Prompt)
		if err != nil {
			return nil, err
		}
		code := StripCodeFences(out)
		if strings.TrimSpace(code) == "" {
			return &translate.Response{Error: "model returned an empty translation"}, nil
		}
		return &translate.Response{Code: code}, nil
	}
}

// mappingAnswer is the JSON contract of the suggestion prompt.
type mappingAnswer struct {
	TargetImport string   `json:"target_import"`
	Confidence   float64  `json:"confidence"`
	Alternatives []string `json:"alternatives"`
}

// MappingSuggester adapts a Generator to the dependency resolver's
// suggestion capability. The model answers in JSON; a malformed answer is
// an error, which the resolver degrades to a zero-confidence guess.
func MappingSuggester(gen Generator) depmap.SuggesterFunc {
	return func(ctx context.Context, sourceImport string, source, target ir.Language) (depmap.Mapping, error) {
		prompt := fmt.Sprintf(
			"Map the %s import %q to its closest %s equivalent.\n"+
				"Answer with ONLY a JSON object: {\"target_import\": string, \"confidence\": number in [0,1], \"alternatives\": [string]}.\n"+
				"Use an empty target_import if the import has no target-side equivalent and the functionality must be inlined.",
			source, sourceImport, target)
		out, err := gen.Call(ctx, prompt)
		if err != nil {
			return depmap.Mapping{}, err
		}
		var ans mappingAnswer
		if err := json.Unmarshal([]byte(StripCodeFences(out)), &ans); err != nil {
			return depmap.Mapping{}, errors.Wrapf(err, "suggestion for %q is not valid JSON", sourceImport)
		}
		m := depmap.Mapping{
			SourceImport: sourceImport,
			TargetImport: ans.TargetImport,
			Confidence:   ans.Confidence,
			Alternatives: ans.Alternatives,
		}
		if err := m.Valid(); err != nil {
			return depmap.Mapping{}, err
		}
		return m, nil
	}
}

// StripCodeFences removes a surrounding markdown code fence, if present.
func StripCodeFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.Index(t, "\n"); i >= 0 {
		t = t[i+1:] // drop the language tag line
	}
	if i := strings.LastIndex(t, "```"); i >= 0 {
		t = t[:i]
	}
	return t
}
