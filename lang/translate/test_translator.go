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
	"context"
	"fmt"

	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/log"
	"github.com/codemorph/codemorph/lang/rules"
)

// translateTest handles units of kind test. Test units are never chunked:
// assertion accounting requires the whole body in one request. Each produced
// candidate must carry exactly as many target assertions as the source has
// source assertions; a candidate with a mismatched count is discarded and
// regenerated within the transient retry budget.
func (t *UnitTranslator) translateTest(ctx context.Context, unit *ir.TranslationUnit, uctx *UnitContext, generation int) ([]ir.TranslationCandidate, error) {
	table := t.opts.Assertions
	if table == nil {
		table = rules.DefaultAssertionTable(t.opts.SourceLanguage, t.opts.TargetLanguage)
	}
	wantAssertions := table.CountAssertions(unit.SourceCode)
	prompt := t.prompts.BuildTestPrompt(unit, uctx, table)

	k := t.opts.Candidates
	var out []ir.TranslationCandidate
	var lastErr error
	for i := 0; i < k; i++ {
		req := &Request{
			SourceLanguage: t.opts.SourceLanguage,
			TargetLanguage: t.opts.TargetLanguage,
			UnitID:         unit.ID,
			Kind:           unit.Kind,
			SourceCode:     unit.SourceCode,
			TotalChunks:    1,
			Prompt:         prompt,
		}
		code, err := t.generateTestCandidate(ctx, unit.ID, req, wantAssertions)
		if err != nil {
			lastErr = err
			log.Warn("test candidate %d/%d for unit %s failed: %v", i+1, k, unit.ID, err)
			continue
		}
		out = append(out, ir.TranslationCandidate{
			UnitID:            unit.ID,
			CandidateIndex:    i,
			Code:              code,
			GenerationAttempt: generation,
		})
	}
	if len(out) == 0 {
		return nil, lastErr
	}
	if t.opts.Progress != nil {
		t.opts.Progress(unit.ID, len(out))
	}
	return out, nil
}

// generateTestCandidate retries until the backend produces a body whose
// target assertion count matches the source, or the retry budget runs out.
func (t *UnitTranslator) generateTestCandidate(ctx context.Context, unitID string, req *Request, wantAssertions int) (string, error) {
	attempts := t.opts.BackendRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		resp, err := t.opts.Backend(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Error != "" {
			lastErr = fmt.Errorf("backend: %s", resp.Error)
			continue
		}
		if wantAssertions > 0 {
			got := rules.CountTargetAssertions(t.opts.TargetLanguage, resp.Code)
			if got != wantAssertions {
				lastErr = fmt.Errorf("assertion count mismatch: source has %d, candidate has %d", wantAssertions, got)
				continue
			}
		}
		return resp.Code, nil
	}
	return "", &TranslationError{UnitID: unitID, Attempts: attempts, Err: lastErr}
}
