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
	"sync"

	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/log"
)

// UnitTranslator produces target-language candidates from a unit's IR, the
// resolved dependency mappings and the feature-mapping rule set.
type UnitTranslator struct {
	opts    Options
	prompts *PromptBuilder
}

// NewUnitTranslator creates a translator for the configured language pair.
func NewUnitTranslator(opts Options) (*UnitTranslator, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	o := opts.withDefaults()
	return &UnitTranslator{
		opts:    o,
		prompts: NewPromptBuilder(o.SourceLanguage, o.TargetLanguage),
	}, nil
}

// TargetSymbol returns the unit's symbol name adapted to the target naming
// convention.
func (t *UnitTranslator) TargetSymbol(unit *ir.TranslationUnit) string {
	if unit.IR == nil {
		return unit.Identity.Name
	}
	return ConvertSymbol(t.opts.TargetLanguage, unit.Kind, unit.IR.Name, unit.IR.Exported)
}

// Translate produces k independent candidates for the unit. Candidates are
// generated in parallel on a bounded pool; large units are split into ordered
// chunks and losslessly reassembled. Partial fan-out failure still returns
// the candidates that were produced; only total failure is an error.
func (t *UnitTranslator) Translate(ctx context.Context, unit *ir.TranslationUnit, uctx *UnitContext, generation int) ([]ir.TranslationCandidate, error) {
	if unit.Kind == ir.KindTest {
		return t.translateTest(ctx, unit, uctx, generation)
	}

	matched := t.opts.Rules.Match(unit.SourceCode)
	chunks := splitChunks(unit.SourceCode, t.opts.MaxChunkBytes)

	k := t.opts.Candidates
	candidates := make([]*ir.TranslationCandidate, k)
	errs := make([]error, k)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, t.opts.Concurrency)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			parts := make([]string, len(chunks))
			for j, chunk := range chunks {
				req := &Request{
					SourceLanguage: t.opts.SourceLanguage,
					TargetLanguage: t.opts.TargetLanguage,
					UnitID:         unit.ID,
					Kind:           unit.Kind,
					SourceCode:     chunk,
					ChunkIndex:     j,
					TotalChunks:    len(chunks),
				}
				req.Prompt = t.prompts.BuildUnitPrompt(unit, uctx, matched, chunk, j, len(chunks))
				code, err := t.callBackend(ctx, unit.ID, req)
				if err != nil {
					errs[i] = err
					return
				}
				parts[j] = code
			}
			candidates[i] = &ir.TranslationCandidate{
				UnitID:            unit.ID,
				CandidateIndex:    i,
				Code:              reassemble(parts),
				GenerationAttempt: generation,
			}
		}(i)
	}
	wg.Wait()

	var out []ir.TranslationCandidate
	var lastErr error
	for i := 0; i < k; i++ {
		if errs[i] != nil {
			lastErr = errs[i]
			log.Warn("candidate %d/%d for unit %s failed: %v", i+1, k, unit.ID, errs[i])
			continue
		}
		out = append(out, *candidates[i])
	}
	if len(out) == 0 {
		return nil, lastErr
	}
	if t.opts.Progress != nil {
		t.opts.Progress(unit.ID, len(out))
	}
	return out, nil
}

// Repair produces one candidate that targets exactly the reported
// diagnostics of the immediately preceding validation. It refuses an empty
// diagnostic set: a repair without diagnostics would be a blind rewrite.
func (t *UnitTranslator) Repair(ctx context.Context, unit *ir.TranslationUnit, lastCandidate string, result *ir.ValidationResult, generation int) (*ir.TranslationCandidate, error) {
	if result == nil || len(result.Errors) == 0 {
		return nil, fmt.Errorf("repair unit %s: refusing repair without diagnostics", unit.ID)
	}
	req := &Request{
		SourceLanguage: t.opts.SourceLanguage,
		TargetLanguage: t.opts.TargetLanguage,
		UnitID:         unit.ID,
		Kind:           unit.Kind,
		SourceCode:     unit.SourceCode,
		TotalChunks:    1,
	}
	req.Prompt = t.prompts.BuildRepairPrompt(unit, lastCandidate, result)
	code, err := t.callBackend(ctx, unit.ID, req)
	if err != nil {
		return nil, err
	}
	return &ir.TranslationCandidate{
		UnitID:            unit.ID,
		CandidateIndex:    0,
		Code:              code,
		GenerationAttempt: generation,
	}, nil
}

// RuleFailures evaluates the validation expressions of the rules matched by
// the unit against a candidate. The ids returned count as warnings during
// candidate scoring.
func (t *UnitTranslator) RuleFailures(unit *ir.TranslationUnit, code string) []string {
	matched := t.opts.Rules.Match(unit.SourceCode)
	if len(matched) == 0 {
		return nil
	}
	failed, err := t.opts.Rules.CheckCandidate(matched, unit.SourceCode, code)
	if err != nil {
		log.Warn("rule check for unit %s: %v", unit.ID, err)
		return nil
	}
	return failed
}

// callBackend invokes the generation backend with the transient-failure
// retry budget. This budget is independent of the repair budget.
func (t *UnitTranslator) callBackend(ctx context.Context, unitID string, req *Request) (string, error) {
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
		return resp.Code, nil
	}
	return "", &TranslationError{UnitID: unitID, Attempts: attempts, Err: lastErr}
}
