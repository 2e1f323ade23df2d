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

// Package repair drives one translation unit through the bounded
// translate/validate/repair state machine until it reaches a terminal
// status.
package repair

import (
	"context"

	"github.com/pkg/errors"

	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/log"
	"github.com/codemorph/codemorph/lang/translate"
	"github.com/codemorph/codemorph/lang/validate"
)

// DefaultMaxAttempts bounds validation attempts per unit: one initial
// attempt plus repairs until the budget is spent.
const DefaultMaxAttempts = 3

// Options configures a Loop.
type Options struct {
	Translator *translate.UnitTranslator
	Validator  *validate.Validator
	// MaxAttempts bounds validation attempts per unit (default 3). Once a
	// unit reaches it still failing, its status freezes at FAILED_TERMINAL.
	MaxAttempts int
}

// Outcome is the full record of one unit's trip through the loop, consumed
// by the report writer.
type Outcome struct {
	Unit     *ir.TranslationUnit
	Selected *ir.TranslationCandidate
	// Final is the validation result of the selected candidate, or the last
	// failing result for units that never passed.
	Final *ir.ValidationResult
	// LastCandidate is the final failing candidate of a FAILED_TERMINAL
	// unit, kept so the assembler can emit it as a commented stub.
	LastCandidate *ir.TranslationCandidate
	History       []*ir.ValidationResult
	Repairs       []ir.RepairAttempt
}

// Loop owns unit status transitions. Nothing else mutates a unit's status
// or attempt count.
type Loop struct {
	opts Options
}

// New creates a repair loop.
func New(opts Options) (*Loop, error) {
	if opts.Translator == nil {
		return nil, errors.New("Translator is required")
	}
	if opts.Validator == nil {
		return nil, errors.New("Validator is required")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Loop{opts: opts}, nil
}

// Run drives the unit to a terminal status. Units already terminal are
// returned untouched; re-running the loop is idempotent. The error return
// reports infrastructure faults (staging, cancellation); a unit that merely
// fails translation or validation ends FAILED_TERMINAL with a nil error.
func (l *Loop) Run(ctx context.Context, unit *ir.TranslationUnit, uctx *translate.UnitContext) (*Outcome, error) {
	out := &Outcome{Unit: unit}
	if unit.Status.Terminal() {
		return out, nil
	}

	candidates, err := l.opts.Translator.Translate(ctx, unit, uctx, 1)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error("unit %s: generation failed: %v", unit.ID, err)
		unit.Status = ir.StatusFailedTerminal
		unit.AddFlag(ir.FlagNeedsManualReview)
		return out, nil
	}
	unit.Status = ir.StatusTranslated

	// Initial validation of the whole candidate set.
	unit.Status = ir.StatusValidating
	unit.AttemptCount = 1
	scored := make([]translate.ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		res, err := l.validate(ctx, unit, &candidates[i])
		if err != nil {
			return nil, err
		}
		out.History = append(out.History, res)
		scored = append(scored, translate.ScoredCandidate{Candidate: candidates[i], Result: res})
	}
	if best, ok := translate.Select(scored); ok {
		unit.Status = ir.StatusPass
		out.Selected = &best.Candidate
		out.Final = best.Result
		return out, nil
	}
	unit.Status = ir.StatusFailed

	// Repair the least-broken candidate. Ties go to the lowest index so
	// the pick is stable run to run.
	current, result := pickRepairTarget(scored)
	out.Final = result

	for unit.AttemptCount < l.opts.MaxAttempts {
		unit.Status = ir.StatusRepairing
		attempt := unit.AttemptCount + 1
		repaired, err := l.opts.Translator.Repair(ctx, unit, current.Code, result, attempt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Error("unit %s: repair generation failed: %v", unit.ID, err)
			break
		}
		out.Repairs = append(out.Repairs, ir.RepairAttempt{
			UnitID:              unit.ID,
			AttemptNumber:       attempt,
			DiagnosticsConsumed: result.Errors,
			ResultingCandidate:  repaired.CandidateIndex,
		})

		unit.Status = ir.StatusValidating
		unit.AttemptCount = attempt
		res, err := l.validate(ctx, unit, repaired)
		if err != nil {
			return nil, err
		}
		out.History = append(out.History, res)
		current, result = repaired, res
		out.Final = res

		if res.Passed {
			unit.Status = ir.StatusPass
			out.Selected = repaired
			return out, nil
		}
		unit.Status = ir.StatusFailed
	}

	unit.Status = ir.StatusFailedTerminal
	unit.AddFlag(ir.FlagNeedsManualReview)
	out.LastCandidate = current
	log.Info("unit %s: failed terminally after %d attempts", unit.ID, unit.AttemptCount)
	return out, nil
}

func (l *Loop) validate(ctx context.Context, unit *ir.TranslationUnit, cand *ir.TranslationCandidate) (*ir.ValidationResult, error) {
	res, err := l.opts.Validator.Validate(ctx, unit, cand, unit.AttemptCount)
	if err != nil {
		return nil, errors.Wrapf(err, "validate unit %s", unit.ID)
	}
	if failures := l.opts.Translator.RuleFailures(unit, cand.Code); len(failures) > 0 {
		for _, id := range failures {
			res.Warnings = append(res.Warnings, ir.Diagnostic{
				Message: "feature rule not honored: " + id,
				Class:   ir.ClassRuntime,
			})
		}
	}
	return res, nil
}

// pickRepairTarget selects the failing candidate with the fewest errors.
func pickRepairTarget(scored []translate.ScoredCandidate) (*ir.TranslationCandidate, *ir.ValidationResult) {
	best := 0
	for i := 1; i < len(scored); i++ {
		if len(scored[i].Result.Errors) < len(scored[best].Result.Errors) {
			best = i
		}
	}
	return &scored[best].Candidate, scored[best].Result
}
