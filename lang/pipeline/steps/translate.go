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

package steps

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/codemorph/codemorph/lang/depmap"
	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/log"
	"github.com/codemorph/codemorph/lang/pipeline"
	"github.com/codemorph/codemorph/lang/repair"
	"github.com/codemorph/codemorph/lang/rules"
	"github.com/codemorph/codemorph/lang/translate"
	"github.com/codemorph/codemorph/lang/validate"
)

// TranslateStep drives every unit through generation, validation and repair,
// level by level along the dependency graph. All units of one level run in
// parallel on a bounded pool; a level starts only after every unit of the
// previous level is terminal, because translation consumes dependency
// signatures, and those are stable only once their unit is terminal.
type TranslateStep struct {
	Backend    translate.BackendFunc
	Rules      *rules.RuleSet
	Assertions *rules.AssertionTable
	// Store receives translation outcomes to reinforce mapping confidence.
	// May be nil.
	Store depmap.Store

	Candidates  int // pass@k fan-out per unit
	Concurrency int // worker pool bound per level
	MaxAttempts int // repair budget per unit

	// StagingDir hosts per-unit validation workspaces; a temp dir is used
	// when empty.
	StagingDir string
	// Runner overrides toolchain execution, used by tests.
	Runner validate.Runner
	// Timeout bounds one validator invocation, 0 means the default.
	Timeout time.Duration

	// Progress, if set, is notified whenever a unit reaches a terminal
	// status.
	Progress func(unitID string, status ir.UnitStatus)
}

// Name implements pipeline.Step.
func (s *TranslateStep) Name() string { return "translate" }

// Run implements pipeline.Step.
func (s *TranslateStep) Run(ctx context.Context, state *pipeline.PipelineState) (*pipeline.PipelineState, error) {
	next := state.Clone()
	if next.Graph == nil {
		next.BuildGraph()
	}

	translator, err := translate.NewUnitTranslator(translate.Options{
		SourceLanguage: next.SourceLang,
		TargetLanguage: next.TargetLang,
		Backend:        s.Backend,
		Candidates:     s.Candidates,
		Concurrency:    s.Concurrency,
		Rules:          s.Rules,
		Assertions:     s.Assertions,
	})
	if err != nil {
		return next, err
	}

	concurrency := s.Concurrency
	if concurrency < 1 {
		concurrency = 4
	}

	levels, breaks := next.Graph.Levels()
	for _, b := range breaks {
		log.Warn("scheduling across broken cycle edge %s -> %s", b.From, b.To)
	}

	var mu sync.Mutex
	workerID := 0
	for levelIdx, level := range levels {
		if err := ctx.Err(); err != nil {
			return next, err
		}
		log.Info("level %d: %d units", levelIdx, len(level))

		var wg sync.WaitGroup
		semaphore := make(chan struct{}, concurrency)
		for _, id := range level {
			unit := next.Units[id]
			if unit == nil || unit.Status.Terminal() {
				continue
			}
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			workerID++
			go func(id string, unit *ir.TranslationUnit, widx int) {
				defer wg.Done()
				semaphore <- struct{}{}
				defer func() { <-semaphore }()

				outcome, err := s.runUnit(ctx, next, translator, unit, widx)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					// Cancellation or staging fault: the unit keeps its
					// last fully-recorded state.
					log.Error("unit %s: %v", id, err)
					return
				}
				rec := &pipeline.UnitRecord{UnitID: id, History: outcome.History, Repairs: outcome.Repairs}
				if outcome.Selected != nil {
					rec.Code = outcome.Selected.Code
					rec.Selected = outcome.Selected.CandidateIndex
				}
				if outcome.LastCandidate != nil {
					rec.LastCandidate = outcome.LastCandidate.Code
				}
				next.Records[id] = rec
				s.recordOutcome(next, id, unit.Status == ir.StatusPass)
				if s.Progress != nil {
					s.Progress(id, unit.Status)
				}
			}(id, unit, workerID)
		}
		wg.Wait()
	}

	if err := ctx.Err(); err != nil {
		return next, err
	}
	return next, nil
}

// runUnit takes one unit through the repair loop in its own staging
// directory.
func (s *TranslateStep) runUnit(ctx context.Context, state *pipeline.PipelineState, translator *translate.UnitTranslator, unit *ir.TranslationUnit, widx int) (*repair.Outcome, error) {
	workDir := ""
	if s.StagingDir != "" {
		workDir = filepath.Join(s.StagingDir, fmt.Sprintf("unit-%04d", widx))
	}
	validator, err := validate.New(validate.Options{
		TargetLanguage: state.TargetLang,
		WorkDir:        workDir,
		Timeout:        s.Timeout,
		Runner:         s.Runner,
	})
	if err != nil {
		return nil, err
	}
	loop, err := repair.New(repair.Options{
		Translator:  translator,
		Validator:   validator,
		MaxAttempts: s.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	return loop.Run(ctx, unit, s.unitContext(state, unit))
}

// unitContext bundles the unit's resolved mappings with the signatures of
// its already-terminal dependencies.
func (s *TranslateStep) unitContext(state *pipeline.PipelineState, unit *ir.TranslationUnit) *translate.UnitContext {
	uctx := &translate.UnitContext{Resolved: state.Resolved[unit.ID]}
	for _, depID := range state.Graph.Dependencies(unit.ID) {
		dep := state.Units[depID]
		if dep == nil || dep.Status != ir.StatusPass || dep.IR == nil {
			continue
		}
		uctx.Dependencies = append(uctx.Dependencies, translate.DependencyHint{
			SourceID:        depID,
			TargetSymbol:    translate.ConvertSymbol(state.TargetLang, dep.Kind, dep.IR.Name, dep.IR.Exported),
			TargetSignature: dep.IR.Signature(),
		})
	}
	return uctx
}

// recordOutcome reinforces mapping confidence from the unit's terminal
// result. Caller holds the state mutex.
func (s *TranslateStep) recordOutcome(state *pipeline.PipelineState, unitID string, success bool) {
	if s.Store == nil {
		return
	}
	for _, ri := range state.Resolved[unitID] {
		s.Store.RecordOutcome(ri.Mapping.SourceImport, success)
	}
}
