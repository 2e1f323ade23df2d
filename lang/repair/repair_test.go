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

package repair

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/translate"
	"github.com/codemorph/codemorph/lang/validate"
)

func newUnit() *ir.TranslationUnit {
	return &ir.TranslationUnit{
		ID:             "src/service.java#service.findUser",
		Kind:           ir.KindFunction,
		SourceLanguage: ir.Java,
		TargetLanguage: ir.Golang,
		Identity:       ir.Identity{File: "src/service.java", Package: "service", Name: "findUser"},
		SourceCode:     "public User findUser(long id) { return repo.get(id); }",
		IR: &ir.IR{
			Name:     "findUser",
			Kind:     ir.KindFunction,
			Exported: true,
			Params:   []ir.Param{{Name: "id", Type: "int64"}},
		},
		Status: ir.StatusNew,
	}
}

// newLoop wires a loop whose validator fails the first failures runs, each
// with a distinct diagnostic, then passes.
func newLoop(t *testing.T, failures int) *Loop {
	t.Helper()
	tr, err := translate.NewUnitTranslator(translate.Options{
		SourceLanguage: ir.Java,
		TargetLanguage: ir.Golang,
		Backend: func(ctx context.Context, req *translate.Request) (*translate.Response, error) {
			return &translate.Response{Code: "func FindUser(id int64) *User { return nil }"}, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	run := 0
	v, err := validate.New(validate.Options{
		TargetLanguage: ir.Golang,
		WorkDir:        t.TempDir(),
		Runner: func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
			run++
			if run <= failures {
				out := fmt.Sprintf("./service.go:%d:1: undefined: dep%d\n", run, run)
				return []byte(out), errors.New("exit status 1")
			}
			return nil, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	loop, err := New(Options{Translator: tr, Validator: v})
	if err != nil {
		t.Fatal(err)
	}
	return loop
}

func TestPassOnFirstAttempt(t *testing.T) {
	unit := newUnit()
	out, err := newLoop(t, 0).Run(context.Background(), unit, &translate.UnitContext{})
	if err != nil {
		t.Fatal(err)
	}
	if unit.Status != ir.StatusPass {
		t.Fatalf("status = %s, want PASS", unit.Status)
	}
	if unit.AttemptCount != 1 {
		t.Fatalf("attempt_count = %d, want 1", unit.AttemptCount)
	}
	if out.Selected == nil {
		t.Fatal("expected a selected candidate")
	}
	if len(out.Repairs) != 0 {
		t.Fatalf("expected no repair records, got %d", len(out.Repairs))
	}
}

func TestRepairRecoversOnSecondAttempt(t *testing.T) {
	unit := newUnit()
	out, err := newLoop(t, 1).Run(context.Background(), unit, &translate.UnitContext{})
	if err != nil {
		t.Fatal(err)
	}
	if unit.Status != ir.StatusPass {
		t.Fatalf("status = %s, want PASS", unit.Status)
	}
	if unit.AttemptCount != 2 {
		t.Fatalf("attempt_count = %d, want 2", unit.AttemptCount)
	}
	if len(out.Repairs) != 1 {
		t.Fatalf("expected 1 repair record, got %d", len(out.Repairs))
	}
	rec := out.Repairs[0]
	if rec.AttemptNumber != 2 {
		t.Fatalf("repair attempt number = %d, want 2", rec.AttemptNumber)
	}
	if len(rec.DiagnosticsConsumed) != 1 || rec.DiagnosticsConsumed[0].Message != "undefined: dep1" {
		t.Fatalf("repair record missing consumed diagnostics: %+v", rec)
	}
}

func TestBudgetExhaustionFreezesTerminal(t *testing.T) {
	unit := newUnit()
	out, err := newLoop(t, 10).Run(context.Background(), unit, &translate.UnitContext{})
	if err != nil {
		t.Fatal(err)
	}
	if unit.Status != ir.StatusFailedTerminal {
		t.Fatalf("status = %s, want FAILED_TERMINAL", unit.Status)
	}
	if unit.AttemptCount != DefaultMaxAttempts {
		t.Fatalf("attempt_count = %d, want %d", unit.AttemptCount, DefaultMaxAttempts)
	}
	if !unit.HasFlag(ir.FlagNeedsManualReview) {
		t.Fatal("expected NEEDS_MANUAL_REVIEW flag")
	}
	if len(out.Repairs) != DefaultMaxAttempts-1 {
		t.Fatalf("expected %d repair records, got %d", DefaultMaxAttempts-1, len(out.Repairs))
	}
	// Each repair record must carry the diagnostics of the attempt it fixed,
	// and they must be distinct.
	seen := map[string]bool{}
	for _, rec := range out.Repairs {
		if len(rec.DiagnosticsConsumed) == 0 {
			t.Fatalf("repair record %d has no diagnostics", rec.AttemptNumber)
		}
		msg := rec.DiagnosticsConsumed[0].Message
		if seen[msg] {
			t.Fatalf("duplicate diagnostics across repair records: %q", msg)
		}
		seen[msg] = true
	}
	if len(out.History) != DefaultMaxAttempts {
		t.Fatalf("expected %d validation results, got %d", DefaultMaxAttempts, len(out.History))
	}
}

func TestTerminalUnitIsFrozen(t *testing.T) {
	unit := newUnit()
	unit.Status = ir.StatusFailedTerminal
	unit.AttemptCount = DefaultMaxAttempts
	out, err := newLoop(t, 0).Run(context.Background(), unit, &translate.UnitContext{})
	if err != nil {
		t.Fatal(err)
	}
	if unit.Status != ir.StatusFailedTerminal || unit.AttemptCount != DefaultMaxAttempts {
		t.Fatalf("terminal unit was mutated: %s/%d", unit.Status, unit.AttemptCount)
	}
	if out.Selected != nil || len(out.History) != 0 {
		t.Fatal("terminal unit must not be re-processed")
	}
}

func TestGenerationFailureIsTerminal(t *testing.T) {
	tr, err := translate.NewUnitTranslator(translate.Options{
		SourceLanguage: ir.Java,
		TargetLanguage: ir.Golang,
		BackendRetries: -1,
		Backend: func(ctx context.Context, req *translate.Request) (*translate.Response, error) {
			return nil, errors.New("backend down")
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	v, err := validate.New(validate.Options{
		TargetLanguage: ir.Golang,
		WorkDir:        t.TempDir(),
		Runner: func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
			return nil, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	loop, err := New(Options{Translator: tr, Validator: v})
	if err != nil {
		t.Fatal(err)
	}
	unit := newUnit()
	if _, err := loop.Run(context.Background(), unit, &translate.UnitContext{}); err != nil {
		t.Fatal(err)
	}
	if unit.Status != ir.StatusFailedTerminal {
		t.Fatalf("status = %s, want FAILED_TERMINAL", unit.Status)
	}
	if !unit.HasFlag(ir.FlagNeedsManualReview) {
		t.Fatal("expected NEEDS_MANUAL_REVIEW flag")
	}
}
