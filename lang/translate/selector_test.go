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
	"testing"

	"github.com/codemorph/codemorph/lang/ir"
)

func scored(idx int, passed bool, warnings int) ScoredCandidate {
	r := &ir.ValidationResult{Passed: passed}
	for i := 0; i < warnings; i++ {
		r.Warnings = append(r.Warnings, ir.Diagnostic{Message: "unused import"})
	}
	return ScoredCandidate{
		Candidate: ir.TranslationCandidate{CandidateIndex: idx, Code: "c"},
		Result:    r,
	}
}

func TestSelectPrefersFewerWarnings(t *testing.T) {
	best, ok := Select([]ScoredCandidate{
		scored(0, true, 2),
		scored(1, true, 0),
		scored(2, true, 1),
	})
	if !ok {
		t.Fatal("expected a winner")
	}
	if best.Candidate.CandidateIndex != 1 {
		t.Fatalf("winner = %d, want 1", best.Candidate.CandidateIndex)
	}
}

func TestSelectTieGoesToLowestIndex(t *testing.T) {
	// Pass the candidates in reverse order: the tie must still resolve
	// by candidate index, not arrival order.
	best, ok := Select([]ScoredCandidate{
		scored(2, true, 1),
		scored(0, true, 1),
		scored(1, true, 1),
	})
	if !ok {
		t.Fatal("expected a winner")
	}
	if best.Candidate.CandidateIndex != 0 {
		t.Fatalf("winner = %d, want 0", best.Candidate.CandidateIndex)
	}
}

func TestSelectSkipsFailedCandidates(t *testing.T) {
	best, ok := Select([]ScoredCandidate{
		scored(0, false, 0),
		scored(1, true, 3),
		scored(2, false, 0),
	})
	if !ok {
		t.Fatal("expected a winner")
	}
	if best.Candidate.CandidateIndex != 1 {
		t.Fatalf("winner = %d, want 1", best.Candidate.CandidateIndex)
	}
}

func TestSelectNoPassingCandidates(t *testing.T) {
	if _, ok := Select([]ScoredCandidate{scored(0, false, 0)}); ok {
		t.Fatal("expected no winner")
	}
	if _, ok := Select(nil); ok {
		t.Fatal("expected no winner for empty input")
	}
}

func TestScoreFloorsAtZero(t *testing.T) {
	if s := Score(scored(0, true, 40)); s != 0 {
		t.Fatalf("score = %v, want 0", s)
	}
	if s := Score(scored(0, true, 0)); s != 1.0 {
		t.Fatalf("score = %v, want 1.0", s)
	}
	if s := Score(scored(0, false, 0)); s != 0 {
		t.Fatalf("failed candidate score = %v, want 0", s)
	}
}
