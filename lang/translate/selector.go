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
	"github.com/codemorph/codemorph/lang/ir"
)

const warningPenalty = 0.05

// ScoredCandidate pairs a candidate with the validation result it obtained.
type ScoredCandidate struct {
	Candidate ir.TranslationCandidate
	Result    *ir.ValidationResult
}

// Score computes the selection score of a validated candidate. Only passing
// candidates score above zero; each warning shaves a fixed penalty off the
// base score, floored at zero.
func Score(sc ScoredCandidate) float64 {
	if sc.Result == nil || !sc.Result.Passed {
		return 0
	}
	s := 1.0 - warningPenalty*float64(len(sc.Result.Warnings))
	if s < 0 {
		s = 0
	}
	return s
}

// Select picks the winning candidate among the validated candidates of one
// unit. Selection is deterministic for a fixed input: the highest score
// wins, and a tie goes to the candidate with the lowest index. The second
// return is false when no candidate passed validation.
func Select(scored []ScoredCandidate) (ScoredCandidate, bool) {
	var best ScoredCandidate
	bestScore := -1.0
	found := false
	for _, sc := range scored {
		if sc.Result == nil || !sc.Result.Passed {
			continue
		}
		s := Score(sc)
		if s > bestScore || (s == bestScore && found && sc.Candidate.CandidateIndex < best.Candidate.CandidateIndex) {
			best = sc
			bestScore = s
			found = true
		}
	}
	return best, found
}
