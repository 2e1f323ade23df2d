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

package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/codemorph/codemorph/lang/log"
)

// RunPipeline runs steps in sequence, each receiving the state the previous
// step produced, and appends one history record per step. On failure the
// partially-advanced state is returned alongside the error so the run can
// be inspected or resumed; the snapshot on disk always reflects the last
// fully-recorded state.
func RunPipeline(ctx context.Context, state *PipelineState, steps []Step) (*PipelineState, error) {
	if state == nil {
		return nil, fmt.Errorf("pipeline: initial state is nil")
	}
	current := state
	for i, step := range steps {
		if step == nil {
			return current, fmt.Errorf("pipeline: step %d is nil", i)
		}
		if err := ctx.Err(); err != nil {
			return current, err
		}
		start := time.Now()
		log.Info("run %s: step %s started", current.RunID, step.Name())
		next, err := step.Run(ctx, current)
		if next == nil {
			next = current
		}
		rec := StepRecord{
			StepID:    fmt.Sprintf("%s-%s", current.RunID, step.Name()),
			StepName:  step.Name(),
			StartedAt: start,
			EndedAt:   time.Now(),
			Status:    "ok",
		}
		if err != nil {
			rec.Status = "failed"
			rec.Err = err.Error()
		}
		next.History = append(next.History, rec)
		persistState(next)
		if err != nil {
			return next, fmt.Errorf("pipeline step %q: %w", step.Name(), err)
		}
		current = next
	}
	return current, nil
}

// persistState snapshots the state under the output dir. Best effort: a
// failed snapshot is logged, never fatal.
func persistState(s *PipelineState) {
	if s.OutputDir == "" {
		return
	}
	path := filepath.Join(s.OutputDir, ".codemorph", "pipeline_state.json")
	if err := s.SaveToFile(path); err != nil {
		log.Warn("persist pipeline state: %v", err)
		return
	}
	s.Artifacts["pipeline_state"] = Artifact{Path: path, Kind: "state_json"}
}
