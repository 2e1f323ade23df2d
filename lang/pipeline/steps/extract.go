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

// Package steps contains the concrete pipeline phases: extract, resolve,
// translate, assemble and report.
package steps

import (
	"context"
	"fmt"

	"github.com/codemorph/codemorph/lang/extract"
	"github.com/codemorph/codemorph/lang/log"
	"github.com/codemorph/codemorph/lang/pipeline"
)

// ExtractStep parses the source tree into translation units with IR and
// builds the dependency graph. The only run-aborting condition of the whole
// pipeline lives here: an empty or unreadable source tree.
type ExtractStep struct{}

// Name implements pipeline.Step.
func (s *ExtractStep) Name() string { return "extract" }

// Run implements pipeline.Step.
func (s *ExtractStep) Run(ctx context.Context, state *pipeline.PipelineState) (*pipeline.PipelineState, error) {
	next := state.Clone()

	extractor, err := extract.NewExtractor(state.SourceLang, state.TargetLang)
	if err != nil {
		return next, err
	}
	units, extErrs, err := extractor.ExtractDir(ctx, state.InputDir)
	if err != nil {
		return next, fmt.Errorf("extract: %w", err)
	}
	for _, e := range extErrs {
		log.Warn("extract: %v", e)
	}
	for _, u := range units {
		if _, dup := next.Units[u.ID]; dup {
			return next, fmt.Errorf("extract: duplicate unit id %s", u.ID)
		}
		next.Units[u.ID] = u
	}
	next.BuildGraph()
	log.Info("extract: %d units, %d skipped inputs, graph size %d",
		len(units), len(extErrs), next.Graph.Size())
	return next, nil
}
