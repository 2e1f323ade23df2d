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
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/codemorph/codemorph/lang/depmap"
	"github.com/codemorph/codemorph/lang/log"
	"github.com/codemorph/codemorph/lang/pipeline"
)

// ReportStep snapshots the mapping store and writes the translation report.
type ReportStep struct {
	Store depmap.Store
	// Path of the report file; defaults to <output>/translation_report.json.
	Path string
}

// Name implements pipeline.Step.
func (s *ReportStep) Name() string { return "report" }

// Run implements pipeline.Step.
func (s *ReportStep) Run(ctx context.Context, state *pipeline.PipelineState) (*pipeline.PipelineState, error) {
	next := state.Clone()
	if s.Store != nil {
		next.Mappings = s.Store.Snapshot()
	}

	report := pipeline.BuildReport(next)
	data, err := pipeline.MarshalIndentReport(report)
	if err != nil {
		return next, errors.Wrap(err, "marshal report")
	}

	path := s.Path
	if path == "" {
		path = filepath.Join(next.OutputDir, "translation_report.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return next, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return next, errors.Wrap(err, "write report")
	}
	next.Artifacts["report"] = pipeline.Artifact{Path: path, Kind: "report_json"}
	log.Info("report: %d units (%d passed, %d failed, %d skipped) -> %s",
		report.Totals.Units, report.Totals.Passed, report.Totals.FailedTerminal, report.Totals.Skipped, path)
	return next, nil
}
