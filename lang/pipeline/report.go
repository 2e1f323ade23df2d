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
	"encoding/json"
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/codemorph/codemorph/lang/assemble"
	"github.com/codemorph/codemorph/lang/depmap"
	"github.com/codemorph/codemorph/lang/ir"
)

// Report is the machine-readable summary of one run. Every non-PASS
// terminal unit carries its full diagnostic history here; nothing is
// summarized away.
type Report struct {
	RunID      string      `json:"run_id"`
	SourceLang ir.Language `json:"source_lang"`
	TargetLang ir.Language `json:"target_lang"`

	Units []UnitReport `json:"units"`

	NeedsManualMapping []string `json:"needs_manual_mapping,omitempty"`
	NeedsManualReview  []string `json:"needs_manual_review,omitempty"`

	Mappings []depmap.Mapping  `json:"mappings,omitempty"`
	Project  *assemble.Project `json:"project,omitempty"`

	Totals ReportTotals `json:"totals"`
}

// UnitReport is the per-unit slice of the report.
type UnitReport struct {
	UnitID       string                 `json:"unit_id"`
	Kind         ir.UnitKind            `json:"kind"`
	Status       ir.UnitStatus          `json:"status"`
	AttemptCount int                    `json:"attempt_count"`
	Flags        []string               `json:"flags,omitempty"`
	Mappings     []MappingUse           `json:"mappings,omitempty"`
	History      []*ir.ValidationResult `json:"history,omitempty"`
	Repairs      []ir.RepairAttempt     `json:"repairs,omitempty"`
}

// MappingUse records one dependency mapping a unit translated against,
// with the confidence it had at resolution time.
type MappingUse struct {
	SourceImport string  `json:"source_import"`
	TargetImport string  `json:"target_import"`
	Confidence   float64 `json:"confidence"`
	Suggested    bool    `json:"suggested,omitempty"`
}

// ReportTotals aggregates terminal statuses.
type ReportTotals struct {
	Units          int `json:"units"`
	Passed         int `json:"passed"`
	FailedTerminal int `json:"failed_terminal"`
	Skipped        int `json:"skipped"`
}

// BuildReport assembles the report from a finished (or aborted) run state.
// Unit order is sorted by id so the report is stable run to run.
func BuildReport(state *PipelineState) *Report {
	r := &Report{
		RunID:      state.RunID,
		SourceLang: state.SourceLang,
		TargetLang: state.TargetLang,
		Mappings:   state.Mappings,
		Project:    state.Project,
	}

	ids := make([]string, 0, len(state.Units))
	for id := range state.Units {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		u := state.Units[id]
		ur := UnitReport{
			UnitID:       id,
			Kind:         u.Kind,
			Status:       u.Status,
			AttemptCount: u.AttemptCount,
			Flags:        u.Flags,
		}
		for _, ri := range state.Resolved[id] {
			ur.Mappings = append(ur.Mappings, MappingUse{
				SourceImport: ri.Mapping.SourceImport,
				TargetImport: ri.Mapping.TargetImport,
				Confidence:   ri.Mapping.Confidence,
				Suggested:    ri.Suggested,
			})
		}
		if rec := state.Records[id]; rec != nil {
			ur.History = rec.History
			ur.Repairs = rec.Repairs
		}
		r.Units = append(r.Units, ur)

		if u.HasFlag(ir.FlagNeedsManualMapping) {
			r.NeedsManualMapping = append(r.NeedsManualMapping, id)
		}
		if u.HasFlag(ir.FlagNeedsManualReview) {
			r.NeedsManualReview = append(r.NeedsManualReview, id)
		}

		r.Totals.Units++
		switch u.Status {
		case ir.StatusPass:
			r.Totals.Passed++
		case ir.StatusFailedTerminal:
			r.Totals.FailedTerminal++
		case ir.StatusSkipped:
			r.Totals.Skipped++
		}
	}
	return r
}

// MarshalIndentReport renders the report as indented JSON.
func MarshalIndentReport(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ReportSchema returns the JSON schema of the report document, for
// consumers that validate reports before ingesting them.
func ReportSchema() ([]byte, error) {
	reflector := &jsonschema.Reflector{DoNotReference: false}
	schema := reflector.Reflect(&Report{})
	return json.MarshalIndent(schema, "", "  ")
}
