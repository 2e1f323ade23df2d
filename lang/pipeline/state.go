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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/codemorph/codemorph/lang/assemble"
	"github.com/codemorph/codemorph/lang/depmap"
	"github.com/codemorph/codemorph/lang/ir"
)

// PipelineState is the single ground truth of a run. Every intermediate
// result is serializable so a run can be inspected or resumed from disk;
// steps never trade in-memory-only results.
type PipelineState struct {
	RunID      string      `json:"run_id"`
	SourceLang ir.Language `json:"source_lang"`
	TargetLang ir.Language `json:"target_lang"`

	InputDir  string `json:"input_dir"`
	OutputDir string `json:"output_dir"`

	// Units is keyed by unit id. Statuses and attempt counts in here are
	// the authoritative repair-loop state.
	Units map[string]*ir.TranslationUnit `json:"units,omitempty"`

	// Graph is rebuilt from unit IR on load, not persisted.
	Graph *ir.DependencyGraph `json:"-"`

	// Resolved holds the dependency mappings attached to each unit.
	Resolved map[string][]depmap.ResolvedImport `json:"resolved,omitempty"`

	// Records holds the per-unit translation record: selected code,
	// validation history and repair attempts.
	Records map[string]*UnitRecord `json:"records,omitempty"`

	// Mappings is the final mapping store snapshot, taken by the report step.
	Mappings []depmap.Mapping `json:"mappings,omitempty"`

	Project *assemble.Project `json:"project,omitempty"`

	Artifacts map[string]Artifact `json:"artifacts,omitempty"`
	History   []StepRecord        `json:"history,omitempty"`
}

// UnitRecord is the serializable outcome of one unit's trip through the
// repair loop.
type UnitRecord struct {
	UnitID string `json:"unit_id"`
	// Code is the winning candidate for PASS units.
	Code string `json:"code,omitempty"`
	// LastCandidate is the final failing candidate of a FAILED_TERMINAL
	// unit, emitted later as a commented stub.
	LastCandidate string                 `json:"last_candidate,omitempty"`
	History       []*ir.ValidationResult `json:"history,omitempty"`
	Repairs       []ir.RepairAttempt     `json:"repairs,omitempty"`
	Selected      int                    `json:"selected_candidate"`
}

// StepRecord is an immutable log entry for one step execution.
type StepRecord struct {
	StepID    string    `json:"step_id"`
	StepName  string    `json:"step_name"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Status    string    `json:"status"` // "ok", "failed"
	Err       string    `json:"err,omitempty"`
}

// Artifact is a named blob persisted on disk.
type Artifact struct {
	Path string `json:"path"`
	Kind string `json:"kind"` // "report_json", "state_json", "project_tree"
}

// NewPipelineState returns an initial state with a fresh run id.
func NewPipelineState(sourceLang, targetLang ir.Language, inputDir, outputDir string) *PipelineState {
	return &PipelineState{
		RunID:      uuid.NewString(),
		SourceLang: sourceLang,
		TargetLang: targetLang,
		InputDir:   inputDir,
		OutputDir:  outputDir,
		Units:      make(map[string]*ir.TranslationUnit),
		Resolved:   make(map[string][]depmap.ResolvedImport),
		Records:    make(map[string]*UnitRecord),
		Artifacts:  make(map[string]Artifact),
	}
}

// Clone returns a shallow copy with its own maps, so a failing step never
// half-mutates the state its caller holds.
func (s *PipelineState) Clone() *PipelineState {
	if s == nil {
		return nil
	}
	out := *s
	out.Units = make(map[string]*ir.TranslationUnit, len(s.Units))
	for k, v := range s.Units {
		out.Units[k] = v
	}
	out.Resolved = make(map[string][]depmap.ResolvedImport, len(s.Resolved))
	for k, v := range s.Resolved {
		out.Resolved[k] = v
	}
	out.Records = make(map[string]*UnitRecord, len(s.Records))
	for k, v := range s.Records {
		out.Records[k] = v
	}
	out.Artifacts = make(map[string]Artifact, len(s.Artifacts))
	for k, v := range s.Artifacts {
		out.Artifacts[k] = v
	}
	out.History = append([]StepRecord(nil), s.History...)
	return &out
}

// BuildGraph (re)derives the dependency graph from unit IR. SKIPPED units
// take no part.
func (s *PipelineState) BuildGraph() {
	g := ir.NewDependencyGraph()
	for id, u := range s.Units {
		if u.Status == ir.StatusSkipped {
			continue
		}
		g.AddUnit(id)
	}
	for id, u := range s.Units {
		if u.Status == ir.StatusSkipped || u.IR == nil {
			continue
		}
		for _, dep := range u.IR.IntraDeps {
			g.AddDependency(id, dep)
		}
	}
	s.Graph = g
}

// Hash returns a content hash of the serialized state for quick equality.
func (s *PipelineState) Hash() string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SaveToFile writes a JSON snapshot of the state for resume and inspection.
func (s *PipelineState) SaveToFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal pipeline state")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadStateFromFile restores a saved run. The dependency graph is rebuilt
// from the persisted unit IR.
func LoadStateFromFile(path string) (*PipelineState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read pipeline state %s", path)
	}
	var s PipelineState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "parse pipeline state %s", path)
	}
	if s.Units == nil {
		s.Units = make(map[string]*ir.TranslationUnit)
	}
	if s.Resolved == nil {
		s.Resolved = make(map[string][]depmap.ResolvedImport)
	}
	if s.Records == nil {
		s.Records = make(map[string]*UnitRecord)
	}
	if s.Artifacts == nil {
		s.Artifacts = make(map[string]Artifact)
	}
	s.BuildGraph()
	return &s, nil
}
