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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/codemorph/codemorph/lang/assemble"
	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/pipeline"
)

// AssembleStep lays the terminal units out as the target project tree. It
// is the single-threaded barrier after all levels finished.
type AssembleStep struct {
	// ModulePath names the emitted Go module.
	ModulePath string
	// Header and Provenance are the two per-file insertion hooks; their
	// content comes from the caller.
	Header     string
	Provenance string
}

// Name implements pipeline.Step.
func (s *AssembleStep) Name() string { return "assemble" }

// Run implements pipeline.Step.
func (s *AssembleStep) Run(ctx context.Context, state *pipeline.PipelineState) (*pipeline.PipelineState, error) {
	next := state.Clone()
	if next.Graph == nil {
		next.BuildGraph()
	}
	if err := ctx.Err(); err != nil {
		return next, err
	}

	assembler, err := assemble.New(assemble.Options{
		TargetLanguage: next.TargetLang,
		OutputDir:      next.OutputDir,
		ModulePath:     s.ModulePath,
		Header:         s.Header,
		Provenance:     s.Provenance,
	})
	if err != nil {
		return next, err
	}

	code := make(map[string]string, len(next.Records))
	units := make(map[string]*ir.TranslationUnit, len(next.Units))
	for id, u := range next.Units {
		units[id] = u
		if rec := next.Records[id]; rec != nil {
			code[id] = rec.Code
			if code[id] == "" && len(rec.History) > 0 {
				// Failed units keep their last candidate for the
				// commented-out stub.
				code[id] = rec.LastCandidate
			}
		}
	}

	project, err := assembler.Assemble(next.Graph, units, code)
	if err != nil {
		return next, err
	}
	if err := copyScenarioFiles(next.InputDir, next.OutputDir); err != nil {
		return next, err
	}
	next.Project = project
	next.Artifacts["project_tree"] = pipeline.Artifact{Path: next.OutputDir, Kind: "project_tree"}
	return next, nil
}

// copyScenarioFiles carries BDD scenario files (.feature) into the output
// tree unchanged. Scenario text is human-readable specification and is never
// rewritten; only step definitions go through translation.
func copyScenarioFiles(inputDir, outputDir string) error {
	if inputDir == "" {
		return nil
	}
	return filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != inputDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".feature") {
			return nil
		}
		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		dst := filepath.Join(outputDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0644)
	})
}
