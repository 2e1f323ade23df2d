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

// Package assemble lays out terminal units as a target-language project
// tree. Assembly is deterministic and idempotent: the same unit set and
// topology always produce a byte-identical tree in the same order.
package assemble

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/mod/module"
	"golang.org/x/tools/imports"

	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/log"
	"github.com/codemorph/codemorph/lang/translate"
)

// AssemblyError reports a dependency cycle. Non-fatal: the break edge is
// recorded, both endpoints are flagged and emission proceeds.
type AssemblyError struct {
	Break ir.CycleBreak
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("dependency cycle broken at edge %s -> %s", e.Break.From, e.Break.To)
}

// Options configures an Assembler.
type Options struct {
	TargetLanguage ir.Language
	// OutputDir is the root of the emitted project tree.
	OutputDir string
	// ModulePath names the emitted Go module; ignored for other targets.
	ModulePath string
	// Header is prepended verbatim to every emitted file, exactly once.
	// Content is the caller's business.
	Header string
	// Provenance is appended as a comment near the top of every emitted
	// file, exactly once.
	Provenance string
}

// EmittedFile is one file of the output tree, in emit order.
type EmittedFile struct {
	Path    string   `json:"path"`
	UnitIDs []string `json:"unit_ids"`
}

// Project is the assembly result consumed by the report writer.
type Project struct {
	Files []EmittedFile   `json:"files"`
	Order []string        `json:"order"`
	Cycle []ir.CycleBreak `json:"cycle_breaks,omitempty"`
}

// Assembler writes terminal units into a conventional project layout for
// the target language.
type Assembler struct {
	opts Options
}

// New creates an assembler. For a Go target the module path must be a
// valid module path.
func New(opts Options) (*Assembler, error) {
	if opts.OutputDir == "" {
		return nil, errors.New("OutputDir is required")
	}
	if opts.TargetLanguage == ir.Golang {
		if opts.ModulePath == "" {
			return nil, errors.New("ModulePath is required for a Go target")
		}
		if err := module.CheckPath(opts.ModulePath); err != nil {
			return nil, errors.Wrapf(err, "invalid module path %q", opts.ModulePath)
		}
	}
	return &Assembler{opts: opts}, nil
}

// Assemble lays out every PASS and FAILED_TERMINAL unit. SKIPPED units are
// excluded. Non-terminal units are a caller bug and rejected outright.
// Cycles found in the graph are broken deterministically; both endpoints of
// each break edge get flagged and the run continues.
func (a *Assembler) Assemble(graph *ir.DependencyGraph, units map[string]*ir.TranslationUnit, code map[string]string) (*Project, error) {
	for id, u := range units {
		if !u.Status.Terminal() {
			return nil, errors.Errorf("assemble: unit %s is not terminal (status %s)", id, u.Status)
		}
	}

	levels, breaks := graph.Levels()
	for _, b := range breaks {
		log.Warn("%v", &AssemblyError{Break: b})
		if u := units[b.From]; u != nil {
			u.AddFlag(ir.FlagNeedsManualReview)
		}
		if u := units[b.To]; u != nil {
			u.AddFlag(ir.FlagNeedsManualReview)
		}
	}

	project := &Project{Cycle: breaks}
	byFile := map[string][]string{}
	for _, level := range levels {
		for _, id := range level {
			u, ok := units[id]
			if !ok || u.Status == ir.StatusSkipped {
				continue
			}
			path := a.targetPath(u)
			byFile[path] = append(byFile[path], id)
			project.Order = append(project.Order, id)
		}
	}

	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		content := a.renderFile(path, byFile[path], units, code)
		full := filepath.Join(a.opts.OutputDir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return nil, errors.Wrapf(err, "assemble: create %s", filepath.Dir(full))
		}
		if err := writeIfChanged(full, content); err != nil {
			return nil, errors.Wrapf(err, "assemble: write %s", path)
		}
		project.Files = append(project.Files, EmittedFile{Path: path, UnitIDs: byFile[path]})
	}

	if a.opts.TargetLanguage == ir.Golang {
		if err := a.writeGoMod(); err != nil {
			return nil, err
		}
	}
	return project, nil
}

// targetPath maps a unit to its output file under the target convention,
// keeping the source directory layout.
func (a *Assembler) targetPath(u *ir.TranslationUnit) string {
	dir := filepath.Dir(u.Identity.File)
	base := translate.ConvertFileName(a.opts.TargetLanguage, filepath.Base(u.Identity.File))
	if dir == "." {
		return base
	}
	if a.opts.TargetLanguage == ir.Golang {
		dir = strings.ToLower(dir)
	}
	return filepath.Join(dir, base)
}

// renderFile concatenates the file's units in dependency order under the
// caller's header and provenance hooks.
func (a *Assembler) renderFile(path string, unitIDs []string, units map[string]*ir.TranslationUnit, code map[string]string) []byte {
	var sb strings.Builder
	if a.opts.Header != "" {
		sb.WriteString(a.opts.Header)
		if !strings.HasSuffix(a.opts.Header, "\n") {
			sb.WriteString("\n")
		}
	}
	if a.opts.TargetLanguage == ir.Golang {
		sb.WriteString("package " + goPackageName(path) + "\n")
	}
	if a.opts.Provenance != "" {
		sb.WriteString("\n" + comment(a.opts.TargetLanguage, a.opts.Provenance) + "\n")
	}
	for _, id := range unitIDs {
		u := units[id]
		body := code[id]
		sb.WriteString("\n")
		if u.Status == ir.StatusFailedTerminal {
			sb.WriteString(comment(a.opts.TargetLanguage, "translation failed for "+id+", manual port required") + "\n")
			if body != "" {
				sb.WriteString(commentBlock(a.opts.TargetLanguage, body))
			}
			continue
		}
		sb.WriteString(stripPackageClause(a.opts.TargetLanguage, body))
		if !strings.HasSuffix(body, "\n") {
			sb.WriteString("\n")
		}
	}

	out := []byte(sb.String())
	if a.opts.TargetLanguage == ir.Golang {
		formatted, err := imports.Process(path, out, nil)
		if err != nil {
			log.Warn("format %s: %v", path, err)
			return out
		}
		return formatted
	}
	return out
}

func (a *Assembler) writeGoMod() error {
	path := filepath.Join(a.opts.OutputDir, "go.mod")
	content := "module " + a.opts.ModulePath + "\n\ngo 1.24\n"
	return writeIfChanged(path, []byte(content))
}

// writeIfChanged leaves an already-identical file untouched so repeated
// assembly never rewrites bytes.
func writeIfChanged(path string, content []byte) error {
	if prev, err := os.ReadFile(path); err == nil && string(prev) == string(content) {
		return nil
	}
	return os.WriteFile(path, content, 0644)
}

// goPackageName derives the package clause from the output path.
func goPackageName(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == "/" {
		dir = strings.TrimSuffix(filepath.Base(path), ".go")
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(dir) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 || sb.String()[0] >= '0' && sb.String()[0] <= '9' {
		return "translated"
	}
	return sb.String()
}

// stripPackageClause drops a unit-level package line so concatenated Go
// units share the file's single clause.
func stripPackageClause(lang ir.Language, body string) string {
	if lang != ir.Golang {
		return body
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "//") {
			continue
		}
		if strings.HasPrefix(t, "package ") {
			return strings.Join(append(lines[:i], lines[i+1:]...), "\n")
		}
		break
	}
	return body
}

func comment(lang ir.Language, text string) string {
	prefix := "//"
	if lang == ir.Python {
		prefix = "#"
	}
	var sb strings.Builder
	for i, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(prefix + " " + line)
	}
	return sb.String()
}

func commentBlock(lang ir.Language, body string) string {
	return comment(lang, body) + "\n"
}
