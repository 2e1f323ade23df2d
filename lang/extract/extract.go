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

package extract

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/log"
)

// ExtractionError is scoped to one unit (or one file when no unit could be
// recovered). It is never fatal to the run; the affected unit is marked
// SKIPPED and excluded from the dependency graph.
type ExtractionError struct {
	File string
	Unit string // empty when the whole file failed
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("extract %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("extract %s unit %s: %v", e.File, e.Unit, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// langSpec describes how to walk one source language's tree-sitter grammar.
type langSpec interface {
	Language() *sitter.Language
	FileExts() []string
	// Units returns raw units found under root, in byte order.
	Units(root *sitter.Node, content []byte) []rawUnit
	// Imports returns external import identifiers declared in the file.
	Imports(root *sitter.Node, content []byte) []string
	// PackageName returns the declared package/module name, if any.
	PackageName(root *sitter.Node, content []byte) string
}

// rawUnit is a language-specific extraction result before IR assembly.
type rawUnit struct {
	Kind     ir.UnitKind
	Name     string
	Exported bool
	Receiver string
	Params   []ir.Param
	Results  []ir.Param
	Doc      string
	Start    uint32
	End      uint32
	Line     int
	Err      error // unit recovered structurally but unusable
}

var specs = map[ir.Language]langSpec{
	ir.Java:   javaSpec{},
	ir.Python: pythonSpec{},
}

// Supported reports whether src can be extracted.
func Supported(src ir.Language) bool {
	_, ok := specs[src]
	return ok
}

// Extractor parses source files into TranslationUnits with populated IR.
// Extraction is deterministic: the same bytes always yield byte-identical IR.
type Extractor struct {
	source ir.Language
	target ir.Language
	spec   langSpec
}

// NewExtractor builds an extractor for a language pair.
func NewExtractor(source, target ir.Language) (*Extractor, error) {
	spec, ok := specs[source]
	if !ok {
		return nil, fmt.Errorf("unsupported source language: %s", source)
	}
	return &Extractor{source: source, target: target, spec: spec}, nil
}

// ExtractDir walks a source tree and extracts all units. The only fatal
// condition of the whole pipeline lives here: an empty or unreadable tree.
// Per-file and per-unit failures are returned as ExtractionErrors alongside
// the units that did parse.
func (e *Extractor) ExtractDir(ctx context.Context, root string) ([]*ir.TranslationUnit, []*ExtractionError, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("source tree unreadable: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("source path %s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// The root itself may be dot-named; only skip hidden subdirs.
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		for _, ext := range e.spec.FileExts() {
			if strings.HasSuffix(path, ext) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("source tree unreadable: %w", err)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("source tree %s contains no %s files", root, e.source)
	}
	sort.Strings(files)

	var units []*ir.TranslationUnit
	var extErrs []*ExtractionError
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return units, extErrs, err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		fileUnits, fileErrs := e.ExtractFile(ctx, rel, path)
		units = append(units, fileUnits...)
		extErrs = append(extErrs, fileErrs...)
	}

	resolveIntraDeps(units)
	return units, extErrs, nil
}

// ExtractFile parses one file. relPath is recorded in unit identities so ids
// are stable regardless of where the tree is checked out.
func (e *Extractor) ExtractFile(ctx context.Context, relPath, absPath string) ([]*ir.TranslationUnit, []*ExtractionError) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, []*ExtractionError{{File: relPath, Err: err}}
	}
	return e.ExtractSource(ctx, relPath, content)
}

// ExtractSource parses source bytes directly.
func (e *Extractor) ExtractSource(ctx context.Context, relPath string, content []byte) ([]*ir.TranslationUnit, []*ExtractionError) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.spec.Language())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, []*ExtractionError{{File: relPath, Err: err}}
	}
	defer tree.Close()
	root := tree.RootNode()

	pkg := e.spec.PackageName(root, content)
	imports := e.spec.Imports(root, content)
	isTestFile := looksLikeTestFile(relPath)

	var units []*ir.TranslationUnit
	var errs []*ExtractionError
	for _, raw := range e.spec.Units(root, content) {
		id := ir.Identity{File: relPath, Package: pkg, Name: raw.Name}
		if raw.Err != nil {
			errs = append(errs, &ExtractionError{File: relPath, Unit: id.Full(), Err: raw.Err})
			units = append(units, &ir.TranslationUnit{
				ID:             id.Full(),
				Kind:           raw.Kind,
				SourceLanguage: e.source,
				TargetLanguage: e.target,
				Identity:       id,
				Status:         ir.StatusSkipped,
			})
			continue
		}
		kind := raw.Kind
		if isTestFile {
			kind = ir.KindTest
		}
		units = append(units, &ir.TranslationUnit{
			ID:             id.Full(),
			Kind:           kind,
			SourceLanguage: e.source,
			TargetLanguage: e.target,
			Identity:       id,
			SourceCode:     string(content[raw.Start:raw.End]),
			Status:         ir.StatusNew,
			IR: &ir.IR{
				Name:     raw.Name,
				Kind:     kind,
				Exported: raw.Exported,
				Receiver: raw.Receiver,
				Params:   raw.Params,
				Results:  raw.Results,
				Imports:  imports,
				Doc:      raw.Doc,
				Line:     raw.Line,
			},
		})
	}
	if root.HasError() && len(units) == 0 {
		errs = append(errs, &ExtractionError{File: relPath, Err: fmt.Errorf("file does not parse")})
	}
	log.Debug("extracted %d units from %s (%d errors)", len(units), relPath, len(errs))
	return units, errs
}

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// resolveIntraDeps fills IR.IntraDeps by scanning each unit's source for
// references to other extracted unit names. SKIPPED units take no part.
// Purely lexical, but deterministic and cheap; false positives only add
// ordering constraints, never wrong code.
func resolveIntraDeps(units []*ir.TranslationUnit) {
	byName := make(map[string][]string)
	for _, u := range units {
		if u.Status == ir.StatusSkipped || u.IR == nil {
			continue
		}
		byName[u.IR.Name] = append(byName[u.IR.Name], u.ID)
	}
	for _, u := range units {
		if u.Status == ir.StatusSkipped || u.IR == nil {
			continue
		}
		seen := map[string]bool{u.ID: true}
		var deps []string
		for _, tok := range identRe.FindAllString(u.SourceCode, -1) {
			if tok == u.IR.Name {
				continue
			}
			for _, depID := range byName[tok] {
				if !seen[depID] {
					seen[depID] = true
					deps = append(deps, depID)
				}
			}
		}
		sort.Strings(deps)
		u.IR.IntraDeps = deps
	}
}

func looksLikeTestFile(path string) bool {
	base := filepath.Base(path)
	lower := strings.ToLower(base)
	return strings.HasPrefix(lower, "test_") ||
		strings.Contains(lower, "_test.") ||
		strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), "Test") ||
		strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), "Tests")
}
