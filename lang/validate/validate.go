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

package validate

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/log"
	"github.com/codemorph/codemorph/lang/translate"
)

// DefaultTimeout bounds one toolchain invocation. A validation that exceeds
// it yields a timeout diagnostic and consumes a repair attempt like any
// other failure.
const DefaultTimeout = 120 * time.Second

// Runner executes one toolchain command in dir and returns its combined
// output. The error reports a non-zero exit; diagnostics live in the output.
type Runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// TimeoutError reports a validation that hit the toolchain deadline.
type TimeoutError struct {
	UnitID  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("validate unit %s: toolchain exceeded %s", e.UnitID, e.Timeout)
}

// Options configures a Validator.
type Options struct {
	// TargetLanguage selects the toolchain command and diagnostic parser.
	TargetLanguage ir.Language
	// WorkDir is the staging directory candidates are checked in. A temp
	// directory is created when empty.
	WorkDir string
	// Timeout bounds one toolchain run (default DefaultTimeout).
	Timeout time.Duration
	// Runner overrides subprocess execution, used by tests.
	Runner Runner
}

// Validator compiles one candidate at a time in a staging directory and
// turns toolchain output into structured diagnostics.
type Validator struct {
	opts   Options
	runner Runner
}

// New creates a validator for the target language.
func New(opts Options) (*Validator, error) {
	if opts.TargetLanguage == ir.Unknown {
		return nil, errors.New("TargetLanguage is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.WorkDir == "" {
		dir, err := os.MkdirTemp("", "codemorph-validate-*")
		if err != nil {
			return nil, errors.Wrap(err, "create staging dir")
		}
		opts.WorkDir = dir
	}
	v := &Validator{opts: opts, runner: opts.Runner}
	if v.runner == nil {
		v.runner = execRunner
	}
	return v, nil
}

// WorkDir returns the staging directory.
func (v *Validator) WorkDir() string { return v.opts.WorkDir }

// Validate checks one candidate: stages it, runs the target toolchain under
// the deadline, parses diagnostics and checks the signature contract against
// the unit's IR. The returned result is complete even on failure; the error
// return is reserved for staging faults, not candidate faults.
func (v *Validator) Validate(ctx context.Context, unit *ir.TranslationUnit, candidate *ir.TranslationCandidate, attempt int) (*ir.ValidationResult, error) {
	result := &ir.ValidationResult{
		UnitID:        unit.ID,
		AttemptNumber: attempt,
	}

	file, err := v.stage(unit, candidate)
	if err != nil {
		return nil, err
	}

	name, args := commandFor(v.opts.TargetLanguage, filepath.Base(file))
	if name == "" {
		// No toolchain for the language: fall back to the signature check
		// alone rather than passing everything blindly.
		result.Warnings = append(result.Warnings, ir.Diagnostic{
			File:    filepath.Base(file),
			Message: fmt.Sprintf("no toolchain for %s, structural check only", v.opts.TargetLanguage),
			Class:   ir.ClassRuntime,
		})
	} else {
		runCtx, cancel := context.WithTimeout(ctx, v.opts.Timeout)
		defer cancel()
		out, runErr := v.runner(runCtx, v.opts.WorkDir, name, args...)
		if runCtx.Err() == context.DeadlineExceeded {
			result.Errors = append(result.Errors, ir.Diagnostic{
				File:    filepath.Base(file),
				Message: (&TimeoutError{UnitID: unit.ID, Timeout: v.opts.Timeout}).Error(),
				Class:   ir.ClassTimeout,
			})
			result.Passed = false
			return result, nil
		}
		if runErr != nil || len(out) > 0 {
			diags := ParseDiagnostics(v.opts.TargetLanguage, string(out))
			if runErr != nil && len(diags) == 0 {
				diags = append(diags, ir.Diagnostic{
					File:    filepath.Base(file),
					Message: strings.TrimSpace(string(out) + " " + runErr.Error()),
					Class:   ir.ClassRuntime,
				})
			}
			for _, d := range diags {
				// A clean exit demotes parsed lines to warnings.
				if runErr == nil || strings.Contains(strings.ToLower(d.Message), "warning") {
					result.Warnings = append(result.Warnings, d)
				} else {
					result.Errors = append(result.Errors, d)
				}
			}
		}
	}

	result.Warnings = append(result.Warnings, checkSignature(unit, candidate.Code, v.opts.TargetLanguage)...)
	result.Passed = len(result.Errors) == 0
	if !result.Passed {
		log.Debug("unit %s attempt %d: %d errors, %d warnings", unit.ID, attempt, len(result.Errors), len(result.Warnings))
	}
	return result, nil
}

// stage writes the candidate into the staging directory under the target
// file name convention and returns the written path.
func (v *Validator) stage(unit *ir.TranslationUnit, candidate *ir.TranslationCandidate) (string, error) {
	base := translate.ConvertFileName(v.opts.TargetLanguage, filepath.Base(unit.Identity.File))
	path := filepath.Join(v.opts.WorkDir, base)
	if err := v.prepareWorkspace(); err != nil {
		return "", err
	}
	code := candidate.Code
	if v.opts.TargetLanguage == ir.Golang && !strings.Contains(code, "package ") {
		code = "package scratch\n\n" + code
	}
	if err := os.WriteFile(path, []byte(code), 0644); err != nil {
		return "", errors.Wrapf(err, "stage candidate for unit %s", unit.ID)
	}
	return path, nil
}

// prepareWorkspace lays down the one-time scaffolding a toolchain needs to
// check a lone file, e.g. a go.mod for the Go compiler.
func (v *Validator) prepareWorkspace() error {
	if v.opts.TargetLanguage != ir.Golang {
		return nil
	}
	modPath := filepath.Join(v.opts.WorkDir, "go.mod")
	if _, err := os.Stat(modPath); err == nil {
		return nil
	}
	content := "module scratch\n\ngo 1.24\n"
	if err := os.WriteFile(modPath, []byte(content), 0644); err != nil {
		return errors.Wrap(err, "write staging go.mod")
	}
	return nil
}

// commandFor returns the toolchain invocation that checks one staged file.
func commandFor(lang ir.Language, file string) (string, []string) {
	switch lang {
	case ir.Golang:
		return "go", []string{"build", "./..."}
	case ir.Python:
		return "python3", []string{"-m", "py_compile", file}
	case ir.Java:
		return "javac", []string{"-proc:none", file}
	case ir.Rust:
		return "rustc", []string{"--emit=metadata", "--edition=2021", file}
	case ir.TypeScript:
		return "tsc", []string{"--noEmit", file}
	default:
		return "", nil
	}
}
