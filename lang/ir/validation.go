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

package ir

import "fmt"

// ErrorClass classifies a validation diagnostic.
type ErrorClass string

const (
	ClassSyntax  ErrorClass = "syntax"
	ClassType    ErrorClass = "type"
	ClassLink    ErrorClass = "link"
	ClassRuntime ErrorClass = "runtime"
	ClassTimeout ErrorClass = "timeout"
)

// Diagnostic is one structured validator finding. Diagnostics always carry a
// location and a classification; free text alone is never emitted.
type Diagnostic struct {
	File    string     `json:"file"`
	Line    int        `json:"line"`
	Message string     `json:"message"`
	Class   ErrorClass `json:"class"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: [%s] %s", d.File, d.Line, d.Class, d.Message)
}

// ValidationResult is one validator invocation against one unit candidate.
// The per-unit history of these is append-only and ends up in the report.
type ValidationResult struct {
	UnitID        string       `json:"unit_id"`
	AttemptNumber int          `json:"attempt_number"`
	Passed        bool         `json:"passed"`
	Errors        []Diagnostic `json:"errors,omitempty"`
	Warnings      []Diagnostic `json:"warnings,omitempty"`
}

// RepairAttempt records one pass of the repair loop for the report.
type RepairAttempt struct {
	UnitID              string       `json:"unit_id"`
	AttemptNumber       int          `json:"attempt_number"`
	DiagnosticsConsumed []Diagnostic `json:"diagnostics_consumed"`
	ResultingCandidate  int          `json:"resulting_candidate"`
}
