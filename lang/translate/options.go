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

package translate

import (
	"context"
	"fmt"

	"github.com/codemorph/codemorph/lang/depmap"
	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/rules"
)

// Options holds the configuration for unit translation.
type Options struct {
	// SourceLanguage specifies the source language (required).
	SourceLanguage ir.Language
	// TargetLanguage specifies the target language (required).
	TargetLanguage ir.Language
	// Backend is the generation capability (required). It is the only
	// nondeterministic piece; everything around it stays deterministic and
	// mockable.
	Backend BackendFunc
	// Candidates is k in pass@k mode: independent candidates per unit
	// (default 1).
	Candidates int
	// Concurrency bounds the candidate fan-out worker pool (default 4).
	Concurrency int
	// BackendRetries is the transient-failure retry budget of a single
	// backend call. Independent of the repair budget (default 2).
	BackendRetries int
	// MaxChunkBytes splits units larger than this into ordered chunks before
	// generation (default 16 KiB; 0 keeps the default).
	MaxChunkBytes int
	// Rules is the feature-mapping rule set consulted per unit, may be nil.
	Rules *rules.RuleSet
	// Assertions is the assertion-mapping table for test units, may be nil.
	Assertions *rules.AssertionTable
	// Progress, if set, is called after each unit's generation completes.
	Progress func(unitID string, candidates int)
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Candidates < 1 {
		out.Candidates = 1
	}
	if out.Concurrency < 1 {
		out.Concurrency = 4
	}
	if out.BackendRetries == 0 {
		out.BackendRetries = 2
	} else if out.BackendRetries < 0 {
		out.BackendRetries = 0
	}
	if out.MaxChunkBytes <= 0 {
		out.MaxChunkBytes = 16 * 1024
	}
	return out
}

// Validate checks required options.
func (o *Options) Validate() error {
	if o.TargetLanguage == ir.Unknown {
		return fmt.Errorf("TargetLanguage is required")
	}
	if o.Backend == nil {
		return fmt.Errorf("Backend is required")
	}
	return nil
}

// BackendFunc is the narrow synchronous generation capability. Callers own
// the actual LLM plumbing; the pipeline only sees request in, response out.
type BackendFunc func(ctx context.Context, req *Request) (*Response, error)

// Request is one generation call for a unit or a chunk of it.
type Request struct {
	SourceLanguage ir.Language `json:"source_language"`
	TargetLanguage ir.Language `json:"target_language"`
	UnitID         string      `json:"unit_id"`
	Kind           ir.UnitKind `json:"kind"`
	SourceCode     string      `json:"source_code"`
	// ChunkIndex/TotalChunks identify a slice of a large unit; TotalChunks
	// is 1 for unchunked units.
	ChunkIndex  int `json:"chunk_index"`
	TotalChunks int `json:"total_chunks"`
	// Prompt is the fully rendered instruction text.
	Prompt string `json:"prompt"`
}

// Response is the backend's answer. A populated Error means the backend
// answered but could not translate; transport failures use the error return.
type Response struct {
	Code  string `json:"code"`
	Error string `json:"error,omitempty"`
}

// TranslationError is a transient backend failure, retried on its own small
// budget, never charged against the repair budget.
type TranslationError struct {
	UnitID   string
	Attempts int
	Err      error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translate unit %s: backend failed after %d attempts: %v", e.UnitID, e.Attempts, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// DependencyHint carries the already-translated signature of a dependency
// unit. Translators see dependency signatures, never bodies.
type DependencyHint struct {
	SourceID        string `json:"source_id"`
	TargetSymbol    string `json:"target_symbol"`
	TargetSignature string `json:"target_signature"`
}

// UnitContext bundles everything deterministic the translator needs for one
// unit beyond its own IR.
type UnitContext struct {
	Resolved     []depmap.ResolvedImport
	Dependencies []DependencyHint
}
