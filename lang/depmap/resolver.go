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

package depmap

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/log"
)

// LowConfidenceThreshold marks resolutions that need manual review of the
// mapping. Translation still proceeds with the best guess.
const LowConfidenceThreshold = 0.5

// Suggester is the pluggable capability invoked on a store miss. It may be
// backed by an external generator, hence context and error on the boundary.
type Suggester interface {
	Suggest(ctx context.Context, sourceImport string, source, target ir.Language) (Mapping, error)
}

// SuggesterFunc adapts a function to the Suggester interface.
type SuggesterFunc func(ctx context.Context, sourceImport string, source, target ir.Language) (Mapping, error)

func (f SuggesterFunc) Suggest(ctx context.Context, sourceImport string, source, target ir.Language) (Mapping, error) {
	return f(ctx, sourceImport, source, target)
}

// CachedSuggester memoizes suggestions per (import, language pair) so repeated
// misses across units do not re-invoke the backend.
type CachedSuggester struct {
	inner Suggester
	cache *lru.Cache[string, Mapping]
}

// NewCachedSuggester wraps inner with an LRU of the given size.
func NewCachedSuggester(inner Suggester, size int) (*CachedSuggester, error) {
	if size <= 0 {
		size = 512
	}
	cache, err := lru.New[string, Mapping](size)
	if err != nil {
		return nil, err
	}
	return &CachedSuggester{inner: inner, cache: cache}, nil
}

func (c *CachedSuggester) Suggest(ctx context.Context, sourceImport string, source, target ir.Language) (Mapping, error) {
	key := string(source) + "->" + string(target) + ":" + sourceImport
	if m, ok := c.cache.Get(key); ok {
		return m, nil
	}
	m, err := c.inner.Suggest(ctx, sourceImport, source, target)
	if err != nil {
		return Mapping{}, err
	}
	c.cache.Add(key, m)
	return m, nil
}

// ResolutionError is the non-fatal failure of resolving one import. The unit
// is flagged NEEDS_MANUAL_MAPPING and the run continues with a best guess.
type ResolutionError struct {
	SourceImport string
	Err          error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve import %q: %v", e.SourceImport, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ResolvedImport is one import of a unit with its agreed mapping.
type ResolvedImport struct {
	Mapping   Mapping `json:"mapping"`
	Suggested bool    `json:"suggested"` // true when the mapping came from the suggestion capability
}

// Resolver resolves a unit's external imports against the shared store.
type Resolver struct {
	store     Store
	suggester Suggester
}

// NewResolver builds a resolver. suggester may be nil; misses then fall back
// to a zero-confidence identity mapping.
func NewResolver(store Store, suggester Suggester) *Resolver {
	return &Resolver{store: store, suggester: suggester}
}

// ResolveUnit resolves every import in the unit's IR. It never blocks the
// pipeline: suggestion failures degrade to a zero-confidence identity mapping
// and are reported as ResolutionErrors. Any resolution below
// LowConfidenceThreshold flags the unit NEEDS_MANUAL_MAPPING.
func (r *Resolver) ResolveUnit(ctx context.Context, unit *ir.TranslationUnit) ([]ResolvedImport, []*ResolutionError) {
	if unit.IR == nil {
		return nil, nil
	}
	var resolved []ResolvedImport
	var errs []*ResolutionError
	for _, imp := range unit.IR.Imports {
		ri := r.resolveOne(ctx, imp, unit.SourceLanguage, unit.TargetLanguage, &errs)
		if ri.Mapping.Confidence < LowConfidenceThreshold {
			unit.AddFlag(ir.FlagNeedsManualMapping)
		}
		resolved = append(resolved, ri)
	}
	return resolved, errs
}

// ResolveImport resolves a single import identifier outside any unit, used to
// pre-resolve manifest-declared dependencies so their mappings are agreed
// before translation fans out.
func (r *Resolver) ResolveImport(ctx context.Context, imp string, source, target ir.Language) (ResolvedImport, []*ResolutionError) {
	var errs []*ResolutionError
	ri := r.resolveOne(ctx, imp, source, target, &errs)
	return ri, errs
}

func (r *Resolver) resolveOne(ctx context.Context, imp string, source, target ir.Language, errs *[]*ResolutionError) ResolvedImport {
	if m, ok := r.store.Lookup(imp); ok {
		return ResolvedImport{Mapping: m}
	}

	guess := Mapping{SourceImport: imp, TargetImport: imp, Confidence: 0}
	if r.suggester != nil {
		m, err := r.suggester.Suggest(ctx, imp, source, target)
		if err != nil {
			*errs = append(*errs, &ResolutionError{SourceImport: imp, Err: err})
			log.Warn("import suggestion failed for %q, keeping zero-confidence guess: %v", imp, err)
		} else {
			m.SourceImport = imp
			guess = m
		}
	}

	// Single-writer arbitration: whoever inserts first wins, the loser adopts.
	winner, err := r.store.InsertIfAbsent(guess)
	if err != nil {
		*errs = append(*errs, &ResolutionError{SourceImport: imp, Err: err})
		return ResolvedImport{Mapping: guess, Suggested: true}
	}
	return ResolvedImport{Mapping: winner, Suggested: true}
}
