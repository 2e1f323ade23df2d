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
	"sort"

	"github.com/codemorph/codemorph/lang/depmap"
	"github.com/codemorph/codemorph/lang/extract"
	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/log"
	"github.com/codemorph/codemorph/lang/pipeline"
)

// ResolveStep resolves every unit's imports against the shared mapping
// store. It never fails the run: suggestion failures degrade to a
// zero-confidence guess and flag the unit for manual mapping.
type ResolveStep struct {
	Store     depmap.Store
	Suggester depmap.Suggester
}

// Name implements pipeline.Step.
func (s *ResolveStep) Name() string { return "resolve" }

// Run implements pipeline.Step.
func (s *ResolveStep) Run(ctx context.Context, state *pipeline.PipelineState) (*pipeline.PipelineState, error) {
	next := state.Clone()
	resolver := depmap.NewResolver(s.Store, s.Suggester)

	s.resolveManifest(ctx, resolver, next)

	ids := make([]string, 0, len(next.Units))
	for id := range next.Units {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return next, err
		}
		u := next.Units[id]
		if u.Status == ir.StatusSkipped {
			continue
		}
		resolved, errs := resolver.ResolveUnit(ctx, u)
		for _, e := range errs {
			log.Warn("resolve unit %s: %v", id, e)
		}
		if len(resolved) > 0 {
			next.Resolved[id] = resolved
		}
	}
	return next, nil
}

// resolveManifest reads the source tree's build manifest and pre-resolves
// every declared dependency through the store, so the agreed mappings exist
// before per-unit resolution and translation start. Manifest problems never
// fail the run.
func (s *ResolveStep) resolveManifest(ctx context.Context, resolver *depmap.Resolver, state *pipeline.PipelineState) {
	if state.InputDir == "" {
		return
	}
	manifest, err := extract.ReadManifest(state.InputDir, state.SourceLang)
	if err != nil {
		log.Warn("resolve: manifest unreadable, continuing with in-file imports only: %v", err)
		return
	}
	if len(manifest.Dependencies) == 0 {
		return
	}
	log.Info("resolve: pre-resolving %d manifest dependencies of %s", len(manifest.Dependencies), manifest.Name)
	for _, dep := range manifest.Dependencies {
		if ctx.Err() != nil {
			return
		}
		_, errs := resolver.ResolveImport(ctx, dep, state.SourceLang, state.TargetLang)
		for _, e := range errs {
			log.Warn("resolve manifest dependency: %v", e)
		}
	}
}
