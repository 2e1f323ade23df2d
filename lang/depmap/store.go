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
	"fmt"
	"sort"
	"sync"
)

// Mapping maps a source-language import identifier to its target-language
// equivalent. Confidence is always present, even for best-guess entries.
type Mapping struct {
	SourceImport string   `json:"source_import"`
	TargetImport string   `json:"target_import"`
	Confidence   float64  `json:"confidence"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Valid checks the store invariant confidence ∈ [0,1].
func (m Mapping) Valid() error {
	if m.SourceImport == "" {
		return fmt.Errorf("mapping has empty source_import")
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return fmt.Errorf("mapping %q has confidence %v outside [0,1]", m.SourceImport, m.Confidence)
	}
	return nil
}

// Store is the shared lookup table for import mappings. It is the only piece
// of shared mutable state in a pipeline run, so it is injected, never ambient.
// Entries are never deleted: they are appended or confidence-refined only.
type Store interface {
	// Lookup returns the mapping for a source import, if present.
	Lookup(sourceImport string) (Mapping, bool)
	// InsertIfAbsent inserts m unless an entry for m.SourceImport already
	// exists, and returns the winning entry. Concurrent misses for the same
	// import converge: the second writer adopts the first writer's result.
	InsertIfAbsent(m Mapping) (Mapping, error)
	// RecordOutcome refines confidence after a mapping was exercised by a
	// validation run. Reinforced update: success moves confidence toward 1 by
	// a tenth of the remaining headroom, failure decays it by a tenth.
	RecordOutcome(sourceImport string, success bool)
	// Snapshot returns all entries sorted by source import.
	Snapshot() []Mapping
}

// MemoryStore is the mutex-guarded in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Mapping
}

// NewMemoryStore builds a store preloaded with seed entries. Invalid seed
// entries are rejected so the confidence invariant holds from the start.
func NewMemoryStore(seed []Mapping) (*MemoryStore, error) {
	s := &MemoryStore{entries: make(map[string]Mapping, len(seed))}
	for _, m := range seed {
		if _, err := s.InsertIfAbsent(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Lookup implements Store.
func (s *MemoryStore) Lookup(sourceImport string) (Mapping, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.entries[sourceImport]
	return m, ok
}

// InsertIfAbsent implements Store.
func (s *MemoryStore) InsertIfAbsent(m Mapping) (Mapping, error) {
	if err := m.Valid(); err != nil {
		return Mapping{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[m.SourceImport]; ok {
		return existing, nil
	}
	s.entries[m.SourceImport] = m
	return m, nil
}

// RecordOutcome implements Store.
func (s *MemoryStore) RecordOutcome(sourceImport string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.entries[sourceImport]
	if !ok {
		return
	}
	if success {
		m.Confidence += (1 - m.Confidence) * 0.1
	} else {
		m.Confidence -= m.Confidence * 0.1
	}
	s.entries[sourceImport] = m
}

// Snapshot implements Store.
func (s *MemoryStore) Snapshot() []Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Mapping, 0, len(s.entries))
	for _, m := range s.entries {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceImport < out[j].SourceImport })
	return out
}

// Len returns the entry count.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
