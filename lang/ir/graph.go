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

import (
	"fmt"
	"sort"
)

// DependencyGraph is a directed graph over unit ids built from IR intra-project
// references. An edge A -> B means A depends on B, so B must reach a terminal
// state before A's translation starts.
type DependencyGraph struct {
	nodes map[string]bool
	deps  map[string][]string // unit -> its dependencies
}

// CycleBreak records one edge removed to make the graph acyclic. Cycles are
// detected and reported, never silently ignored.
type CycleBreak struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (b CycleBreak) String() string {
	return fmt.Sprintf("broke dependency edge %s -> %s", b.From, b.To)
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]bool),
		deps:  make(map[string][]string),
	}
}

// AddUnit registers a node without edges.
func (g *DependencyGraph) AddUnit(id string) {
	g.nodes[id] = true
}

// AddDependency records that from depends on to. Edges to unknown units are
// kept only if both endpoints were added; callers exclude SKIPPED units by
// never adding them.
func (g *DependencyGraph) AddDependency(from, to string) {
	if from == to {
		return
	}
	g.nodes[from] = true
	g.nodes[to] = true
	for _, d := range g.deps[from] {
		if d == to {
			return
		}
	}
	g.deps[from] = append(g.deps[from], to)
}

// Contains reports whether the unit id is in the graph.
func (g *DependencyGraph) Contains(id string) bool {
	return g.nodes[id]
}

// Dependencies returns a sorted copy of the dependency list of id.
func (g *DependencyGraph) Dependencies(id string) []string {
	out := append([]string(nil), g.deps[id]...)
	sort.Strings(out)
	return out
}

// Size returns the node count.
func (g *DependencyGraph) Size() int { return len(g.nodes) }

// Levels partitions the graph into layers by breadth-first leveling: level 0
// holds units with no intra-project dependency, and every unit's level index
// exceeds the indices of all its dependencies. When a cycle prevents progress,
// a deterministic break edge is chosen (the outgoing edge of the
// lexicographically smallest unit id still in the cycle) and recorded; the
// result is therefore always a complete leveling plus zero or more breaks.
// Output ordering is deterministic: ids inside a level are sorted.
func (g *DependencyGraph) Levels() ([][]string, []CycleBreak) {
	remaining := make(map[string]map[string]bool, len(g.nodes))
	for id := range g.nodes {
		set := make(map[string]bool)
		for _, d := range g.deps[id] {
			if g.nodes[d] {
				set[d] = true
			}
		}
		remaining[id] = set
	}

	var levels [][]string
	var breaks []CycleBreak
	placed := make(map[string]bool, len(g.nodes))

	for len(placed) < len(g.nodes) {
		var level []string
		for id, deps := range remaining {
			if placed[id] {
				continue
			}
			free := true
			for d := range deps {
				if !placed[d] {
					free = false
					break
				}
			}
			if free {
				level = append(level, id)
			}
		}

		if len(level) == 0 {
			// Cycle: every unplaced unit still waits on another unplaced one.
			// Break at the lexicographically smallest id on an actual cycle.
			br, ok := g.pickBreakEdge(remaining, placed)
			if !ok {
				break
			}
			delete(remaining[br.From], br.To)
			breaks = append(breaks, br)
			continue
		}

		sort.Strings(level)
		for _, id := range level {
			placed[id] = true
		}
		levels = append(levels, level)
	}
	return levels, breaks
}

// pickBreakEdge selects the edge to drop when leveling stalls. Candidates are
// restricted to units actually on a cycle in the residual graph: a unit that
// merely waits on a cycle downstream keeps its edges, so its ordering against
// the cycle members survives the break. Among cycle members the
// lexicographically smallest id loses its smallest edge that closes a cycle
// back to it.
func (g *DependencyGraph) pickBreakEdge(remaining map[string]map[string]bool, placed map[string]bool) (CycleBreak, bool) {
	reaches := func(from, target string) bool {
		seen := make(map[string]bool)
		stack := []string{from}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if id == target {
				return true
			}
			if seen[id] || placed[id] {
				continue
			}
			seen[id] = true
			for d := range remaining[id] {
				stack = append(stack, d)
			}
		}
		return false
	}

	var cyclic []string
	for id := range g.nodes {
		if placed[id] {
			continue
		}
		for d := range remaining[id] {
			if !placed[d] && reaches(d, id) {
				cyclic = append(cyclic, id)
				break
			}
		}
	}
	sort.Strings(cyclic)
	for _, id := range cyclic {
		var closing []string
		for d := range remaining[id] {
			if !placed[d] && reaches(d, id) {
				closing = append(closing, d)
			}
		}
		sort.Strings(closing)
		if len(closing) > 0 {
			return CycleBreak{From: id, To: closing[0]}, true
		}
	}
	return CycleBreak{}, false
}

// TopoOrder returns all unit ids in dependency-first order (dependencies come
// before their dependents), flattened from Levels. It is deterministic for a
// fixed node and edge set.
func (g *DependencyGraph) TopoOrder() []string {
	levels, _ := g.Levels()
	var out []string
	for _, level := range levels {
		out = append(out, level...)
	}
	return out
}
