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
	"reflect"
	"testing"
)

func TestLevelsChain(t *testing.T) {
	// A -> B -> C: C must level before B, B before A.
	g := NewDependencyGraph()
	g.AddDependency("A", "B")
	g.AddDependency("B", "C")

	levels, breaks := g.Levels()
	if len(breaks) != 0 {
		t.Fatalf("unexpected cycle breaks: %v", breaks)
	}
	want := [][]string{{"C"}, {"B"}, {"A"}}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("levels = %v, want %v", levels, want)
	}
}

func TestLevelsParallelSiblings(t *testing.T) {
	g := NewDependencyGraph()
	g.AddDependency("A", "C")
	g.AddDependency("B", "C")
	g.AddUnit("D")

	levels, breaks := g.Levels()
	if len(breaks) != 0 {
		t.Fatalf("unexpected cycle breaks: %v", breaks)
	}
	want := [][]string{{"C", "D"}, {"A", "B"}}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("levels = %v, want %v", levels, want)
	}
}

func TestLevelsCycleBreak(t *testing.T) {
	// A <-> B plus a free unit. The break edge must start at the
	// lexicographically smallest id in the cycle.
	g := NewDependencyGraph()
	g.AddDependency("A", "B")
	g.AddDependency("B", "A")
	g.AddUnit("Z")

	levels, breaks := g.Levels()
	if len(breaks) != 1 {
		t.Fatalf("breaks = %v, want exactly one", breaks)
	}
	if breaks[0].From != "A" || breaks[0].To != "B" {
		t.Errorf("break edge = %v, want A -> B", breaks[0])
	}
	total := 0
	for _, l := range levels {
		total += len(l)
	}
	if total != 3 {
		t.Errorf("leveling lost units: %v", levels)
	}
}

func TestLevelsDownstreamOfCycleKeepsOrdering(t *testing.T) {
	// a depends on b, and b <-> c form a cycle. a is not a cycle member, so
	// only an edge inside the cycle may be broken, and a must still level
	// strictly after b.
	g := NewDependencyGraph()
	g.AddDependency("a", "b")
	g.AddDependency("b", "c")
	g.AddDependency("c", "b")

	levels, breaks := g.Levels()
	if len(breaks) != 1 {
		t.Fatalf("breaks = %v, want exactly one", breaks)
	}
	for _, br := range breaks {
		if br.From == "a" || br.To == "a" {
			t.Errorf("break edge %v touches a, which is in no cycle", br)
		}
	}
	pos := make(map[string]int)
	for i, level := range levels {
		for _, id := range level {
			pos[id] = i
		}
	}
	if len(pos) != 3 {
		t.Fatalf("leveling lost units: %v", levels)
	}
	if pos["a"] <= pos["b"] {
		t.Errorf("a leveled at %d, want strictly after b at %d: %v", pos["a"], pos["b"], levels)
	}
}

func TestLevelsDeterministic(t *testing.T) {
	build := func() *DependencyGraph {
		g := NewDependencyGraph()
		g.AddDependency("svc", "model")
		g.AddDependency("svc", "util")
		g.AddDependency("ctrl", "svc")
		g.AddDependency("util", "model")
		return g
	}
	first, _ := build().Levels()
	for i := 0; i < 20; i++ {
		got, _ := build().Levels()
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: levels = %v, want %v", i, got, first)
		}
	}
}

func TestTopoOrderDependenciesFirst(t *testing.T) {
	g := NewDependencyGraph()
	g.AddDependency("A", "B")
	g.AddDependency("B", "C")
	g.AddDependency("A", "C")

	order := g.TopoOrder()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	if pos["C"] > pos["B"] || pos["B"] > pos["A"] {
		t.Errorf("order %v violates dependency-first property", order)
	}
}
