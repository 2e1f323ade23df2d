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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/codemorph/codemorph/lang/ir"
)

const javaSample = `package com.example.app;

import java.util.List;
import java.util.Optional;

/** Repository of users. */
public class UserRepository {
    public Optional<User> findById(long id) {
        return Optional.empty();
    }
    public List<User> findAll() {
        return List.of();
    }
    private void evict() {}
}

class User {
    String name;
}
`

func newJavaExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(ir.Java, ir.Golang)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}
	return e
}

func TestExtractJavaUnits(t *testing.T) {
	e := newJavaExtractor(t)
	units, errs := e.ExtractSource(context.Background(), "src/UserRepository.java", []byte(javaSample))
	if len(errs) != 0 {
		t.Fatalf("unexpected extraction errors: %v", errs)
	}
	if len(units) != 2 {
		t.Fatalf("extracted %d units, want 2", len(units))
	}

	repo := units[0]
	if repo.IR.Name != "UserRepository" || repo.Kind != ir.KindClass {
		t.Errorf("unit 0 = %s/%s, want UserRepository/class", repo.IR.Name, repo.Kind)
	}
	if !repo.IR.Exported {
		t.Error("public class must be exported")
	}
	if repo.Identity.Package != "com.example.app" {
		t.Errorf("package = %q", repo.Identity.Package)
	}
	if len(repo.IR.Imports) != 2 {
		t.Errorf("imports = %v, want 2 entries", repo.IR.Imports)
	}
	// Only public methods contribute to the signature contract.
	if len(repo.IR.Params) != 2 {
		t.Errorf("public methods = %v, want findById and findAll", repo.IR.Params)
	}
	if repo.IR.Doc == "" {
		t.Error("javadoc not preserved")
	}

	user := units[1]
	if user.IR.Exported {
		t.Error("package-private class must not be exported")
	}
}

func TestExtractDeterministic(t *testing.T) {
	e := newJavaExtractor(t)
	first, _ := e.ExtractSource(context.Background(), "A.java", []byte(javaSample))
	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := e.ExtractSource(context.Background(), "A.java", []byte(javaSample))
		b, err := json.Marshal(again)
		if err != nil {
			t.Fatal(err)
		}
		if string(a) != string(b) {
			t.Fatalf("run %d produced different IR", i)
		}
	}
}

func TestExtractPythonUnits(t *testing.T) {
	src := `import json
from typing import Optional

def load_user(path: str) -> Optional[str]:
    """Load a user record."""
    return None

def _helper():
    pass

class Store:
    """Key-value store."""
    pass
`
	e, err := NewExtractor(ir.Python, ir.Golang)
	if err != nil {
		t.Fatal(err)
	}
	units, errs := e.ExtractSource(context.Background(), "store.py", []byte(src))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(units) != 3 {
		t.Fatalf("extracted %d units, want 3", len(units))
	}
	fn := units[0]
	if fn.Kind != ir.KindFunction || fn.IR.Name != "load_user" {
		t.Errorf("unit 0 = %s/%s", fn.IR.Name, fn.Kind)
	}
	if len(fn.IR.Results) != 1 || fn.IR.Results[0].Type != "optional<string>" {
		t.Errorf("results = %v", fn.IR.Results)
	}
	if fn.IR.Doc != "Load a user record." {
		t.Errorf("docstring = %q", fn.IR.Doc)
	}
	if units[1].IR.Exported {
		t.Error("_helper must not be exported")
	}
	if units[2].Kind != ir.KindClass {
		t.Errorf("unit 2 kind = %s", units[2].Kind)
	}
}

func TestExtractDirFatalOnEmptyTree(t *testing.T) {
	e := newJavaExtractor(t)
	dir := t.TempDir()
	if _, _, err := e.ExtractDir(context.Background(), dir); err == nil {
		t.Error("empty source tree must be fatal")
	}
	if _, _, err := e.ExtractDir(context.Background(), filepath.Join(dir, "missing")); err == nil {
		t.Error("unreadable source tree must be fatal")
	}
}

func TestExtractDirIntraDeps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Service.java", `package app;
public class Service {
    Repo repo;
}
`)
	writeFile(t, dir, "Repo.java", `package app;
public class Repo {}
`)
	e := newJavaExtractor(t)
	units, errs, err := e.ExtractDir(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	var service *ir.TranslationUnit
	for _, u := range units {
		if u.IR != nil && u.IR.Name == "Service" {
			service = u
		}
	}
	if service == nil {
		t.Fatal("Service unit not extracted")
	}
	if len(service.IR.IntraDeps) != 1 {
		t.Fatalf("Service deps = %v, want one (Repo)", service.IR.IntraDeps)
	}
}

func TestUnparsableUnitSkippedNotFatal(t *testing.T) {
	e := newJavaExtractor(t)
	src := `package app;
public class Good {}
public class {{{
`
	units, errs := e.ExtractSource(context.Background(), "Bad.java", []byte(src))
	if len(errs) == 0 {
		t.Fatal("expected a unit-scoped extraction error")
	}
	foundGood := false
	for _, u := range units {
		if u.IR != nil && u.IR.Name == "Good" && u.Status == ir.StatusNew {
			foundGood = true
		}
	}
	if !foundGood {
		t.Error("parsable unit must survive a sibling's syntax error")
	}
}

func TestLooksLikeTestFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"src/UserServiceTest.java", true},
		{"tests/test_store.py", true},
		{"pkg/store_test.go", true},
		{"src/UserService.java", false},
		{"contest.py", false},
	}
	for _, tt := range tests {
		if got := looksLikeTestFile(tt.path); got != tt.want {
			t.Errorf("looksLikeTestFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestReadManifestMaven(t *testing.T) {
	dir := t.TempDir()
	pom := `<project>
  <groupId>com.example</groupId>
  <artifactId>billing</artifactId>
  <version>1.2.0</version>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
      <version>33.0-jre</version>
    </dependency>
    <dependency>
      <groupId>org.apache.commons</groupId>
      <artifactId>commons-lang3</artifactId>
      <version>3.14.0</version>
    </dependency>
  </dependencies>
</project>`
	if err := os.WriteFile(filepath.Join(dir, "pom.xml"), []byte(pom), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := ReadManifest(dir, ir.Java)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if m.Name != "billing" {
		t.Errorf("name = %q, want billing", m.Name)
	}
	if m.Coordinates != "com.example:billing:1.2.0" {
		t.Errorf("coordinates = %q", m.Coordinates)
	}
	want := []string{"com.google.guava:guava", "org.apache.commons:commons-lang3"}
	if len(m.Dependencies) != len(want) {
		t.Fatalf("dependencies = %v, want %v", m.Dependencies, want)
	}
	for i, dep := range want {
		if m.Dependencies[i] != dep {
			t.Errorf("dependency %d = %q, want %q", i, m.Dependencies[i], dep)
		}
	}
}

func TestReadManifestAbsentIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	m, err := ReadManifest(dir, ir.Java)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if m.Name != filepath.Base(dir) || len(m.Dependencies) != 0 {
		t.Errorf("manifest = %+v, want bare fallback", m)
	}
}

func TestExtractDirDotNamedRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".src")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "UserRepository.java"), []byte(javaSample), 0644); err != nil {
		t.Fatal(err)
	}
	// A hidden subdirectory is still skipped.
	hidden := filepath.Join(root, ".cache")
	if err := os.MkdirAll(hidden, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(hidden, "Stale.java"), []byte(javaSample), 0644); err != nil {
		t.Fatal(err)
	}

	e := newJavaExtractor(t)
	units, _, err := e.ExtractDir(context.Background(), root)
	if err != nil {
		t.Fatalf("ExtractDir failed on dot-named root: %v", err)
	}
	if len(units) == 0 {
		t.Fatal("no units extracted from dot-named root")
	}
	for _, u := range units {
		if filepath.Dir(u.Identity.File) == ".cache" {
			t.Errorf("unit %s extracted from hidden subdirectory", u.ID)
		}
	}
}
