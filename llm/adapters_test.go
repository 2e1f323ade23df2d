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

package llm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/translate"
)

type generatorFunc func(ctx context.Context, input string) (string, error)

func (f generatorFunc) Call(ctx context.Context, input string) (string, error) {
	return f(ctx, input)
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"func A() {}", "func A() {}"},
		{"```go\nfunc A() {}\n```", "func A() {}\n"},
		{"```\nfunc A() {}\n```", "func A() {}\n"},
		{"  ```go\nfunc A() {}\n```  ", "func A() {}\n"},
	}
	for _, c := range cases {
		if got := StripCodeFences(c.in); got != c.want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTranslateBackendStripsFences(t *testing.T) {
	backend := TranslateBackend(generatorFunc(func(ctx context.Context, input string) (string, error) {
		return "```go\nfunc FindUser() {}\n```", nil
	}))
	resp, err := backend(context.Background(), &translate.Request{Prompt: "p"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Code != "func FindUser() {}\n" {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestTranslateBackendEmptyAnswerIsBackendError(t *testing.T) {
	backend := TranslateBackend(generatorFunc(func(ctx context.Context, input string) (string, error) {
		return "```go\n\n```", nil
	}))
	resp, err := backend(context.Background(), &translate.Request{Prompt: "p"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" {
		t.Fatal("expected a backend error for empty translation")
	}
}

func TestMappingSuggesterParsesAnswer(t *testing.T) {
	suggest := MappingSuggester(generatorFunc(func(ctx context.Context, input string) (string, error) {
		return `{"target_import": "github.com/google/uuid", "confidence": 0.8, "alternatives": ["crypto/rand"]}`, nil
	}))
	m, err := suggest(context.Background(), "java.util.UUID", ir.Java, ir.Golang)
	if err != nil {
		t.Fatal(err)
	}
	if m.SourceImport != "java.util.UUID" || m.TargetImport != "github.com/google/uuid" {
		t.Fatalf("mapping = %+v", m)
	}
	if m.Confidence != 0.8 || len(m.Alternatives) != 1 {
		t.Fatalf("mapping = %+v", m)
	}
}

func TestMappingSuggesterRejectsGarbage(t *testing.T) {
	suggest := MappingSuggester(generatorFunc(func(ctx context.Context, input string) (string, error) {
		return "I think you should use the uuid package.", nil
	}))
	if _, err := suggest(context.Background(), "java.util.UUID", ir.Java, ir.Golang); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestMappingSuggesterRejectsBadConfidence(t *testing.T) {
	suggest := MappingSuggester(generatorFunc(func(ctx context.Context, input string) (string, error) {
		return `{"target_import": "x", "confidence": 1.5}`, nil
	}))
	if _, err := suggest(context.Background(), "java.util.UUID", ir.Java, ir.Golang); err == nil {
		t.Fatal("expected confidence range error")
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("TEST_MODEL_KEY", "sk-123")
	path := filepath.Join(t.TempDir(), "models.yaml")
	content := "models:\n  - name: main\n    type: openai\n    model_name: gpt-4o\n    api_key: ${TEST_MODEL_KEY}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	m, err := cfg.Model("main")
	if err != nil {
		t.Fatal(err)
	}
	if m.APIKey != "sk-123" {
		t.Fatalf("api key = %q, want expanded value", m.APIKey)
	}
	if m.APIType != ModelTypeOpenAI {
		t.Fatalf("api type = %q", m.APIType)
	}
}
