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

package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codemorph/codemorph/lang/depmap"
	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/translate"
)

func callTool(t *testing.T, tool Tool, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = tool.Tool.Name
	req.Params.Arguments = args
	res, err := tool.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("expected a single content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text, res.IsError
}

func findTool(t *testing.T, tools []Tool, name string) Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not registered", name)
	return Tool{}
}

func TestNewToolMarshalsAnswer(t *testing.T) {
	type in struct {
		Name string `json:"name"`
	}
	type out struct {
		Greeting string `json:"greeting"`
	}
	tool := NewTool("greet", "greets", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, req in) (*out, error) {
			return &out{Greeting: "hello " + req.Name}, nil
		})

	text, isErr := callTool(t, tool, map[string]any{"name": "world"})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var got out
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("answer is not JSON: %v", err)
	}
	if got.Greeting != "hello world" {
		t.Fatalf("got %q", got.Greeting)
	}
}

func TestNewToolHandlerErrorBecomesToolError(t *testing.T) {
	type in struct{}
	type out struct{}
	tool := NewTool("boom", "fails", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, req in) (*out, error) {
			return nil, context.DeadlineExceeded
		})

	text, isErr := callTool(t, tool, map[string]any{})
	if !isErr {
		t.Fatal("expected IsError on handler failure")
	}
	if !strings.Contains(text, "deadline") {
		t.Fatalf("error text lost: %q", text)
	}
}

func TestTranslateUnitTool(t *testing.T) {
	backend := translate.BackendFunc(func(ctx context.Context, req *translate.Request) (*translate.Response, error) {
		return &translate.Response{Code: "func Hello() {}\n"}, nil
	})
	tools := buildTools(ServerOptions{Backend: backend})
	tool := findTool(t, tools, "translate_unit")

	text, isErr := callTool(t, tool, map[string]any{
		"source_language": "java",
		"target_language": "go",
		"unit_id":         "com.example.Hello#hello",
		"code":            "public void hello() {}",
	})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var resp translateResp
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("answer is not JSON: %v", err)
	}
	if resp.Code != "func Hello() {}\n" {
		t.Fatalf("got %q", resp.Code)
	}
}

func TestSuggestMappingPrefersStore(t *testing.T) {
	store, err := depmap.NewMemoryStore([]depmap.Mapping{{
		SourceImport: "java.util.List",
		TargetImport: "builtin:slice",
		Confidence:   0.9,
	}})
	if err != nil {
		t.Fatal(err)
	}
	suggester := depmap.SuggesterFunc(func(ctx context.Context, imp string, s, tgt ir.Language) (depmap.Mapping, error) {
		t.Fatalf("suggester called for a stored import %s", imp)
		return depmap.Mapping{}, nil
	})
	tools := buildTools(ServerOptions{Store: store, Suggester: suggester})
	tool := findTool(t, tools, "suggest_mapping")

	text, isErr := callTool(t, tool, map[string]any{
		"source_import":   "java.util.List",
		"source_language": "java",
		"target_language": "go",
	})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var m depmap.Mapping
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		t.Fatalf("answer is not JSON: %v", err)
	}
	if m.TargetImport != "builtin:slice" {
		t.Fatalf("got %q", m.TargetImport)
	}
}

func TestSuggestMappingInsertsSuggestion(t *testing.T) {
	store, err := depmap.NewMemoryStore(nil)
	if err != nil {
		t.Fatal(err)
	}
	suggester := depmap.SuggesterFunc(func(ctx context.Context, imp string, s, tgt ir.Language) (depmap.Mapping, error) {
		return depmap.Mapping{TargetImport: "net/http", Confidence: 0.7}, nil
	})
	tools := buildTools(ServerOptions{Store: store, Suggester: suggester})
	tool := findTool(t, tools, "suggest_mapping")

	text, isErr := callTool(t, tool, map[string]any{
		"source_import":   "org.springframework.web",
		"source_language": "java",
		"target_language": "go",
	})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var m depmap.Mapping
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		t.Fatalf("answer is not JSON: %v", err)
	}
	if m.SourceImport != "org.springframework.web" || m.TargetImport != "net/http" {
		t.Fatalf("got %+v", m)
	}
	if got, ok := store.Lookup("org.springframework.web"); !ok || got.TargetImport != "net/http" {
		t.Fatalf("suggestion not recorded in store: %+v ok=%v", got, ok)
	}
}
