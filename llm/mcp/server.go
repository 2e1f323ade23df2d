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

// Package mcp exposes the translation pipeline over the Model Context
// Protocol, so coding agents can translate single units, query import
// mappings and read run reports without shelling out to the CLI.
package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/codemorph/codemorph/lang/depmap"
	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/pipeline"
	"github.com/codemorph/codemorph/lang/translate"
	"github.com/codemorph/codemorph/version"
)

// ServerOptions wires the capabilities the tools close over.
type ServerOptions struct {
	Backend   translate.BackendFunc
	Store     depmap.Store
	Suggester depmap.Suggester
	// ReportDir is where run reports are looked up by the get_report tool.
	ReportDir string
}

// Server is a stdio MCP server.
type Server struct {
	inner *server.MCPServer
}

// NewServer builds the server with the translate/suggest/report tool set.
func NewServer(opts ServerOptions) *Server {
	s := server.NewMCPServer("codemorph", version.Version)
	for _, t := range buildTools(opts) {
		s.AddTool(t.Tool, t.Handler)
	}
	return &Server{inner: s}
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.inner)
}

type translateReq struct {
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	UnitID         string `json:"unit_id"`
	Code           string `json:"code"`
}

type translateResp struct {
	Code string `json:"code"`
}

type suggestReq struct {
	SourceImport   string `json:"source_import"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

type reportReq struct {
	RunDir string `json:"run_dir"`
}

var schemaTranslate = json.RawMessage(`{
  "type": "object",
  "properties": {
    "source_language": {"type": "string"},
    "target_language": {"type": "string"},
    "unit_id": {"type": "string"},
    "code": {"type": "string"}
  },
  "required": ["source_language", "target_language", "code"]
}`)

var schemaSuggest = json.RawMessage(`{
  "type": "object",
  "properties": {
    "source_import": {"type": "string"},
    "source_language": {"type": "string"},
    "target_language": {"type": "string"}
  },
  "required": ["source_import", "source_language", "target_language"]
}`)

var schemaReport = json.RawMessage(`{
  "type": "object",
  "properties": {
    "run_dir": {"type": "string"}
  }
}`)

func buildTools(opts ServerOptions) []Tool {
	return []Tool{
		NewTool("translate_unit",
			"Translate one unit of source code to the target language.",
			schemaTranslate,
			func(ctx context.Context, req translateReq) (*translateResp, error) {
				return handleTranslate(ctx, opts, req)
			}),
		NewTool("suggest_mapping",
			"Suggest the target-language equivalent of a source import. Results are arbitrated through the shared mapping store.",
			schemaSuggest,
			func(ctx context.Context, req suggestReq) (*depmap.Mapping, error) {
				return handleSuggest(ctx, opts, req)
			}),
		NewTool("get_report",
			"Fetch the translation report of a finished run.",
			schemaReport,
			func(ctx context.Context, req reportReq) (*pipeline.Report, error) {
				return handleReport(opts, req)
			}),
	}
}

func handleTranslate(ctx context.Context, opts ServerOptions, req translateReq) (*translateResp, error) {
	if opts.Backend == nil {
		return nil, errors.New("no translation backend configured")
	}
	source := ir.NewLanguage(req.SourceLanguage)
	target := ir.NewLanguage(req.TargetLanguage)
	if target == ir.Unknown {
		return nil, errors.Errorf("unknown target language %q", req.TargetLanguage)
	}
	unit := &ir.TranslationUnit{
		ID:             req.UnitID,
		Kind:           ir.KindFunction,
		SourceLanguage: source,
		TargetLanguage: target,
		SourceCode:     req.Code,
	}
	tr, err := translate.NewUnitTranslator(translate.Options{
		SourceLanguage: source,
		TargetLanguage: target,
		Backend:        opts.Backend,
	})
	if err != nil {
		return nil, err
	}
	cands, err := tr.Translate(ctx, unit, &translate.UnitContext{}, 1)
	if err != nil {
		return nil, err
	}
	return &translateResp{Code: cands[0].Code}, nil
}

func handleSuggest(ctx context.Context, opts ServerOptions, req suggestReq) (*depmap.Mapping, error) {
	if opts.Store == nil {
		return nil, errors.New("no mapping store configured")
	}
	if m, ok := opts.Store.Lookup(req.SourceImport); ok {
		return &m, nil
	}
	if opts.Suggester == nil {
		return nil, errors.Errorf("no mapping for %q and no suggester configured", req.SourceImport)
	}
	m, err := opts.Suggester.Suggest(ctx, req.SourceImport,
		ir.NewLanguage(req.SourceLanguage), ir.NewLanguage(req.TargetLanguage))
	if err != nil {
		return nil, err
	}
	m.SourceImport = req.SourceImport
	winner, err := opts.Store.InsertIfAbsent(m)
	if err != nil {
		return nil, err
	}
	return &winner, nil
}

func handleReport(opts ServerOptions, req reportReq) (*pipeline.Report, error) {
	dir := req.RunDir
	if dir == "" {
		dir = opts.ReportDir
	}
	if dir == "" {
		return nil, errors.New("no run directory given")
	}
	data, err := os.ReadFile(filepath.Join(dir, "translation_report.json"))
	if err != nil {
		return nil, errors.Wrap(err, "read report")
	}
	var r pipeline.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "parse report")
	}
	return &r, nil
}
