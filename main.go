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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/codemorph/codemorph/lang/depmap"
	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/log"
	"github.com/codemorph/codemorph/lang/pipeline"
	"github.com/codemorph/codemorph/lang/pipeline/steps"
	"github.com/codemorph/codemorph/lang/rules"
	"github.com/codemorph/codemorph/llm"
	"github.com/codemorph/codemorph/llm/mcp"
	"github.com/codemorph/codemorph/version"
)

const Usage = `codemorph <Action> [Args] [Flags]
Action:
   translate <src-dir> <out-dir>   translate a source tree to the target language
   report-schema                   print the JSON schema of the translation report
   mcp                             run as a MCP server exposing translate/mapping/report tools
   version                         print the version of codemorph
Language (for -src-lang / -tgt-lang):
   go           for golang codes
   java         for java codes
   python       for python codes
   rust         for rust codes
   ts           for typescript codes
`

func main() {
	flags := flag.NewFlagSet("codemorph", flag.ExitOnError)

	flagHelp := flags.Bool("h", false, "Show help message.")
	flagVerbose := flags.Bool("verbose", false, "Verbose mode.")

	var srcLang, tgtLang string
	flags.StringVar(&srcLang, "src-lang", "java", "source language")
	flags.StringVar(&tgtLang, "tgt-lang", "go", "target language")

	var modelConfigPath, modelName string
	flags.StringVar(&modelConfigPath, "model-config", "", "YAML model configuration path (falls back to API_TYPE/API_KEY/MODEL_NAME/BASE_URL env)")
	flags.StringVar(&modelName, "model", "", "model alias to pick from the config (default: first entry)")

	var seedPath, rulesPath string
	flags.StringVar(&seedPath, "seed", "", "seed mapping file (JSON), watched for edits during the run")
	flags.StringVar(&rulesPath, "rules", "", "feature rules file (JSON)")

	var candidates, concurrency, maxAttempts int
	flags.IntVar(&candidates, "k", 1, "candidates per unit (pass@k)")
	flags.IntVar(&concurrency, "concurrency", 4, "worker pool size per dependency level")
	flags.IntVar(&maxAttempts, "max-attempts", 3, "validation attempts per unit, repairs included")

	var modulePath string
	flags.StringVar(&modulePath, "module-path", "", "module path of the emitted Go project (default: derived from the output dir)")

	var reportDir string
	flags.StringVar(&reportDir, "report-dir", "", "run directory the MCP get_report tool reads by default")

	flags.Usage = func() {
		fmt.Fprint(os.Stderr, Usage)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flags.PrintDefaults()
	}

	if len(os.Args) < 2 {
		flags.Usage()
		os.Exit(1)
	}
	action := strings.ToLower(os.Args[1])

	// Keys and endpoints may live in a local .env; absence is fine.
	_ = godotenv.Load()

	switch action {
	case "version":
		fmt.Fprintf(os.Stdout, "%s\n", version.Version)

	case "report-schema":
		schema, err := pipeline.ReportSchema()
		if err != nil {
			log.Error("Failed to build report schema: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "%s\n", schema)

	case "mcp":
		flags.Parse(os.Args[2:])
		if *flagHelp {
			flags.Usage()
			return
		}
		if *flagVerbose {
			log.SetLevel(log.DebugLevel)
		}

		gen, err := buildGenerator(modelConfigPath, modelName)
		if err != nil {
			log.Error("Failed to configure model: %v\n", err)
			os.Exit(1)
		}
		store, err := loadStore(seedPath)
		if err != nil {
			log.Error("Failed to load seed mappings: %v\n", err)
			os.Exit(1)
		}
		svr := mcp.NewServer(mcp.ServerOptions{
			Backend:   llm.TranslateBackend(gen),
			Store:     store,
			Suggester: llm.MappingSuggester(gen),
			ReportDir: reportDir,
		})
		if err := svr.ServeStdio(); err != nil {
			log.Error("Failed to run MCP server: %v\n", err)
			os.Exit(1)
		}

	case "translate":
		args, rest := splitArgs(os.Args[2:])
		flags.Parse(rest)
		if *flagHelp {
			flags.Usage()
			return
		}
		if *flagVerbose {
			log.SetLevel(log.DebugLevel)
		}
		if len(args) < 1 {
			log.Error("Argument <src-dir> is required\n")
			os.Exit(1)
		}
		inputDir := args[0]
		outputDir := ""
		if len(args) > 1 {
			outputDir = args[1]
		} else {
			outputDir = filepath.Base(strings.TrimRight(inputDir, "/")) + "-" + tgtLang
		}

		source := ir.NewLanguage(srcLang)
		target := ir.NewLanguage(tgtLang)
		if source == ir.Unknown {
			log.Error("Unsupported source language: %s\n", srcLang)
			os.Exit(1)
		}
		if target == ir.Unknown {
			log.Error("Unsupported target language: %s\n", tgtLang)
			os.Exit(1)
		}
		if source == target {
			log.Error("Source and target languages must be different\n")
			os.Exit(1)
		}

		if err := runTranslate(context.Background(), translateConfig{
			Source:          source,
			Target:          target,
			InputDir:        inputDir,
			OutputDir:       outputDir,
			ModelConfigPath: modelConfigPath,
			ModelName:       modelName,
			SeedPath:        seedPath,
			RulesPath:       rulesPath,
			Candidates:      candidates,
			Concurrency:     concurrency,
			MaxAttempts:     maxAttempts,
			ModulePath:      modulePath,
		}); err != nil {
			log.Error("Translation failed: %v\n", err)
			os.Exit(1)
		}

	default:
		flags.Usage()
		os.Exit(1)
	}
}

type translateConfig struct {
	Source, Target      ir.Language
	InputDir, OutputDir string
	ModelConfigPath     string
	ModelName           string
	SeedPath, RulesPath string
	Candidates          int
	Concurrency         int
	MaxAttempts         int
	ModulePath          string
}

func runTranslate(ctx context.Context, cfg translateConfig) error {
	log.Info("Translating %s → %s\n", cfg.Source, cfg.Target)

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}

	gen, err := buildGenerator(cfg.ModelConfigPath, cfg.ModelName)
	if err != nil {
		return err
	}

	store, err := loadStore(cfg.SeedPath)
	if err != nil {
		return err
	}
	if cfg.SeedPath != "" {
		// Edits to the seed file are picked up while the run is going, so a
		// human can hand-correct a mapping mid-run.
		go func() {
			if err := depmap.WatchSeed(ctx, cfg.SeedPath, store); err != nil {
				log.Warn("Seed watcher stopped: %v\n", err)
			}
		}()
	}

	var ruleSet *rules.RuleSet
	if cfg.RulesPath != "" {
		ruleSet, err = rules.Load(cfg.RulesPath)
		if err != nil {
			return err
		}
		log.Info("Loaded %d feature rules\n", ruleSet.Len())
	}

	suggester, err := depmap.NewCachedSuggester(llm.MappingSuggester(gen), 512)
	if err != nil {
		return err
	}

	mod := cfg.ModulePath
	if mod == "" && cfg.Target == ir.Golang {
		mod = "example.com/" + sanitizeModuleName(filepath.Base(cfg.OutputDir))
	}

	state := pipeline.NewPipelineState(cfg.Source, cfg.Target, cfg.InputDir, cfg.OutputDir)
	final, err := pipeline.RunPipeline(ctx, state, []pipeline.Step{
		&steps.ExtractStep{},
		&steps.ResolveStep{Store: store, Suggester: suggester},
		&steps.TranslateStep{
			Backend:     llm.TranslateBackend(gen),
			Rules:       ruleSet,
			Store:       store,
			Candidates:  cfg.Candidates,
			Concurrency: cfg.Concurrency,
			MaxAttempts: cfg.MaxAttempts,
			Progress: func(unitID string, status ir.UnitStatus) {
				log.Info("Unit %s: %s\n", unitID, status)
			},
		},
		&steps.AssembleStep{ModulePath: mod},
		&steps.ReportStep{Store: store},
	})
	if err != nil {
		if final != nil && len(final.History) > 0 {
			last := final.History[len(final.History)-1]
			log.Info("Pipeline: last step=%s, status=%s\n", last.StepName, last.Status)
		}
		return err
	}

	if a, ok := final.Artifacts["report"]; ok {
		log.Info("Report: %s\n", a.Path)
	}
	log.Info("Output: %s\n", cfg.OutputDir)
	return nil
}

// buildGenerator picks a model from the YAML config, or falls back to the
// API_TYPE/API_KEY/MODEL_NAME/BASE_URL environment variables.
func buildGenerator(configPath, alias string) (llm.Generator, error) {
	var mc llm.ModelConfig
	if configPath != "" {
		cfg, err := llm.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if alias != "" {
			mc, err = cfg.Model(alias)
			if err != nil {
				return nil, err
			}
		} else {
			if len(cfg.Models) == 0 {
				return nil, fmt.Errorf("model config %s lists no models", configPath)
			}
			mc = cfg.Models[0]
		}
	} else {
		mc = llm.ModelConfig{
			APIType:   llm.NewModelType(os.Getenv("API_TYPE")),
			APIKey:    os.Getenv("API_KEY"),
			ModelName: os.Getenv("MODEL_NAME"),
			BaseURL:   os.Getenv("BASE_URL"),
		}
		if mc.APIType == llm.ModelTypeUnknown {
			return nil, fmt.Errorf("env API_TYPE is required when no -model-config is given")
		}
		if mc.ModelName == "" {
			return nil, fmt.Errorf("env MODEL_NAME is required when no -model-config is given")
		}
	}
	return llm.NewChatGenerator(mc, "")
}

func loadStore(seedPath string) (depmap.Store, error) {
	var seed []depmap.Mapping
	if seedPath != "" {
		var err error
		seed, err = depmap.LoadSeed(seedPath)
		if err != nil {
			return nil, err
		}
		log.Info("Loaded %d seed mappings\n", len(seed))
	}
	return depmap.NewMemoryStore(seed)
}

// splitArgs separates leading positional arguments from the flags that
// follow them, so `codemorph translate src out -k 3` parses naturally.
func splitArgs(argv []string) (args, rest []string) {
	i := 0
	for i < len(argv) && !strings.HasPrefix(argv[i], "-") {
		i++
	}
	return argv[:i], argv[i:]
}

func sanitizeModuleName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		out = "translated"
	}
	return out
}
