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

package rules

import (
	"encoding/json"
	"os"
	"regexp"

	"github.com/Knetic/govaluate"
	"github.com/pkg/errors"
)

// Rule maps a source-language construct to a target-language transformation.
// Pattern is a regular expression matched against unit source code.
// Validation, when present, is a govaluate expression evaluated against the
// translated output with the variables `output` and `source`; it lets a rule
// assert that its transformation actually appeared (e.g. `output =~ 'range '`).
type Rule struct {
	ID          string `json:"id"`
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
	Validation  string `json:"validation,omitempty"`

	re   *regexp.Regexp
	expr *govaluate.EvaluableExpression
}

// RuleSet is a compiled feature-mapping rule file.
type RuleSet struct {
	rules []*Rule
}

// Load reads and compiles a rule file: a JSON array of
// {id, pattern, description, validation}.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read rule file %s", path)
	}
	var raw []*Rule
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parse rule file %s", path)
	}
	return Compile(raw)
}

// Compile validates and compiles raw rules into a RuleSet.
func Compile(raw []*Rule) (*RuleSet, error) {
	rs := &RuleSet{}
	for _, r := range raw {
		if r.ID == "" || r.Pattern == "" {
			return nil, errors.Errorf("rule missing id or pattern: %+v", r)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %s: bad pattern", r.ID)
		}
		r.re = re
		if r.Validation != "" {
			expr, err := govaluate.NewEvaluableExpression(r.Validation)
			if err != nil {
				return nil, errors.Wrapf(err, "rule %s: bad validation expression", r.ID)
			}
			r.expr = expr
		}
		rs.rules = append(rs.rules, r)
	}
	return rs, nil
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Match returns the rules whose pattern occurs in the source code, in file
// order, so prompts list applicable transformations deterministically.
func (rs *RuleSet) Match(sourceCode string) []*Rule {
	if rs == nil {
		return nil
	}
	var out []*Rule
	for _, r := range rs.rules {
		if r.re.MatchString(sourceCode) {
			out = append(out, r)
		}
	}
	return out
}

// CheckCandidate evaluates the validation expressions of the matched rules
// against the translated output. It returns the ids of rules whose validation
// failed; rules without an expression always pass.
func (rs *RuleSet) CheckCandidate(matched []*Rule, source, output string) ([]string, error) {
	var failed []string
	for _, r := range matched {
		if r.expr == nil {
			continue
		}
		res, err := r.expr.Evaluate(map[string]interface{}{
			"source": source,
			"output": output,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "rule %s: evaluate validation", r.ID)
		}
		ok, isBool := res.(bool)
		if !isBool {
			return nil, errors.Errorf("rule %s: validation did not yield a boolean", r.ID)
		}
		if !ok {
			failed = append(failed, r.ID)
		}
	}
	return failed, nil
}
