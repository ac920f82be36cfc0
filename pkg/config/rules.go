// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/tidwall/jsonc"
	"github.com/walteh/subst/pkg/replace"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 📄 ruleEntry is one replacement in a rules file, shared by every format.
type ruleEntry struct {
	From  string `json:"from" yaml:"from" hcl:"from"`
	To    string `json:"to" yaml:"to" hcl:"to,optional"`
	Files string `json:"files,omitempty" yaml:"files,omitempty" hcl:"files,optional"`
}

// 📦 rulesFile is the on-disk schema for YAML and JSON rules files.
type rulesFile struct {
	Replacements []ruleEntry `json:"replacements" yaml:"replacements"`
}

// 📦 hclRulesFile is the HCL schema: one replacement block per rule.
//
//	replacement {
//	  from  = "foo"
//	  to    = "bar"
//	  files = "**/*.yaml"
//	}
type hclRulesFile struct {
	Replacements []ruleEntry `hcl:"replacement,block"`
}

// 📥 LoadRules loads replacement pairs from a rules file. The format is
// determined by the file extension:
//   - .yaml or .yml for YAML
//   - .json or .jsonc for JSON (comments and trailing commas allowed)
//   - .hcl for HCL
func LoadRules(ctx context.Context, path string) ([]replace.Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading rules file: %w", err)
	}

	var rules []ruleEntry
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		rules, err = parseYAMLRules(data)
	case ".json", ".jsonc":
		rules, err = parseJSONRules(data)
	case ".hcl":
		rules, err = parseHCLRules(data, path)
	default:
		return nil, errors.Errorf("unsupported rules file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	pairs, err := validateRules(rules)
	if err != nil {
		return nil, errors.Errorf("validating %s: %w", path, err)
	}
	return pairs, nil
}

// parseYAMLRules parses rules from YAML data
func parseYAMLRules(data []byte) ([]ruleEntry, error) {
	var rf rulesFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rf); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return rf.Replacements, nil
}

// parseJSONRules parses rules from JSON or JSONC data
func parseJSONRules(data []byte) ([]ruleEntry, error) {
	var rf rulesFile
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&rf); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return rf.Replacements, nil
}

// parseHCLRules parses rules from HCL data
func parseHCLRules(data []byte, filename string) ([]ruleEntry, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var rf hclRulesFile
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &rf)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return rf.Replacements, nil
}

// ✅ validateRules checks every rule and converts them to pairs. Unlike a
// command-line pair, a rules-file rule with an empty from-string is rejected
// outright instead of being silently skipped at match time.
func validateRules(rules []ruleEntry) ([]replace.Pair, error) {
	if len(rules) == 0 {
		return nil, errors.New("no replacements defined")
	}

	pairs := make([]replace.Pair, 0, len(rules))
	for i, rule := range rules {
		if rule.From == "" {
			return nil, errors.Errorf("rule %d: from is required", i)
		}
		if rule.Files != "" && !doublestar.ValidatePattern(rule.Files) {
			return nil, errors.Errorf("rule %d: invalid files glob %q", i, rule.Files)
		}
		pairs = append(pairs, replace.Pair{
			From:      rule.From,
			To:        rule.To,
			FilesGlob: rule.Files,
		})
	}
	return pairs, nil
}
