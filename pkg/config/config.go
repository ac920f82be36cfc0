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

// Package config resolves a run's configuration from positional arguments
// and an optional rules file. Positional arguments are from/to pairs,
// optionally followed by "--" and a list of target files; rules files add
// pairs that can be scoped to file globs.
package config

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/subst/pkg/replace"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Config is a fully resolved run configuration.
type Config struct {
	// Pairs holds every replacement pair, rules-file pairs first, in the
	// order they were supplied.
	Pairs []replace.Pair

	// Files are the targets to rewrite in argument order. Empty means
	// stdin to stdout.
	Files []string

	// Silent suppresses non-error status messages.
	Silent bool

	// Verbose prints the resolved pattern list and echoes changes.
	Verbose bool
}

// 🚩 Flags carries the raw flag values from the CLI layer.
type Flags struct {
	Silent    bool
	Verbose   bool
	RulesFile string
}

// 🎯 Resolve builds a Config from the positional arguments. dashAt is the
// number of arguments that appeared before a literal "--" separator, or -1
// when there was none (cobra's ArgsLenAtDash convention). Arguments before
// the separator are from/to pairs; arguments after it are target files.
//
// When a rules file is given and there is no separator, all positional
// arguments are treated as target files; combining CLI pairs with a rules
// file requires the explicit "--".
func Resolve(ctx context.Context, args []string, dashAt int, flags Flags) (*Config, error) {
	logger := zerolog.Ctx(ctx)

	cfg := &Config{
		Silent:  flags.Silent,
		Verbose: flags.Verbose,
	}

	pairArgs := args
	if dashAt >= 0 {
		pairArgs = args[:dashAt]
		cfg.Files = args[dashAt:]
	} else if flags.RulesFile != "" {
		pairArgs = nil
		cfg.Files = args
	}

	if flags.RulesFile != "" {
		pairs, err := LoadRules(ctx, flags.RulesFile)
		if err != nil {
			return nil, errors.Errorf("loading rules file: %w", err)
		}
		logger.Debug().Str("file", flags.RulesFile).Int("pairs", len(pairs)).Msg("loaded rules file")
		cfg.Pairs = pairs
	}

	if len(pairArgs)%2 != 0 {
		return nil, errors.New("replacement strings must be given in from/to pairs")
	}
	for i := 0; i < len(pairArgs); i += 2 {
		cfg.Pairs = append(cfg.Pairs, replace.Pair{From: pairArgs[i], To: pairArgs[i+1]})
	}

	if len(cfg.Pairs) == 0 {
		return nil, errors.New("replacement strings must be given in from/to pairs")
	}

	return cfg, nil
}
