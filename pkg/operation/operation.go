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

// Package operation drives a whole substitution run: stdin to stdout when
// no files are given, otherwise each file in argument order, one commit or
// rollback fully finished before the next file starts.
package operation

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/walteh/subst/pkg/replace"
	"github.com/walteh/subst/pkg/rewrite"
	"github.com/walteh/subst/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options contains everything a run needs.
type Options struct {
	// Set is the resolved replacement set.
	Set *replace.Set

	// Files are the targets to rewrite in place, in order. Empty means
	// read Stdin and write Stdout.
	Files []string

	// Reporter prints human-facing status.
	Reporter *status.Reporter

	// Stdin and Stdout are the stream-mode endpoints.
	Stdin  io.Reader
	Stdout io.Writer
}

// 🎮 Operator runs one substitution pass over its configured sources.
type Operator struct {
	set      *replace.Set
	files    []string
	reporter *status.Reporter
	stdin    io.Reader
	stdout   io.Writer
}

// 🏭 New creates an operator with the given options.
func New(opts Options) (*Operator, error) {
	if opts.Set == nil {
		return nil, errors.New("replacement set is required")
	}
	if opts.Reporter == nil {
		return nil, errors.New("reporter is required")
	}
	if len(opts.Files) == 0 && (opts.Stdin == nil || opts.Stdout == nil) {
		return nil, errors.New("stdin and stdout are required when no files are given")
	}
	return &Operator{
		set:      opts.Set,
		files:    opts.Files,
		reporter: opts.Reporter,
		stdin:    opts.Stdin,
		stdout:   opts.Stdout,
	}, nil
}

// 🏃 Run executes the substitution pass. The returned flag reports whether
// any file failed; those failures were already reported and the remaining
// files were still attempted. A non-nil error is fatal to the whole run,
// which only happens on the stdout path where there is no next file to move
// on to.
func (op *Operator) Run(ctx context.Context) (bool, error) {
	logger := zerolog.Ctx(ctx)

	op.reporter.Pairs(op.set)

	rw, err := rewrite.New(rewrite.Options{
		Set:           op.set,
		OnLineChanged: op.reporter.LineChanged,
	})
	if err != nil {
		return false, errors.Errorf("creating rewriter: %w", err)
	}

	if len(op.files) == 0 {
		logger.Debug().Msg("processing standard input")
		if _, err := rw.ProcessStream(ctx, op.stdin, op.stdout); err != nil {
			return true, errors.Errorf("writing to standard output: %w", err)
		}
		return false, nil
	}

	failed := false
	for _, file := range op.files {
		changed, err := rw.RewriteFile(ctx, file)
		if err != nil {
			failed = true
			logger.Error().Err(err).Str("file", file).Msg("processing file")
			op.reporter.FileFailed(file, err)
			if errors.Is(err, rewrite.ErrOrphanedTemp) {
				// Worth shouting about: the transformed content only exists
				// under the temporary name now.
				logger.Warn().Str("file", file).Msg("original file was removed; recover content from the reported temporary file")
			}
			continue
		}
		logger.Debug().Str("file", file).Int("lines_changed", changed).Msg("file converted")
		op.reporter.FileConverted(file, changed)
	}

	return failed, nil
}
