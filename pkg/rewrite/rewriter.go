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

// Package rewrite streams text line by line through a replacement set and
// updates files in place atomically: content is fully written to a sibling
// temporary file before the original is replaced, so a target file is never
// left partially written.
package rewrite

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/subst/pkg/replace"
	"gitlab.com/tozd/go/errors"
)

// Per-file failure kinds. Callers classify with errors.Is; all of them leave
// the original file untouched except ErrOrphanedTemp.
var (
	// ErrOpen marks a source file that could not be opened for reading.
	ErrOpen = errors.New("opening source file")

	// ErrTempCreate marks a temporary file the filesystem refused to create.
	ErrTempCreate = errors.New("creating temporary file")

	// ErrWrite marks a failure while streaming the source into the
	// temporary file, whether the read or the write side broke. The
	// temporary file is removed and the original is untouched.
	ErrWrite = errors.New("streaming into temporary file")

	// ErrCommit marks a failure removing the original before the rename.
	// The temporary file is removed and the original is untouched.
	ErrCommit = errors.New("committing rewritten file")

	// ErrOrphanedTemp marks the rename failing after the original was
	// already removed. The temporary file then holds the only copy of the
	// transformed content and is deliberately left on disk.
	ErrOrphanedTemp = errors.New("original removed but rename failed")
)

// Options configures a Rewriter.
type Options struct {
	// Set is the replacement set applied to every line.
	Set *replace.Set

	// OnLineChanged, when non-nil, is called with each transformed line
	// that at least one pattern matched in. It drives verbose echoing and
	// must not write to the rewriter's own output.
	OnLineChanged func(line string)
}

// Rewriter applies a replacement set to streams and files.
type Rewriter struct {
	set           *replace.Set
	onLineChanged func(line string)
}

// tempWriter wraps the temporary file before streaming starts. Tests swap
// it out to inject write failures mid-file.
var tempWriter = func(f *os.File) io.Writer { return f }

// New creates a Rewriter.
func New(opts Options) (*Rewriter, error) {
	if opts.Set == nil {
		return nil, errors.New("replacement set is required")
	}
	return &Rewriter{
		set:           opts.Set,
		onLineChanged: opts.OnLineChanged,
	}, nil
}

// ProcessStream reads in line by line, applies the replacement set and
// writes each transformed line with its original terminator to out. It
// returns the number of lines in which a pattern matched. Nothing is
// buffered beyond the current line.
func (r *Rewriter) ProcessStream(ctx context.Context, in io.Reader, out io.Writer) (int, error) {
	return r.processStream(ctx, r.set, in, out)
}

func (r *Rewriter) processStream(ctx context.Context, set *replace.Set, in io.Reader, out io.Writer) (int, error) {
	br := bufio.NewReader(in)
	bw := bufio.NewWriter(out)

	changed := 0
	for {
		raw, readErr := br.ReadString('\n')
		if raw != "" {
			line, terminator := splitTerminator(raw)
			replaced, ok := set.Apply(line)
			if ok {
				changed++
				if r.onLineChanged != nil {
					r.onLineChanged(replaced)
				}
			}
			if _, err := bw.WriteString(replaced); err != nil {
				return changed, errors.Errorf("writing output: %w", err)
			}
			if _, err := bw.WriteString(terminator); err != nil {
				return changed, errors.Errorf("writing output: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return changed, errors.Errorf("reading input: %w", readErr)
		}
	}

	if err := bw.Flush(); err != nil {
		return changed, errors.Errorf("flushing output: %w", err)
	}
	return changed, nil
}

// splitTerminator separates a raw line from its own line ending. The final
// line of a stream may have no ending at all, and that absence is preserved.
func splitTerminator(raw string) (line, terminator string) {
	line = raw
	if strings.HasSuffix(line, "\n") {
		line = line[:len(line)-1]
		terminator = "\n"
		if strings.HasSuffix(line, "\r") {
			line = line[:len(line)-1]
			terminator = "\r\n"
		}
	}
	return line, terminator
}

// RewriteFile streams path through the replacement set into a uniquely
// named temporary file in the same directory, then commits by removing the
// original and renaming the temporary file into its place. On any failure
// before the commit the original file is left exactly as it was and the
// temporary file is cleaned up. The rename is the sole commit point.
//
// The returned count is the number of lines a pattern matched in.
func (r *Rewriter) RewriteFile(ctx context.Context, path string) (int, error) {
	logger := zerolog.Ctx(ctx)

	set := r.set.For(path)

	src, err := os.Open(path)
	if err != nil {
		return 0, errors.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".subst-*")
	if err != nil {
		return 0, errors.Errorf("%w: for %s: %w", ErrTempCreate, path, err)
	}
	tmpPath := tmp.Name()
	logger.Debug().Str("file", path).Str("temp", tmpPath).Msg("streaming into temporary file")

	changed, err := r.processStream(ctx, set, src, tempWriter(tmp))
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return changed, errors.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return changed, errors.Errorf("%w: %s: %w", ErrWrite, path, err)
	}

	// CreateTemp files are 0600; carry the source mode across before the
	// temporary file becomes the real one.
	if info, statErr := os.Stat(path); statErr == nil {
		if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
			logger.Debug().Err(err).Str("file", path).Msg("preserving file mode")
		}
	}

	if err := os.Remove(path); err != nil {
		os.Remove(tmpPath)
		return changed, errors.Errorf("%w: removing %s: %w", ErrCommit, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		// The original is already gone, so removing the temporary file here
		// would destroy the only copy of the content. Leave it and tell the
		// caller where it is.
		return changed, errors.Errorf("%w: %s: transformed content preserved at %s: %w", ErrOrphanedTemp, path, tmpPath, err)
	}

	logger.Debug().Str("file", path).Int("lines_changed", changed).Msg("file committed")
	return changed, nil
}
