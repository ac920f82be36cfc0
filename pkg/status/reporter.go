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

// Package status prints human-facing progress to the console. It is kept
// separate from the structured zerolog output so that the -s and -v flags
// only gate what a person sees, never the machine-readable logs.
package status

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/walteh/subst/pkg/replace"
)

// 🎯 Reporter writes status lines for a single run. Errors are always
// printed; everything else honors the silent and verbose switches.
type Reporter struct {
	console io.Writer
	silent  bool
	verbose bool
	mu      sync.Mutex
}

// 🏭 NewReporter creates a reporter writing to console, normally stderr so
// that transformed stdout output stays clean.
func NewReporter(console io.Writer, silent, verbose bool) *Reporter {
	return &Reporter{
		console: console,
		silent:  silent,
		verbose: verbose,
	}
}

// 📝 Pairs prints the resolved replacement list in match-priority order.
// Verbose only.
func (r *Reporter) Pairs(set *replace.Set) {
	if !r.verbose || r.silent {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.console, "Replacement pairs:")
	for _, p := range set.Pairs() {
		if p.FilesGlob != "" {
			fmt.Fprintf(r.console, "  '%s' -> '%s' (files: %s)\n", p.From, p.To, p.FilesGlob)
			continue
		}
		fmt.Fprintf(r.console, "  '%s' -> '%s'\n", p.From, p.To)
	}
}

// 🔄 LineChanged echoes a transformed line that a pattern matched in.
// Verbose only.
func (r *Reporter) LineChanged(line string) {
	if !r.verbose || r.silent {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.console, "Replaced in line: %s\n", line)
}

// ✅ FileConverted reports a committed file rewrite. Verbose only.
func (r *Reporter) FileConverted(path string, changedLines int) {
	if !r.verbose || r.silent {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	symbol := color.New(color.FgGreen).Sprint("✓")
	if changedLines == 0 {
		symbol = color.New(color.FgCyan).Sprint("•")
	}
	fmt.Fprintf(r.console, "%s %s converted (%d lines changed)\n", symbol, path, changedLines)
}

// ❌ FileFailed reports a file that could not be processed. Always printed.
func (r *Reporter) FileFailed(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	symbol := color.New(color.FgRed).Sprint("✗")
	fmt.Fprintf(r.console, "%s %s: %v\n", symbol, path, err)
}
