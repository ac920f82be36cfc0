// Package replace implements simultaneous multi-pattern literal string
// substitution. All patterns are matched in a single left-to-right scan,
// preferring the longest pattern at every position, so replacements never
// overlap and replaced text is never re-scanned.
package replace

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// Pair is a single literal from/to replacement.
type Pair struct {
	From string
	To   string

	// FilesGlob optionally restricts the pair to target paths matching a
	// doublestar glob. Empty means the pair applies to every source.
	FilesGlob string
}

// Set is an ordered collection of replacement pairs, sorted longest
// from-string first. Among pairs whose from-strings have equal length, the
// pair supplied earliest wins. A Set is immutable after construction and
// safe for concurrent use.
type Set struct {
	pairs []Pair
}

// NewSet builds a Set from an alternating from/to argument list, the way
// pairs arrive on the command line.
func NewSet(oldnew ...string) (*Set, error) {
	if len(oldnew) == 0 {
		return nil, errors.New("replacement strings must be given in from/to pairs")
	}
	if len(oldnew)%2 != 0 {
		return nil, errors.Errorf("odd number of replacement strings: %d", len(oldnew))
	}
	pairs := make([]Pair, 0, len(oldnew)/2)
	for i := 0; i < len(oldnew); i += 2 {
		pairs = append(pairs, Pair{From: oldnew[i], To: oldnew[i+1]})
	}
	return NewSetFromPairs(pairs)
}

// NewSetFromPairs builds a Set from pre-assembled pairs, e.g. a rules file.
func NewSetFromPairs(pairs []Pair) (*Set, error) {
	if len(pairs) == 0 {
		return nil, errors.New("at least one replacement pair is required")
	}
	owned := make([]Pair, len(pairs))
	copy(owned, pairs)

	// Longest from-string first. The sort must be stable so that the
	// earliest-supplied pair stays ahead of later pairs of the same length,
	// which makes the tie-break in Apply deterministic.
	sort.SliceStable(owned, func(i, j int) bool {
		return len(owned[i].From) > len(owned[j].From)
	})

	return &Set{pairs: owned}, nil
}

// Count returns the number of pairs in the set.
func (s *Set) Count() int {
	return len(s.pairs)
}

// Pairs returns the pairs in match-priority order.
func (s *Set) Pairs() []Pair {
	out := make([]Pair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// Apply substitutes every occurrence of the set's from-strings in line.
// At each position every pair is considered and the longest matching
// from-string is consumed; if nothing matches, the single byte at the
// cursor is copied through. Consumed input is never re-examined.
//
// The returned flag reports whether any pair matched, even when the
// replacement text is identical to the matched text.
func (s *Set) Apply(line string) (string, bool) {
	var out strings.Builder
	out.Grow(len(line))

	changed := false
	for pos := 0; pos < len(line); {
		best := -1
		bestLen := 0
		for i, p := range s.pairs {
			// An empty from-string would match at every position without
			// consuming input, so it is never considered.
			if p.From == "" {
				continue
			}
			if len(p.From) > bestLen && strings.HasPrefix(line[pos:], p.From) {
				best = i
				bestLen = len(p.From)
			}
		}
		if best >= 0 {
			out.WriteString(s.pairs[best].To)
			pos += bestLen
			changed = true
			continue
		}
		out.WriteByte(line[pos])
		pos++
	}

	return out.String(), changed
}

// For returns the subset of pairs applicable to the given target path.
// Pairs without a files glob always apply, so a set built purely from
// command-line arguments is returned as is.
func (s *Set) For(path string) *Set {
	scoped := false
	for _, p := range s.pairs {
		if p.FilesGlob != "" {
			scoped = true
			break
		}
	}
	if !scoped {
		return s
	}

	pairs := make([]Pair, 0, len(s.pairs))
	for _, p := range s.pairs {
		if p.FilesGlob == "" {
			pairs = append(pairs, p)
			continue
		}
		// Globs are validated when the rules file is loaded; a match error
		// here just means the pair does not apply.
		matched, err := doublestar.Match(p.FilesGlob, filepath.ToSlash(path))
		if err != nil || !matched {
			continue
		}
		pairs = append(pairs, p)
	}
	// pairs is already in s.pairs order, so the sorted-order invariant holds.
	return &Set{pairs: pairs}
}

// TODO(dr.methodical): 🧪 Add benchmarks for large pair sets; Apply scans
// every pair at every position, an Aho-Corasick index would cut that down

