package transform

import (
	"path"
	"sort"
	"strings"

	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/kerning/engine/groups"
	"github.com/npillmayer/kerning/engine/kerning"
)

// PatternMatcher selects glyphs and pairs by an expression. Transformations
// never parse expressions themselves.
type PatternMatcher interface {
	MatchGlyphs(expr string, names []string) ([]string, error)
	MatchPairs(expr string, pairs []groups.Pair) ([]groups.Pair, error)
}

// Glob is a PatternMatcher using shell file name patterns.
//
// A glyph expression is a space separated list of patterns; a glyph matches
// if any pattern matches. A pair expression is either a single pattern,
// matched against both keys, or two patterns for side1 and side2 separated
// by a comma. Group keys are matched as "@" followed by the group name, so
// "@*" matches all groups.
//
//	"A* , O"      all pairs of glyphs or groups starting with 'A' and glyph O
//	"@public.kern1.*, *"
type Glob struct{}

var _ PatternMatcher = Glob{}

// MatchGlyphs is part of interface PatternMatcher.
func (Glob) MatchGlyphs(expr string, names []string) ([]string, error) {
	patterns := strings.Fields(expr)
	if len(patterns) == 0 {
		return nil, core.Error(core.EINVALID, "empty glyph pattern")
	}
	var matched []string
	for _, n := range names {
		ok, err := matchAny(patterns, n)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

// MatchPairs is part of interface PatternMatcher.
func (Glob) MatchPairs(expr string, pairs []groups.Pair) ([]groups.Pair, error) {
	var left, right []string
	if i := strings.IndexByte(expr, ','); i >= 0 {
		left, right = strings.Fields(expr[:i]), strings.Fields(expr[i+1:])
	} else {
		left = strings.Fields(expr)
		right = left
	}
	if len(left) == 0 || len(right) == 0 {
		return nil, core.Error(core.EINVALID, "invalid pair pattern %q", expr)
	}
	var matched []groups.Pair
	for _, p := range pairs {
		l, err := matchAny(left, p.Left.String())
		if err != nil {
			return nil, err
		}
		r, err := matchAny(right, p.Right.String())
		if err != nil {
			return nil, err
		}
		if l && r {
			matched = append(matched, p)
		}
	}
	groups.SortPairs(matched)
	return matched, nil
}

func matchAny(patterns []string, name string) (bool, error) {
	for _, pat := range patterns {
		ok, err := path.Match(pat, name)
		if err != nil {
			return false, core.WrapError(err, core.EINVALID, "invalid pattern %q", pat)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// SelectPairs returns the stored entries of st matching expr.
func SelectPairs(st *kerning.Store, m PatternMatcher, expr string) ([]groups.Pair, error) {
	return m.MatchPairs(expr, st.Entries())
}

// SelectGlyphs returns the glyphs of a universe matching expr, sorted.
func SelectGlyphs(universe []string, m PatternMatcher, expr string) ([]string, error) {
	names, err := m.MatchGlyphs(expr, universe)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
