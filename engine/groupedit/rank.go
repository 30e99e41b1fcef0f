package groupedit

import (
	"github.com/npillmayer/kerning/core/font"
	"github.com/npillmayer/kerning/engine/groups"
)

// ranker guesses which sub-pair of a conflicting super-pair carries the
// value the user most likely wants. Glyphs rank higher if they (or the glyph
// they are composed from) are kerned elsewhere and if they have a real
// code-point. Composite glyphs rank lower, their base glyphs higher.
type ranker struct {
	ix    *groups.Index
	model font.Model
	usage map[string]int // glyph → number of entries it appears in
}

func (tx *Transaction) newRanker() *ranker {
	rk := &ranker{
		ix:    tx.staged.Groups(),
		model: tx.model,
		usage: make(map[string]int),
	}
	count := func(p groups.Pair) {
		for _, side := range groups.Sides {
			if k := p.Key(side); k.IsGlyph() {
				rk.usage[k.Name()]++
			}
		}
	}
	for p := range tx.held {
		count(p)
	}
	for _, p := range tx.staged.Entries() {
		count(p)
	}
	return rk
}

// choose returns the sub-pair maximizing (leftRank × rightRank, |value|).
// Ties go to the first sub-pair in sort order.
func (rk *ranker) choose(rec *Record) groups.Pair {
	local := make(map[string]int)
	var candidates [2]map[string]bool
	for _, side := range groups.Sides {
		candidates[side] = make(map[string]bool)
	}
	for k, sub := range rec.Pairs {
		for _, side := range groups.Sides {
			if key := k.Key(side); key.IsGlyph() {
				candidates[side][key.Name()] = true
				if !sub.Implied {
					local[key.Name()]++
				}
			}
		}
	}
	var best groups.Pair
	bestRank, bestValue := -1, -1
	for _, k := range rec.SortedPairs() {
		r := rk.keyRank(groups.Side1, k.Left, local, candidates[groups.Side1]) *
			rk.keyRank(groups.Side2, k.Right, local, candidates[groups.Side2])
		v := abs(rec.Pairs[k].Value)
		if r > bestRank || (r == bestRank && v > bestValue) {
			best, bestRank, bestValue = k, r, v
		}
	}
	tracer().Debugf("%s: best sub-pair %s with rank %d", rec.SuperPair, best, bestRank)
	return best
}

func (rk *ranker) keyRank(side groups.Side, k groups.Key, local map[string]int, candidates map[string]bool) int {
	if !k.IsGroup() {
		return rk.glyphRank(k.Name(), local, candidates)
	}
	best := 0
	for _, m := range rk.ix.Members(k.Name()) {
		if r := rk.glyphRank(m, local, candidates); r > best {
			best = r
		}
	}
	return best + 1
}

func (rk *ranker) glyphRank(name string, local map[string]int, candidates map[string]bool) int {
	r := 1
	if rk.kernedElsewhere(name, local, 0) {
		r++
	}
	if rk.model != nil {
		if _, ok := rk.model.UnicodeOf(name); ok {
			r++
		}
		if base := rk.model.DecompositionBaseOf(name); base != "" && base != name {
			r--
		}
		for c := range candidates {
			if c != name && rk.model.DecompositionBaseOf(c) == name {
				r++
				break
			}
		}
	}
	if r < 0 {
		r = 0
	}
	return r
}

// kernedElsewhere is true if a glyph, or the glyph it is composed from,
// appears in entries outside the record being ranked.
func (rk *ranker) kernedElsewhere(name string, local map[string]int, depth int) bool {
	if rk.usage[name]-local[name] > 0 {
		return true
	}
	if rk.model == nil || depth > 8 {
		return false
	}
	base := rk.model.DecompositionBaseOf(name)
	if base == "" || base == name {
		return false
	}
	return rk.kernedElsewhere(base, local, depth+1)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
