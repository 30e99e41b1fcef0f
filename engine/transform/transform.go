/*
Package transform implements bulk operations on kerning.

All operators are pure: they take a store and a set of stored entry keys
(usually selected with a PatternMatcher) and compute a Result, without
modifying the store. Result.Apply writes the result.

	res := transform.Scale(st, pairs, 0.9)
	res.Apply(st)

Values are rounded half up, as is common in font tools: 2.5 → 3 and
-2.5 → -2.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package transform

import (
	"math"
	"sort"

	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/kerning/engine/groups"
	"github.com/npillmayer/kerning/engine/kerning"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'kern.transform'.
func tracer() tracing.Trace {
	return tracing.Select("kern.transform")
}

// Edit is the change of a single entry.
type Edit struct {
	Value  int
	Remove bool
}

// Result is the outcome of a transformation.
type Result struct {
	Edits  map[groups.Pair]Edit
	Report *CopyReport // only set by Copy
}

func newResult() *Result {
	return &Result{Edits: make(map[groups.Pair]Edit)}
}

// Len returns the number of edits.
func (r *Result) Len() int {
	return len(r.Edits)
}

// Pairs returns the keys of all edits, sorted.
func (r *Result) Pairs() []groups.Pair {
	keys := make([]groups.Pair, 0, len(r.Edits))
	for p := range r.Edits {
		keys = append(keys, p)
	}
	groups.SortPairs(keys)
	return keys
}

// Apply writes a result to a store. Entries are written from the most
// general level down, so that zero values are kept exactly where they
// override a more general entry.
func (r *Result) Apply(st *kerning.Store) int {
	keys := r.Pairs()
	byLevel := func(level int) {
		for _, p := range keys {
			if p.Level() != level {
				continue
			}
			e := r.Edits[p]
			if e.Remove {
				st.DeleteEntry(p)
			} else {
				st.WriteEntry(p, e.Value)
			}
		}
	}
	for level := 2; level >= 0; level-- {
		byLevel(level)
	}
	tracer().Debugf("applied %d edits", len(keys))
	return len(keys)
}

func (r *Result) set(p groups.Pair, v int) {
	r.Edits[p] = Edit{Value: v}
}

func (r *Result) remove(p groups.Pair) {
	r.Edits[p] = Edit{Remove: true}
}

// RoundHalfUp rounds to the nearest integer, with halves rounded up.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// stored calls f for every key in pairs which is stored in st.
func stored(st *kerning.Store, pairs []groups.Pair, f func(p groups.Pair, v int)) {
	seen := make(map[groups.Pair]bool, len(pairs))
	for _, p := range pairs {
		if seen[p] {
			continue
		}
		seen[p] = true
		if v, ok := st.Entry(p); ok {
			f(p, v)
		}
	}
}

// Scale multiplies values by factor. Only changed entries are part of the
// result.
func Scale(st *kerning.Store, pairs []groups.Pair, factor float64) *Result {
	res := newResult()
	stored(st, pairs, func(p groups.Pair, v int) {
		if w := RoundHalfUp(float64(v) * factor); w != v {
			res.set(p, w)
		}
	})
	tracer().Debugf("scale by %g: %d changes", factor, res.Len())
	return res
}

// Shift adds delta to values.
func Shift(st *kerning.Store, pairs []groups.Pair, delta int) *Result {
	res := newResult()
	if delta == 0 {
		return res
	}
	stored(st, pairs, func(p groups.Pair, v int) {
		res.set(p, v+delta)
	})
	tracer().Debugf("shift by %d: %d changes", delta, res.Len())
	return res
}

// Round rounds values to multiples of increment. With removeRedundant set,
// entries which are redundant after rounding are removed.
func Round(st *kerning.Store, pairs []groups.Pair, increment int, removeRedundant bool) (*Result, error) {
	if increment <= 0 {
		return nil, core.Error(core.EINVALID, "rounding increment must be positive, is %d", increment)
	}
	res := newResult()
	stored(st, pairs, func(p groups.Pair, v int) {
		if w := RoundHalfUp(float64(v)/float64(increment)) * increment; w != v {
			res.set(p, w)
		}
	})
	if removeRedundant {
		res.pruneRedundant(st, pairs)
	}
	tracer().Debugf("round to %d: %d changes", increment, res.Len())
	return res, nil
}

// Threshold removes small values. An entry with |value| ≤ limit is removed
// if it has no more general entry. An exception is removed only if its
// difference to every more general entry is ≤ limit as well, otherwise it
// is left untouched, as removing it would change the effective value of its
// glyph pairs beyond the limit.
//
// More general entries are decided first and exceptions are checked against
// what is left of them, so a second run finds nothing more to remove.
func Threshold(st *kerning.Store, pairs []groups.Pair, limit int, removeRedundant bool) (*Result, error) {
	if limit < 0 {
		return nil, core.Error(core.EINVALID, "threshold must not be negative, is %d", limit)
	}
	res := newResult()
	trial := st.Clone()
	var candidates []groups.Pair
	stored(st, pairs, func(p groups.Pair, _ int) {
		candidates = append(candidates, p)
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Level() > candidates[j].Level()
	})
	for _, p := range candidates {
		v, _ := trial.Entry(p)
		if abs(v) > limit || !closeToHigher(trial, p, v, limit) {
			continue
		}
		trial.DeleteEntry(p)
		res.remove(p)
	}
	if removeRedundant {
		res.pruneRedundant(st, pairs)
	}
	tracer().Debugf("threshold %d: %d changes", limit, res.Len())
	return res, nil
}

func closeToHigher(st *kerning.Store, p groups.Pair, v, limit int) bool {
	for _, h := range st.HigherEntries(p) {
		if hv, _ := st.Entry(h); abs(v-hv) > limit {
			return false
		}
	}
	return true
}

// Remove removes entries.
func Remove(st *kerning.Store, pairs []groups.Pair) *Result {
	res := newResult()
	stored(st, pairs, func(p groups.Pair, _ int) {
		res.remove(p)
	})
	return res
}

// pruneRedundant adds removals for entries among pairs which are redundant
// once the result is applied.
func (r *Result) pruneRedundant(st *kerning.Store, pairs []groups.Pair) {
	trial := st.Clone()
	r.Apply(trial)
	var candidates []groups.Pair
	for _, p := range pairs {
		if _, ok := trial.Entry(p); ok {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return
	}
	for _, p := range trial.RemoveRedundantExceptions(candidates) {
		r.remove(p)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
