package kerning

import (
	"sort"

	"github.com/npillmayer/kerning/engine/groups"
)

// SideClass classifies one side of a kerning pair.
type SideClass int8

const (
	GlyphClass     SideClass = iota // a glyph without a governing group entry
	GroupClass                      // a group key
	ExceptionClass                  // a glyph overriding its group's entry
)

func (c SideClass) String() string {
	switch c {
	case GlyphClass:
		return "glyph"
	case GroupClass:
		return "group"
	case ExceptionClass:
		return "exception"
	}
	return "<unknown>"
}

// PairType returns the classification of a pair: the classification of the
// entry providing its value, or, if no entry exists, of the entry Set would
// create.
func (st *Store) PairType(p groups.Pair) (SideClass, SideClass) {
	q, _, ok := st.Resolve(p)
	if !ok {
		q = st.lifted(p)
	}
	return st.sideClass(q, groups.Side1), st.sideClass(q, groups.Side2)
}

func (st *Store) sideClass(q groups.Pair, side groups.Side) SideClass {
	k := q.Key(side)
	if k.IsGroup() {
		return GroupClass
	}
	g, ok := st.groups.GroupOf(side, k.Name())
	if !ok {
		return GlyphClass
	}
	up := q.With(side, groups.Group(g))
	if _, ok := st.pairs[up]; ok {
		return ExceptionClass
	}
	other := side.Other()
	up = up.With(other, st.groups.Lift(other, q.Key(other)))
	if _, ok := st.pairs[up]; ok {
		return ExceptionClass
	}
	return GlyphClass
}

// BreakException deletes the stored entry currently providing the value of
// p. Afterwards p resolves to the next more general entry, or to 0.
// Returns the key of the deleted entry.
func (st *Store) BreakException(p groups.Pair) (groups.Pair, bool) {
	q, _, ok := st.Resolve(p)
	if !ok {
		return groups.Pair{}, false
	}
	l, r := st.PairType(p)
	tracer().Debugf("break %s: delete %s (%s, %s)", p, q, l, r)
	delete(st.pairs, q)
	return q, true
}

// PossibleExceptions lists the keys more specific than the entry providing
// p's value, which could be created as exceptions for p. If no entry exists,
// these are all keys of the resolution chain except the most general one.
func (st *Store) PossibleExceptions(p groups.Pair) []groups.Pair {
	c := st.chain(p)
	var possible []groups.Pair
	for i, q := range c {
		if _, ok := st.pairs[q]; ok {
			break
		}
		if i == len(c)-1 {
			break
		}
		possible = append(possible, q)
	}
	return possible
}

// ConflictingExceptions lists the stored entries which would become ambiguous
// if the literal pair p were created. A glyph/group entry (a, G2) and a
// group/glyph entry (G1, b) both apply to the glyph pair (a, b) if a is a
// member of G1 and b is a member of G2.
func (st *Store) ConflictingExceptions(p groups.Pair) []groups.Pair {
	var conflicts []groups.Pair
	switch {
	case p.Left.IsGlyph() && p.Right.IsGroup():
		g1, ok := st.groups.GroupOf(groups.Side1, p.Left.Name())
		if !ok {
			return nil
		}
		for _, b := range st.groups.Members(p.Right.Name()) {
			q := groups.P(groups.Group(g1), groups.Glyph(b))
			if _, ok := st.pairs[q]; ok {
				conflicts = append(conflicts, q)
			}
		}
	case p.Left.IsGroup() && p.Right.IsGlyph():
		g2, ok := st.groups.GroupOf(groups.Side2, p.Right.Name())
		if !ok {
			return nil
		}
		for _, a := range st.groups.Members(p.Left.Name()) {
			q := groups.P(groups.Glyph(a), groups.Group(g2))
			if _, ok := st.pairs[q]; ok {
				conflicts = append(conflicts, q)
			}
		}
	}
	groups.SortPairs(conflicts)
	return conflicts
}

// AmbiguousGlyphPairs lists the glyph pairs which are covered by both a
// glyph/group entry and a group/glyph entry, without a glyph/glyph entry of
// their own.
func (st *Store) AmbiguousGlyphPairs() []groups.Pair {
	var amb []groups.Pair
	for p := range st.pairs {
		if !(p.Left.IsGlyph() && p.Right.IsGroup()) {
			continue
		}
		g1, ok := st.groups.GroupOf(groups.Side1, p.Left.Name())
		if !ok {
			continue
		}
		for _, b := range st.groups.Members(p.Right.Name()) {
			gp := groups.GlyphPair(p.Left.Name(), b)
			if _, ok := st.pairs[gp]; ok {
				continue
			}
			if _, ok := st.pairs[groups.P(groups.Group(g1), groups.Glyph(b))]; ok {
				amb = append(amb, gp)
			}
		}
	}
	groups.SortPairs(amb)
	return amb
}

// RemoveRedundantExceptions deletes stored entries whose removal would not
// change the effective value of any glyph pair. If keys is empty, all
// entries are checked. Returns the deleted keys.
func (st *Store) RemoveRedundantExceptions(keys []groups.Pair) []groups.Pair {
	if len(keys) == 0 {
		keys = st.Entries()
	} else {
		keys = append([]groups.Pair(nil), keys...)
	}
	sort.SliceStable(keys, func(i, j int) bool { // most specific first
		if keys[i].Level() != keys[j].Level() {
			return keys[i].Level() < keys[j].Level()
		}
		return keys[i].Less(keys[j])
	})
	var removed []groups.Pair
	for changed := true; changed; {
		changed = false
		for _, k := range keys {
			if _, ok := st.pairs[k]; !ok {
				continue
			}
			if st.isRedundant(k) {
				delete(st.pairs, k)
				removed = append(removed, k)
				changed = true
			}
		}
	}
	if len(removed) > 0 {
		tracer().Debugf("removed %d redundant entries", len(removed))
	}
	return removed
}

// isRedundant is true if every glyph pair provided by entry k resolves to the
// same value without k.
func (st *Store) isRedundant(k groups.Pair) bool {
	v := st.pairs[k]
	if k.IsGlyphPair() {
		return st.valueWithout(k, k) == v
	}
	for _, gp := range st.GlyphPairs(k) {
		if q, _, _ := st.Resolve(gp); q != k {
			continue
		}
		if st.valueWithout(gp, k) != v {
			return false
		}
	}
	return true
}

// valueWithout resolves p, skipping entry k.
func (st *Store) valueWithout(p, k groups.Pair) int {
	for _, q := range st.chain(p) {
		if q == k {
			continue
		}
		if v, ok := st.pairs[q]; ok {
			return v
		}
	}
	return 0
}
