package kerning

import (
	"sort"

	"github.com/npillmayer/kerning/engine/groups"
)

// Store holds the kerning entries of a font together with its group index.
type Store struct {
	pairs  map[groups.Pair]int
	groups *groups.Index
}

// NewStore creates an empty kerning store over a group index. If ix is nil,
// an empty index is created.
func NewStore(ix *groups.Index) *Store {
	if ix == nil {
		ix = groups.NewIndex()
	}
	return &Store{
		pairs:  make(map[groups.Pair]int),
		groups: ix,
	}
}

// Groups returns the group index the store resolves against.
func (st *Store) Groups() *groups.Index {
	return st.groups
}

// Len returns the number of stored entries.
func (st *Store) Len() int {
	return len(st.pairs)
}

// chain returns the resolution order for a pair, most specific first.
// Keys which have no group on their side are not lifted, so the chain has
// between one and four distinct entries.
func (st *Store) chain(p groups.Pair) []groups.Pair {
	l := st.groups.Lift(groups.Side1, p.Left)
	r := st.groups.Lift(groups.Side2, p.Right)
	c := make([]groups.Pair, 1, 4)
	c[0] = p
	if l != p.Left {
		c = append(c, groups.P(l, p.Right))
	}
	if r != p.Right {
		c = append(c, groups.P(p.Left, r))
	}
	if l != p.Left && r != p.Right {
		c = append(c, groups.P(l, r))
	}
	return c
}

// Resolve returns the stored entry which provides the effective value of a
// pair, together with its value. If no entry exists at any level, Resolve
// returns false.
func (st *Store) Resolve(p groups.Pair) (groups.Pair, int, bool) {
	for _, q := range st.chain(p) {
		if v, ok := st.pairs[q]; ok {
			return q, v, true
		}
	}
	return groups.Pair{}, 0, false
}

// Get returns the effective kerning value of a pair. Unknown pairs have an
// implied value of 0.
func (st *Store) Get(p groups.Pair) int {
	_, v, _ := st.Resolve(p)
	return v
}

// Set sets the effective kerning value of a pair.
//
// If the literal pair is stored, its value is overwritten. If a more general
// entry provides the value, an equal value is a no-op and a different value
// creates the literal pair as an exception. If nothing exists, the most
// general entry is created, with glyphs lifted to their groups.
// Writing 0 deletes an entry, except where an explicit zero is needed to
// override a higher level entry.
func (st *Store) Set(p groups.Pair, value int) {
	if old, ok := st.pairs[p]; ok {
		if old != value {
			st.WriteEntry(p, value)
		}
		return
	}
	if q, v, ok := st.Resolve(p); ok {
		if v == value {
			return
		}
		tracer().Debugf("set %s = %d: exception to %s = %d", p, value, q, v)
		st.pairs[p] = value
		return
	}
	if value == 0 {
		return
	}
	top := st.lifted(p)
	tracer().Debugf("set %s = %d: new entry %s", p, value, top)
	st.pairs[top] = value
}

// lifted returns the most general pair a pair can resolve to.
func (st *Store) lifted(p groups.Pair) groups.Pair {
	return groups.P(
		st.groups.Lift(groups.Side1, p.Left),
		st.groups.Lift(groups.Side2, p.Right),
	)
}

// SuperPair is the most general pair a pair could ever resolve to: both keys
// lifted to their groups where they have one.
func (st *Store) SuperPair(p groups.Pair) groups.Pair {
	return st.lifted(p)
}

// Entry returns the stored value of a key pair, without resolution.
func (st *Store) Entry(p groups.Pair) (int, bool) {
	v, ok := st.pairs[p]
	return v, ok
}

// SetEntry stores a value for a key pair, without resolution. A value of 0
// is stored as an explicit zero.
func (st *Store) SetEntry(p groups.Pair, value int) {
	st.pairs[p] = value
}

// WriteEntry stores a value for a key pair, without resolution. A value of 0
// deletes the entry if no higher level entry exists for p.
func (st *Store) WriteEntry(p groups.Pair, value int) {
	if value == 0 && !st.hasHigherLevel(p) {
		delete(st.pairs, p)
		return
	}
	st.pairs[p] = value
}

// DeleteEntry removes a stored key pair.
func (st *Store) DeleteEntry(p groups.Pair) bool {
	if _, ok := st.pairs[p]; !ok {
		return false
	}
	delete(st.pairs, p)
	return true
}

// Entries returns all stored key pairs, sorted.
func (st *Store) Entries() []groups.Pair {
	keys := make([]groups.Pair, 0, len(st.pairs))
	for p := range st.pairs {
		keys = append(keys, p)
	}
	groups.SortPairs(keys)
	return keys
}

// Map returns a copy of all stored entries.
func (st *Store) Map() map[groups.Pair]int {
	m := make(map[groups.Pair]int, len(st.pairs))
	for p, v := range st.pairs {
		m[p] = v
	}
	return m
}

// Clone returns a deep copy of the store, including its group index.
func (st *Store) Clone() *Store {
	c := NewStore(st.groups.Clone())
	for p, v := range st.pairs {
		c.pairs[p] = v
	}
	return c
}

// Replace replaces entries and groups of st with those of other. The group
// index pointer of st stays valid.
func (st *Store) Replace(other *Store) {
	st.groups.Replace(other.groups)
	st.pairs = make(map[groups.Pair]int, len(other.pairs))
	for p, v := range other.pairs {
		st.pairs[p] = v
	}
}

// ReplaceEntries replaces all entries of st, keeping its groups.
func (st *Store) ReplaceEntries(m map[groups.Pair]int) {
	st.pairs = make(map[groups.Pair]int, len(m))
	for p, v := range m {
		st.pairs[p] = v
	}
}

// hasHigherLevel is true if an entry more general than p exists.
func (st *Store) hasHigherLevel(p groups.Pair) bool {
	for _, q := range st.chain(p)[1:] {
		if _, ok := st.pairs[q]; ok {
			return true
		}
	}
	return false
}

// HigherEntries returns the stored entries more general than p, in
// resolution order.
func (st *Store) HigherEntries(p groups.Pair) []groups.Pair {
	var higher []groups.Pair
	for _, q := range st.chain(p)[1:] {
		if _, ok := st.pairs[q]; ok {
			higher = append(higher, q)
		}
	}
	return higher
}

// IsException is true for a stored entry which overrides a more general
// stored entry.
func (st *Store) IsException(p groups.Pair) bool {
	if _, ok := st.pairs[p]; !ok {
		return false
	}
	return st.hasHigherLevel(p)
}

// GlyphPairs returns the glyph pairs a key pair stands for, sorted.
func (st *Store) GlyphPairs(p groups.Pair) []groups.Pair {
	lefts := st.groups.Expand(p.Left)
	rights := st.groups.Expand(p.Right)
	sort.Strings(lefts)
	sort.Strings(rights)
	gp := make([]groups.Pair, 0, len(lefts)*len(rights))
	for _, l := range lefts {
		for _, r := range rights {
			gp = append(gp, groups.GlyphPair(l, r))
		}
	}
	return gp
}
