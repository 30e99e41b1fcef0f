package groups

import (
	"fmt"
	"sort"
	"strings"
)

// Side is the position of a key within a kerning pair.
type Side int8

const (
	Side1 Side = iota // first glyph of a pair
	Side2             // second glyph of a pair
)

// Sides lists both sides, in pair order.
var Sides = [2]Side{Side1, Side2}

// Group name prefixes for side1 and side2 kerning groups.
const (
	Side1Prefix = "public.kern1."
	Side2Prefix = "public.kern2."
)

func (s Side) String() string {
	if s == Side2 {
		return "side2"
	}
	return "side1"
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Side1 {
		return Side2
	}
	return Side1
}

// Prefix returns the group name prefix for the side.
func (s Side) Prefix() string {
	if s == Side2 {
		return Side2Prefix
	}
	return Side1Prefix
}

// ParseSide parses "side1" and "side2".
func ParseSide(s string) (Side, bool) {
	switch s {
	case "side1":
		return Side1, true
	case "side2":
		return Side2, true
	}
	return Side1, false
}

// GroupName creates a group name from a bare name, e.g.
//
//	GroupName(Side1, "A") = "public.kern1.A"
//
// Names which already carry the prefix of the side are returned unchanged.
func GroupName(side Side, bare string) string {
	if strings.HasPrefix(bare, side.Prefix()) {
		return bare
	}
	return side.Prefix() + bare
}

// BareName strips a side prefix from a group name.
func BareName(name string) string {
	if strings.HasPrefix(name, Side1Prefix) {
		return name[len(Side1Prefix):]
	} else if strings.HasPrefix(name, Side2Prefix) {
		return name[len(Side2Prefix):]
	}
	return name
}

// --- Keys ------------------------------------------------------------------

// Key is one side of a kerning pair: either a glyph or a group.
// Keys are comparable and may be used as map keys.
type Key struct {
	name  string
	group bool
}

// Glyph creates a glyph key.
func Glyph(name string) Key {
	return Key{name: name}
}

// Group creates a group key.
func Group(name string) Key {
	return Key{name: name, group: true}
}

// Name returns the glyph or group name.
func (k Key) Name() string { return k.name }

// IsGroup is true for group keys.
func (k Key) IsGroup() bool { return k.group }

// IsGlyph is true for glyph keys.
func (k Key) IsGlyph() bool { return !k.group && k.name != "" }

// IsZero is true for the empty key.
func (k Key) IsZero() bool { return k.name == "" }

func (k Key) String() string {
	if k.group {
		return "@" + k.name
	}
	return k.name
}

// Less orders keys by name; for equal names a glyph sorts before a group.
func (k Key) Less(other Key) bool {
	if k.name != other.name {
		return k.name < other.name
	}
	return !k.group && other.group
}

// --- Pairs -----------------------------------------------------------------

// Pair is a kerning pair of a side1 key and a side2 key.
type Pair struct {
	Left, Right Key
}

// P creates a pair from two keys.
func P(left, right Key) Pair {
	return Pair{Left: left, Right: right}
}

// GlyphPair creates a pair of two glyph keys.
func GlyphPair(left, right string) Pair {
	return Pair{Left: Glyph(left), Right: Glyph(right)}
}

// Key returns the key on a side.
func (p Pair) Key(side Side) Key {
	if side == Side2 {
		return p.Right
	}
	return p.Left
}

// With returns a copy of p with the key on side replaced.
func (p Pair) With(side Side, k Key) Pair {
	if side == Side2 {
		p.Right = k
	} else {
		p.Left = k
	}
	return p
}

// IsGlyphPair is true if both keys are glyphs.
func (p Pair) IsGlyphPair() bool {
	return !p.Left.group && !p.Right.group
}

// Level returns the number of group keys in the pair (0, 1 or 2).
func (p Pair) Level() int {
	l := 0
	if p.Left.group {
		l++
	}
	if p.Right.group {
		l++
	}
	return l
}

func (p Pair) String() string {
	return fmt.Sprintf("(%s, %s)", p.Left, p.Right)
}

// Less orders pairs by left key, then by right key.
func (p Pair) Less(q Pair) bool {
	if p.Left != q.Left {
		return p.Left.Less(q.Left)
	}
	return p.Right.Less(q.Right)
}

// SortPairs sorts pairs in place.
func SortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Less(pairs[j]) })
}
