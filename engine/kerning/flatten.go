package kerning

import (
	"github.com/npillmayer/kerning/engine/groups"
)

// levelOrder is the order in which FlatKerning expands entries. Later levels
// override earlier ones, in the same way Resolve prefers them.
var levelOrder = [4]func(groups.Pair) bool{
	func(p groups.Pair) bool { return p.Left.IsGroup() && p.Right.IsGroup() },
	func(p groups.Pair) bool { return p.Left.IsGlyph() && p.Right.IsGroup() },
	func(p groups.Pair) bool { return p.Left.IsGroup() && p.Right.IsGlyph() },
	func(p groups.Pair) bool { return p.IsGlyphPair() },
}

// FlatKerning expands every entry to glyph pairs. For each glyph pair the
// result holds the value Get would return for it.
func (st *Store) FlatKerning() map[groups.Pair]int {
	flat := make(map[groups.Pair]int)
	for _, level := range levelOrder {
		for p, v := range st.pairs {
			if !level(p) {
				continue
			}
			for _, l := range st.groups.Expand(p.Left) {
				for _, r := range st.groups.Expand(p.Right) {
					flat[groups.GlyphPair(l, r)] = v
				}
			}
		}
	}
	tracer().Debugf("flattened %d entries to %d glyph pairs", len(st.pairs), len(flat))
	return flat
}
