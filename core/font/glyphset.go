package font

// GlyphSet is an in-memory Model. The zero value is not usable, create
// glyph sets with NewGlyphSet.
type GlyphSet struct {
	index  *nameIndex
	script map[string]ScriptTag
}

var _ Model = &GlyphSet{}

// NewGlyphSet creates an empty glyph set.
func NewGlyphSet() *GlyphSet {
	return &GlyphSet{
		index:  newNameIndex(),
		script: make(map[string]ScriptTag),
	}
}

// Add adds a glyph with an optional code-point (0 for none) and returns the
// glyph set, so calls may be chained.
func (gs *GlyphSet) Add(name string, r rune) *GlyphSet {
	gs.index.add(name, r)
	return gs
}

// AddGlyphs adds unmapped glyphs.
func (gs *GlyphSet) AddGlyphs(names ...string) *GlyphSet {
	for _, n := range names {
		gs.index.add(n, 0)
	}
	return gs
}

// AddComposite adds a glyph which is built from glyph base.
func (gs *GlyphSet) AddComposite(name string, r rune, base string) *GlyphSet {
	gs.index.add(name, r)
	gs.index.bases[name] = base
	return gs
}

// SetScript overrides the script of a glyph.
func (gs *GlyphSet) SetScript(name string, script ScriptTag) *GlyphSet {
	gs.script[name] = script
	return gs
}

// Names returns all glyph names in insertion order.
func (gs *GlyphSet) Names() []string {
	return gs.index.names()
}

// GlyphExists is part of interface Model.
func (gs *GlyphSet) GlyphExists(name string) bool {
	return gs.index.exists(name)
}

// UnicodeOf is part of interface Model.
func (gs *GlyphSet) UnicodeOf(name string) (rune, bool) {
	return gs.index.unicodeOf(name)
}

// PseudoUnicodeOf is part of interface Model.
func (gs *GlyphSet) PseudoUnicodeOf(name string) (rune, bool) {
	return gs.index.pseudoUnicodeOf(name)
}

// ScriptOf is part of interface Model.
func (gs *GlyphSet) ScriptOf(name string) ScriptTag {
	if s, ok := gs.script[name]; ok {
		return s
	}
	return gs.index.scriptOf(name)
}

// DecompositionBaseOf is part of interface Model.
func (gs *GlyphSet) DecompositionBaseOf(name string) string {
	return gs.index.decompositionBaseOf(name)
}
