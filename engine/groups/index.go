package groups

import (
	"sort"

	"github.com/derekparker/trie"
	"github.com/npillmayer/kerning/core"
)

// KerningType is the type of groups which take part in kerning. Groups of other
// types (e.g. "reference") are carried along, but are never used to resolve
// kerning and may not be edited through a transaction.
const KerningType = "kerning"

// Color is a group color, RGBA in [0…1].
type Color struct {
	R, G, B, A float64
}

// GroupDef is a snapshot of a group, used for serialization.
type GroupDef struct {
	Name   string
	Side   Side
	Type   string
	Color  *Color
	Glyphs []string
}

// IsKerning is true for kerning groups.
func (g GroupDef) IsKerning() bool {
	return g.Type == "" || g.Type == KerningType
}

// Index holds the kerning groups of a font and the reverse mapping
// glyph → group, per side.
//
// Index is not safe for concurrent use.
type Index struct {
	members   [2]map[string][]string // group name → glyphs, in order
	reverse   [2]map[string]string   // glyph → group name
	colors    map[string]Color
	reference map[string]*GroupDef
	names     *trie.Trie // all kerning group names
}

// NewIndex creates an empty group index.
func NewIndex() *Index {
	ix := &Index{
		colors:    make(map[string]Color),
		reference: make(map[string]*GroupDef),
		names:     trie.New(),
	}
	for _, s := range Sides {
		ix.members[s] = make(map[string][]string)
		ix.reverse[s] = make(map[string]string)
	}
	return ix
}

// GroupOf returns the kerning group a glyph belongs to on a side.
func (ix *Index) GroupOf(side Side, glyph string) (string, bool) {
	g, ok := ix.reverse[side][glyph]
	return g, ok
}

// HasGroup is true if a kerning group with this name exists on either side.
func (ix *Index) HasGroup(name string) bool {
	_, ok := ix.SideOf(name)
	return ok
}

// SideOf returns the side of a kerning group.
func (ix *Index) SideOf(name string) (Side, bool) {
	for _, s := range Sides {
		if _, ok := ix.members[s][name]; ok {
			return s, true
		}
	}
	return Side1, false
}

// Members returns a copy of the member list of a kerning group.
func (ix *Index) Members(name string) []string {
	for _, s := range Sides {
		if m, ok := ix.members[s][name]; ok {
			c := make([]string, len(m))
			copy(c, m)
			return c
		}
	}
	return nil
}

// Size returns the number of members of a group, 0 for unknown groups.
func (ix *Index) Size(name string) int {
	for _, s := range Sides {
		if m, ok := ix.members[s][name]; ok {
			return len(m)
		}
	}
	return 0
}

// Groups returns the sorted names of the kerning groups of a side.
func (ix *Index) Groups(side Side) []string {
	names := make([]string, 0, len(ix.members[side]))
	for n := range ix.members[side] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GroupsWithPrefix returns the sorted names of all kerning groups starting with
// prefix, e.g. all side1 groups with GroupsWithPrefix(Side1Prefix).
func (ix *Index) GroupsWithPrefix(prefix string) []string {
	names := ix.names.PrefixSearch(prefix)
	sort.Strings(names)
	return names
}

// GroupedGlyphs returns the sorted names of all glyphs which are member of a
// group on side.
func (ix *Index) GroupedGlyphs(side Side) []string {
	glyphs := make([]string, 0, len(ix.reverse[side]))
	for g := range ix.reverse[side] {
		glyphs = append(glyphs, g)
	}
	sort.Strings(glyphs)
	return glyphs
}

// SetGroup creates or replaces a kerning group. This is the single mutation
// path for group membership: glyphs which are members of another group on the
// same side are moved out of that group.
//
// Returns the names of all groups whose membership changed.
// It is an error to use the name of a group on the other side or the name of
// a reference group.
func (ix *Index) SetGroup(side Side, name string, glyphs []string) ([]string, error) {
	if name == "" {
		return nil, core.Error(core.EINVALID, "group name may not be empty")
	}
	if _, ok := ix.members[side.Other()][name]; ok {
		return nil, core.Error(core.EINVALID, "group %s exists on %s", name, side.Other())
	}
	if _, ok := ix.reference[name]; ok {
		return nil, core.Error(core.EPOLICY, "group %s is a reference group", name)
	}
	changed := []string{name}
	if old, ok := ix.members[side][name]; ok {
		for _, g := range old {
			delete(ix.reverse[side], g)
		}
	} else {
		ix.names.Add(name, side)
	}
	members := make([]string, 0, len(glyphs))
	seen := make(map[string]bool, len(glyphs))
	for _, g := range glyphs {
		if seen[g] {
			continue
		}
		seen[g] = true
		if other, ok := ix.reverse[side][g]; ok && other != name {
			ix.members[side][other] = without(ix.members[side][other], g)
			changed = append(changed, other)
			tracer().Debugf("glyph %s moves from group %s to %s", g, other, name)
		}
		ix.reverse[side][g] = name
		members = append(members, g)
	}
	ix.members[side][name] = members
	return changed, nil
}

// RemoveGroup removes a kerning group. Its members become ungrouped.
func (ix *Index) RemoveGroup(name string) bool {
	side, ok := ix.SideOf(name)
	if !ok {
		return false
	}
	for _, g := range ix.members[side][name] {
		delete(ix.reverse[side], g)
	}
	delete(ix.members[side], name)
	delete(ix.colors, name)
	ix.names.Remove(name)
	return true
}

// Color returns the color of a group, if it has one.
func (ix *Index) Color(name string) (Color, bool) {
	c, ok := ix.colors[name]
	return c, ok
}

// SetColor sets the color of a kerning group.
func (ix *Index) SetColor(name string, c Color) {
	if ix.HasGroup(name) {
		ix.colors[name] = c
	}
}

// AddReferenceGroup stores a non-kerning group.
func (ix *Index) AddReferenceGroup(g GroupDef) error {
	if g.IsKerning() {
		return core.Error(core.EINVALID, "group %s is a kerning group", g.Name)
	}
	if ix.HasGroup(g.Name) {
		return core.Error(core.EINVALID, "group %s exists as a kerning group", g.Name)
	}
	c := g
	c.Glyphs = append([]string(nil), g.Glyphs...)
	ix.reference[g.Name] = &c
	return nil
}

// IsReference is true for the name of a non-kerning group.
func (ix *Index) IsReference(name string) bool {
	_, ok := ix.reference[name]
	return ok
}

// Lift replaces a glyph key by the key of the glyph's group on side, if it has
// one. Group keys are returned unchanged.
func (ix *Index) Lift(side Side, k Key) Key {
	if k.IsGroup() {
		return k
	}
	if g, ok := ix.reverse[side][k.Name()]; ok {
		return Group(g)
	}
	return k
}

// Expand returns the glyphs a key stands for.
func (ix *Index) Expand(k Key) []string {
	if k.IsGroup() {
		return ix.Members(k.Name())
	}
	return []string{k.Name()}
}

// All returns snapshots of all groups, kerning groups first, sorted by side and
// name.
func (ix *Index) All() []GroupDef {
	var all []GroupDef
	for _, s := range Sides {
		for _, name := range ix.Groups(s) {
			g := GroupDef{Name: name, Side: s, Type: KerningType, Glyphs: ix.Members(name)}
			if c, ok := ix.colors[name]; ok {
				cc := c
				g.Color = &cc
			}
			all = append(all, g)
		}
	}
	refs := make([]string, 0, len(ix.reference))
	for n := range ix.reference {
		refs = append(refs, n)
	}
	sort.Strings(refs)
	for _, n := range refs {
		g := *ix.reference[n]
		g.Glyphs = append([]string(nil), g.Glyphs...)
		all = append(all, g)
	}
	return all
}

// Clone returns a deep copy of the index.
func (ix *Index) Clone() *Index {
	c := NewIndex()
	for _, s := range Sides {
		for name, m := range ix.members[s] {
			c.members[s][name] = append([]string(nil), m...)
			c.names.Add(name, s)
		}
		for g, name := range ix.reverse[s] {
			c.reverse[s][g] = name
		}
	}
	for n, col := range ix.colors {
		c.colors[n] = col
	}
	for n, g := range ix.reference {
		gg := *g
		gg.Glyphs = append([]string(nil), g.Glyphs...)
		c.reference[n] = &gg
	}
	return c
}

// Replace replaces the content of ix with the content of other.
func (ix *Index) Replace(other *Index) {
	*ix = *other.Clone()
}

func without(list []string, g string) []string {
	r := list[:0:0]
	for _, x := range list {
		if x != g {
			r = append(r, x)
		}
	}
	return r
}
