package feature

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/kerning/core/font"
	"github.com/npillmayer/kerning/engine/groups"
	"github.com/npillmayer/kerning/engine/kerning"
)

// Class name prefixes for side1 and side2 classes.
const (
	Side1ClassPrefix = "MMK_L_"
	Side2ClassPrefix = "MMK_R_"
)

// Options control the compilation of feature code.
type Options struct {
	SplitScripts bool // split classes and group/group rules by script
}

type section int

const (
	glyphGlyph section = iota
	glyphGroupExceptions
	groupExceptionsGlyph
	glyphGroup
	groupGlyph
	groupGroup
)

var sectionHeaders = [...]string{
	"# glyph, glyph",
	"# glyph, group exceptions",
	"# group exceptions, glyph",
	"# glyph, group",
	"# group, glyph",
	"# group, group",
}

// ClassName returns the feature class name (without '@') for a group.
func ClassName(side groups.Side, group string) string {
	if side == groups.Side2 {
		return Side2ClassPrefix + groups.BareName(group)
	}
	return Side1ClassPrefix + groups.BareName(group)
}

type rule struct {
	enum        bool
	left, right string
	value       int
	script      font.ScriptTag // group/group rules only
}

func (r rule) String() string {
	kw := "pos"
	if r.enum {
		kw = "enum pos"
	}
	return fmt.Sprintf("%s %s %s %d;", kw, r.left, r.right, r.value)
}

// operand is a key as written in a rule.
type operand struct {
	text   string
	script font.ScriptTag
}

// classTable holds the classes for all groups of an index.
type classTable struct {
	bySide [2]map[string][]class // group name → classes
	decl   *treemap.Map          // class name → glyphs
}

func buildClasses(ix *groups.Index, model font.Model, split bool) (*classTable, error) {
	ct := &classTable{decl: treemap.NewWithStringComparator()}
	owner := make(map[string]string) // class → group
	for _, side := range groups.Sides {
		ct.bySide[side] = make(map[string][]class)
		for _, g := range ix.Groups(side) {
			members := ix.Members(g)
			if len(members) == 0 {
				continue
			}
			name := ClassName(side, g)
			var classes []class
			if split {
				classes = splitByScript(name, members, model)
			} else {
				sort.Strings(members)
				classes = []class{{name: name, glyphs: members}}
			}
			ct.bySide[side][g] = classes
			for _, c := range classes {
				if other, dup := owner[c.name]; dup {
					return nil, core.Error(core.EINVALID, "groups %s and %s both map to class @%s",
						other, g, c.name)
				}
				owner[c.name] = g
				ct.decl.Put(c.name, c.glyphs)
			}
		}
	}
	return ct, nil
}

// operands returns the rule operands for a key. A glyph is written as is, a
// group as one or more classes.
func (ct *classTable) operands(side groups.Side, k groups.Key) []operand {
	if k.IsGlyph() {
		return []operand{{text: k.Name(), script: font.DFLT}}
	}
	classes := ct.bySide[side][k.Name()]
	ops := make([]operand, len(classes))
	for i, c := range classes {
		ops[i] = operand{text: "@" + c.name, script: c.script}
	}
	return ops
}

// Compile writes the kerning of a store as feature code. A font model is
// required for script splitting only.
func Compile(st *kerning.Store, model font.Model, opts Options) (string, error) {
	if opts.SplitScripts && model == nil {
		return "", core.Error(core.EINVALID, "splitting by script requires a font")
	}
	ix := st.Groups()
	ct, err := buildClasses(ix, model, opts.SplitScripts)
	if err != nil {
		return "", err
	}
	var sections [len(sectionHeaders)][]rule
	add := func(s section, enum bool, p groups.Pair, v int) {
		for _, l := range ct.operands(groups.Side1, p.Left) {
			for _, r := range ct.operands(groups.Side2, p.Right) {
				sections[s] = append(sections[s], rule{
					enum:   enum,
					left:   l.text,
					right:  r.text,
					value:  v,
					script: blockScript(l.script, r.script),
				})
			}
		}
	}
	for _, p := range st.Entries() {
		v, _ := st.Entry(p)
		switch {
		case p.IsGlyphPair():
			add(glyphGlyph, false, p, v)
		case p.Left.IsGlyph():
			if _, grouped := ix.GroupOf(groups.Side1, p.Left.Name()); grouped {
				add(glyphGroupExceptions, true, p, v)
			} else {
				add(glyphGroup, false, p, v)
			}
		case p.Right.IsGlyph():
			if _, grouped := ix.GroupOf(groups.Side2, p.Right.Name()); grouped {
				add(groupExceptionsGlyph, true, p, v)
			} else {
				add(groupGlyph, false, p, v)
			}
		default:
			add(groupGroup, false, p, v)
		}
	}
	// glyph pairs covered by both kinds of exceptions
	ambiguous := st.AmbiguousGlyphPairs()
	for _, p := range ambiguous {
		add(glyphGlyph, false, p, st.Get(p))
	}
	if len(ambiguous) > 0 {
		gg := sections[glyphGlyph]
		sort.SliceStable(gg, func(i, j int) bool {
			if gg[i].left != gg[j].left {
				return gg[i].left < gg[j].left
			}
			return gg[i].right < gg[j].right
		})
	}
	var b strings.Builder
	it := ct.decl.Iterator()
	for it.Next() {
		fmt.Fprintf(&b, "@%s = [%s];\n", it.Key(), strings.Join(it.Value().([]string), " "))
	}
	if !ct.decl.Empty() {
		b.WriteString("\n")
	}
	b.WriteString("feature kern {\n")
	for s, header := range sectionHeaders {
		fmt.Fprintf(&b, "    %s\n", header)
		if section(s) == groupGroup && opts.SplitScripts {
			writeSubtables(&b, sections[s])
			continue
		}
		for _, r := range sections[s] {
			fmt.Fprintf(&b, "    %s\n", r)
		}
	}
	b.WriteString("} kern;\n")
	tracer().Infof("compiled %d entries, %d classes, %d ambiguous pairs",
		st.Len(), ct.decl.Size(), len(ambiguous))
	return b.String(), nil
}

// writeSubtables writes group/group rules in one subtable per script,
// followed by the common rules.
func writeSubtables(b *strings.Builder, rules []rule) {
	blocks := treemap.NewWithStringComparator()
	var common []rule
	for _, r := range rules {
		if r.script == font.DFLT {
			common = append(common, r)
			continue
		}
		key := r.script.String()
		block, _ := blocks.Get(key)
		list, _ := block.([]rule)
		blocks.Put(key, append(list, r))
	}
	var ordered [][]rule
	it := blocks.Iterator()
	for it.Next() {
		ordered = append(ordered, it.Value().([]rule))
	}
	if len(common) > 0 {
		ordered = append(ordered, common)
	}
	for i, block := range ordered {
		if i > 0 {
			b.WriteString("    subtable;\n")
		}
		for _, r := range block {
			fmt.Fprintf(b, "    %s\n", r)
		}
	}
}
