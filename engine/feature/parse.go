package feature

import (
	"sort"
	"strconv"
	"strings"

	"github.com/npillmayer/kerning/engine/groups"
	"github.com/npillmayer/kerning/engine/kerning"
)

// Result is the kerning read from feature code.
type Result struct {
	Kerning map[groups.Pair]int
	Groups  [2]map[string][]string // per side: group name → glyphs
}

// ApplyTo replaces the kerning and the kerning groups of a store with the
// result. Reference groups of the store are kept.
func (res *Result) ApplyTo(st *kerning.Store) error {
	ix := st.Groups().Clone()
	for _, side := range groups.Sides {
		for _, g := range ix.Groups(side) {
			ix.RemoveGroup(g)
		}
	}
	for _, side := range groups.Sides {
		names := make([]string, 0, len(res.Groups[side]))
		for g := range res.Groups[side] {
			names = append(names, g)
		}
		sort.Strings(names)
		for _, g := range names {
			if _, err := ix.SetGroup(side, g, res.Groups[side][g]); err != nil {
				return err
			}
		}
	}
	st.Groups().Replace(ix)
	st.ReplaceEntries(res.Kerning)
	return nil
}

// Parse reads kerning feature code. Pair rules of all blocks are collected;
// classes become groups of the side they are used on. Statements which do
// not contribute to pair kerning (language systems, lookup flags, single
// positioning, substitutions, tables) are skipped.
//
// Parse fails if a class is referenced but not defined or defined twice, if
// a glyph is member of two classes of the same side, if a pair is defined
// more than once, or if a glyph/group exception conflicts with a group/glyph
// exception for a glyph pair which has not been defined explicitly before.
func Parse(text string) (*Result, error) {
	toks, err := scan(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, classes: make(map[string]*classDef)}
	if err := p.statements(false); err != nil {
		return nil, err
	}
	res, err := p.reduce()
	if err != nil {
		tracer().Errorf("feature code rejected: %v", err)
		return nil, err
	}
	tracer().Infof("parsed %d pairs, %d + %d groups", len(res.Kerning),
		len(res.Groups[groups.Side1]), len(res.Groups[groups.Side2]))
	return res, nil
}

// --- Parser ----------------------------------------------------------------

type classDef struct {
	glyphs []string
	line   int
}

// ref is a rule operand: a glyph, a named class or an inline class.
type ref struct {
	glyph  string
	class  string
	inline []string
	line   int
}

type pairRule struct {
	left, right ref
	value       int
	enum        bool
	line        int
}

type parser struct {
	toks    []token
	pos     int
	classes map[string]*classDef
	order   []string // classes in order of definition
	rules   []pairRule
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokKind, text string) (token, error) {
	t := p.next()
	if t.kind != kind || (text != "" && t.text != text) {
		want := text
		if want == "" {
			want = kind.String()
		}
		return t, syntaxError(t.line, "expected %s, found %q", want, t.text)
	}
	return t, nil
}

func (p *parser) statements(inBlock bool) error {
	for {
		t := p.peek()
		var err error
		switch {
		case t.kind == tokEOF:
			if inBlock {
				return syntaxError(t.line, "unexpected end of input")
			}
			return nil
		case t.is(tokPunct, "}"):
			if !inBlock {
				return syntaxError(t.line, "unexpected '}'")
			}
			return nil
		case t.is(tokPunct, ";"):
			p.next()
		case t.kind == tokInclude:
			p.next()
			if p.peek().is(tokPunct, ";") {
				p.next()
			}
		case t.kind == tokClass:
			err = p.classDefinition()
		case t.kind == tokName:
			err = p.keyword()
		default:
			err = syntaxError(t.line, "unexpected %q", t.text)
		}
		if err != nil {
			return err
		}
	}
}

func (p *parser) keyword() error {
	t := p.next()
	switch t.text {
	case "languagesystem", "script", "language", "lookupflag", "subtable", "markClass":
		return p.skipStatement()
	case "feature", "lookup":
		return p.block(t)
	case "table":
		return p.skipTable()
	case "pos", "position":
		return p.pairPositioning(false)
	case "enum", "enumerate":
		if n := p.next(); n.text != "pos" && n.text != "position" {
			return syntaxError(n.line, "expected 'pos' after %q", t.text)
		}
		return p.pairPositioning(true)
	case "sub", "substitute", "rsub", "reversesub", "ignore":
		return p.skipStatement()
	}
	return syntaxError(t.line, "unknown statement %q", t.text)
}

// skipStatement skips to the end of the current statement.
func (p *parser) skipStatement() error {
	for {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return syntaxError(t.line, "unterminated statement")
		case t.is(tokPunct, ";"):
			return nil
		case t.is(tokPunct, "{"), t.is(tokPunct, "}"):
			return syntaxError(t.line, "missing ';'")
		}
	}
}

// block parses 'feature kern { ... } kern;' and 'lookup name { ... } name;'.
// A lookup reference 'lookup name;' is skipped.
func (p *parser) block(kw token) error {
	name, err := p.expect(tokName, "")
	if err != nil {
		return err
	}
	for p.peek().kind == tokName { // useExtension
		p.next()
	}
	if p.peek().is(tokPunct, ";") {
		p.next()
		return nil
	}
	if _, err = p.expect(tokPunct, "{"); err != nil {
		return err
	}
	if err = p.statements(true); err != nil {
		return err
	}
	p.next() // '}'
	end, err := p.expect(tokName, "")
	if err != nil {
		return err
	}
	if end.text != name.text {
		return syntaxError(end.line, "%s %s closed as %s", kw.text, name.text, end.text)
	}
	_, err = p.expect(tokPunct, ";")
	return err
}

func (p *parser) skipTable() error {
	if _, err := p.expect(tokName, ""); err != nil {
		return err
	}
	if _, err := p.expect(tokPunct, "{"); err != nil {
		return err
	}
	for depth := 1; depth > 0; {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return syntaxError(t.line, "unterminated table")
		case t.is(tokPunct, "{"):
			depth++
		case t.is(tokPunct, "}"):
			depth--
		}
	}
	if _, err := p.expect(tokName, ""); err != nil {
		return err
	}
	_, err := p.expect(tokPunct, ";")
	return err
}

// classDefinition parses '@name = [glyphs];' and '@name = @other;'.
func (p *parser) classDefinition() error {
	t := p.next()
	name := t.text[1:]
	if _, err := p.expect(tokPunct, "="); err != nil {
		return err
	}
	var glyphs []string
	var err error
	if p.peek().kind == tokClass {
		glyphs, err = p.classGlyphs(p.next())
	} else {
		glyphs, err = p.glyphClass()
	}
	if err != nil {
		return err
	}
	if _, err := p.expect(tokPunct, ";"); err != nil {
		return err
	}
	if _, dup := p.classes[name]; dup {
		return syntaxError(t.line, "class @%s is defined more than once", name)
	}
	p.classes[name] = &classDef{glyphs: glyphs, line: t.line}
	p.order = append(p.order, name)
	return nil
}

func (p *parser) classGlyphs(t token) ([]string, error) {
	def, ok := p.classes[t.text[1:]]
	if !ok {
		return nil, syntaxError(t.line, "class %s is not defined", t.text)
	}
	return append([]string(nil), def.glyphs...), nil
}

// glyphClass parses '[a b @c]'.
func (p *parser) glyphClass() ([]string, error) {
	if _, err := p.expect(tokPunct, "["); err != nil {
		return nil, err
	}
	var glyphs []string
	for {
		t := p.next()
		switch {
		case t.is(tokPunct, "]"):
			return glyphs, nil
		case t.kind == tokName:
			glyphs = append(glyphs, glyphName(t.text))
		case t.kind == tokClass:
			more, err := p.classGlyphs(t)
			if err != nil {
				return nil, err
			}
			glyphs = append(glyphs, more...)
		default:
			return nil, syntaxError(t.line, "unexpected %q in glyph class", t.text)
		}
	}
}

func glyphName(s string) string {
	return strings.TrimPrefix(s, `\`)
}

// operand parses a glyph, a class or an inline class. marked is true for
// operands of contextual rules.
func (p *parser) operand() (r ref, marked bool, err error) {
	t := p.peek()
	r.line = t.line
	switch {
	case t.kind == tokName:
		p.next()
		r.glyph = glyphName(t.text)
	case t.kind == tokClass:
		p.next()
		r.class = t.text[1:]
	case t.is(tokPunct, "["):
		if r.inline, err = p.glyphClass(); r.inline == nil {
			r.inline = []string{}
		}
	default:
		return r, false, syntaxError(t.line, "expected glyph or class, found %q", t.text)
	}
	if p.peek().is(tokPunct, "'") {
		p.next()
		marked = true
	}
	return r, marked, err
}

// pairPositioning parses a pair positioning rule. Single, contextual and
// attachment positioning rules are skipped.
func (p *parser) pairPositioning(enum bool) error {
	start := p.peek()
	switch start.text {
	case "cursive", "base", "ligature", "mark":
		return p.skipStatement()
	}
	left, marked, err := p.operand()
	if err != nil {
		return err
	}
	if t := p.peek(); marked || t.kind == tokNumber || t.is(tokPunct, "<") {
		return p.skipStatement()
	}
	right, marked, err := p.operand()
	if err != nil {
		return err
	}
	if marked || !(p.peek().kind == tokNumber || p.peek().is(tokPunct, "<")) {
		return p.skipStatement()
	}
	value, err := p.value()
	if err != nil {
		return err
	}
	if _, err := p.expect(tokPunct, ";"); err != nil {
		return err
	}
	p.rules = append(p.rules, pairRule{left: left, right: right, value: value, enum: enum, line: start.line})
	return nil
}

// value parses a number or a value record. Of a record '<x y xAdv yAdv>' the
// x advance is used.
func (p *parser) value() (int, error) {
	t := p.next()
	if t.kind == tokNumber {
		return strconv.Atoi(t.text)
	}
	var nums []int
	for {
		t := p.next()
		if t.is(tokPunct, ">") {
			break
		}
		if t.kind != tokNumber {
			return 0, syntaxError(t.line, "unsupported value record")
		}
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return 0, syntaxError(t.line, "invalid number %q", t.text)
		}
		nums = append(nums, n)
	}
	switch len(nums) {
	case 1:
		return nums[0], nil
	case 4:
		return nums[2], nil
	}
	return 0, syntaxError(t.line, "value record with %d values", len(nums))
}

// --- Reduction -------------------------------------------------------------

// stripClassPrefix removes the side prefix of a class name.
func stripClassPrefix(name string) string {
	name = strings.TrimPrefix(name, Side1ClassPrefix)
	return strings.TrimPrefix(name, Side2ClassPrefix)
}

type reduction struct {
	res      *Result
	group    [2]map[string]string // class → group name, per side
	member   [2]map[string]string // glyph → group name
	declared map[groups.Pair]bool // glyph pairs with a glyph/glyph rule
}

// reduce turns classes into groups and rules into kerning entries.
func (p *parser) reduce() (*Result, error) {
	sides := make(map[string][2]bool) // a class may be used on both sides
	use := func(r ref, side groups.Side) error {
		if r.class == "" {
			return nil
		}
		if _, ok := p.classes[r.class]; !ok {
			return syntaxError(r.line, "class @%s is not defined", r.class)
		}
		used := sides[r.class]
		used[side] = true
		sides[r.class] = used
		return nil
	}
	for _, r := range p.rules {
		if err := use(r.left, groups.Side1); err != nil {
			return nil, err
		}
		if err := use(r.right, groups.Side2); err != nil {
			return nil, err
		}
	}
	red := &reduction{
		res: &Result{
			Kerning: make(map[groups.Pair]int),
			Groups:  [2]map[string][]string{make(map[string][]string), make(map[string][]string)},
		},
		group:    [2]map[string]string{make(map[string]string), make(map[string]string)},
		member:   [2]map[string]string{make(map[string]string), make(map[string]string)},
		declared: make(map[groups.Pair]bool),
	}
	for _, name := range p.order {
		used, ok := sides[name]
		if !ok {
			switch {
			case strings.HasPrefix(name, Side1ClassPrefix):
				used[groups.Side1] = true
			case strings.HasPrefix(name, Side2ClassPrefix):
				used[groups.Side2] = true
			default:
				tracer().Debugf("class @%s is not used", name)
				continue
			}
		}
		for _, side := range groups.Sides {
			if !used[side] {
				continue
			}
			if err := red.addGroup(side, name, p.classes[name]); err != nil {
				return nil, err
			}
		}
	}
	for _, r := range p.rules {
		for _, k := range red.keys(r) {
			if err := red.addPair(k, r.value, r.line); err != nil {
				return nil, err
			}
		}
	}
	return red.res, nil
}

func (red *reduction) addGroup(side groups.Side, class string, def *classDef) error {
	name := groups.GroupName(side, stripClassPrefix(class))
	if _, dup := red.res.Groups[side][name]; dup {
		return syntaxError(def.line, "class @%s is defined more than once", class)
	}
	var glyphs []string
	for _, g := range def.glyphs {
		if other, ok := red.member[side][g]; ok {
			if other == name {
				continue
			}
			return syntaxError(def.line, "glyph %s is member of @%s and of %s", g, class, other)
		}
		red.member[side][g] = name
		glyphs = append(glyphs, g)
	}
	red.res.Groups[side][name] = glyphs
	red.group[side][class] = name
	return nil
}

// keys returns the kerning keys a rule defines. Rules with inline classes
// and enumerated class/class rules define glyph pairs.
func (red *reduction) keys(r pairRule) []groups.Pair {
	expand := r.left.inline != nil || r.right.inline != nil ||
		(r.enum && r.left.class != "" && r.right.class != "")
	side := func(x ref, s groups.Side) []groups.Key {
		switch {
		case x.glyph != "":
			return []groups.Key{groups.Glyph(x.glyph)}
		case x.inline != nil:
			return glyphKeys(x.inline)
		case expand:
			return glyphKeys(red.res.Groups[s][red.group[s][x.class]])
		}
		return []groups.Key{groups.Group(red.group[s][x.class])}
	}
	var keys []groups.Pair
	for _, l := range side(r.left, groups.Side1) {
		for _, rr := range side(r.right, groups.Side2) {
			keys = append(keys, groups.P(l, rr))
		}
	}
	return keys
}

func glyphKeys(names []string) []groups.Key {
	keys := make([]groups.Key, len(names))
	for i, n := range names {
		keys[i] = groups.Glyph(n)
	}
	return keys
}

func (red *reduction) addPair(k groups.Pair, value, line int) error {
	kern := red.res.Kerning
	if _, dup := kern[k]; dup {
		return syntaxError(line, "pair %s is defined more than once", k)
	}
	switch {
	case k.IsGlyphPair():
		red.declared[k] = true
	case k.Left.IsGlyph() && k.Right.IsGroup():
		// (a, G2) against (G1(a), b) for b ∈ G2
		if g1, ok := red.member[groups.Side1][k.Left.Name()]; ok {
			for _, b := range red.res.Groups[groups.Side2][k.Right.Name()] {
				other := groups.P(groups.Group(g1), groups.Glyph(b))
				if err := red.conflict(k, other, groups.GlyphPair(k.Left.Name(), b), value, line); err != nil {
					return err
				}
			}
		}
	case k.Left.IsGroup() && k.Right.IsGlyph():
		// (G1, b) against (a, G2(b)) for a ∈ G1
		if g2, ok := red.member[groups.Side2][k.Right.Name()]; ok {
			for _, a := range red.res.Groups[groups.Side1][k.Left.Name()] {
				other := groups.P(groups.Glyph(a), groups.Group(g2))
				if err := red.conflict(k, other, groups.GlyphPair(a, k.Right.Name()), value, line); err != nil {
					return err
				}
			}
		}
	}
	kern[k] = value
	return nil
}

func (red *reduction) conflict(k, other, gp groups.Pair, value, line int) error {
	if red.declared[gp] {
		return nil
	}
	if v, ok := red.res.Kerning[other]; ok && v != value {
		return syntaxError(line, "%s = %d conflicts with %s = %d for %s", k, value, other, v, gp)
	}
	return nil
}
