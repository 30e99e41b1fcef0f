package feature

import (
	"strings"
	"testing"

	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/kerning/core/font"
	"github.com/npillmayer/kerning/engine/groups"
	"github.com/npillmayer/kerning/engine/kerning"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	kern1A = "public.kern1.A"
	kern2O = "public.kern2.O"
)

var (
	GA = groups.Group(kern1A)
	GO = groups.Group(kern2O)
)

func glyph(name string) groups.Key {
	return groups.Glyph(name)
}

func exampleStore(t *testing.T, side1 []string) *kerning.Store {
	st := kerning.NewStore(nil)
	_, err := st.Groups().SetGroup(groups.Side1, kern1A, side1)
	require.NoError(t, err)
	_, err = st.Groups().SetGroup(groups.Side2, kern2O, []string{"O", "Q"})
	require.NoError(t, err)
	return st
}

const exampleFeature = `@MMK_L_A = [A Aacute];
@MMK_R_O = [O Q];

feature kern {
    # glyph, glyph
    pos A Q -20;
    pos A V 0;
    pos B V 7;
    # glyph, group exceptions
    enum pos A @MMK_R_O -10;
    # group exceptions, glyph
    enum pos @MMK_L_A Q -20;
    # glyph, group
    pos B @MMK_R_O -15;
    # group, glyph
    pos @MMK_L_A V -40;
    # group, group
    pos @MMK_L_A @MMK_R_O -30;
} kern;
`

func TestCompile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.feature")
	defer teardown()
	//
	st := exampleStore(t, []string{"Aacute", "A"})
	st.SetEntry(groups.P(GA, GO), -30)
	st.SetEntry(groups.P(glyph("A"), GO), -10)
	st.SetEntry(groups.P(GA, glyph("Q")), -20)
	st.SetEntry(groups.P(glyph("B"), GO), -15)
	st.SetEntry(groups.P(GA, glyph("V")), -40)
	st.SetEntry(groups.GlyphPair("A", "V"), 0)
	st.SetEntry(groups.GlyphPair("B", "V"), 7)
	text, err := Compile(st, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, exampleFeature, text)
	//
	res, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "Aacute"}, res.Groups[groups.Side1][kern1A])
	assert.Equal(t, []string{"O", "Q"}, res.Groups[groups.Side2][kern2O])
	assert.Equal(t, -10, res.Kerning[groups.P(glyph("A"), GO)])
	imported := kerning.NewStore(nil)
	require.NoError(t, res.ApplyTo(imported))
	assert.Equal(t, st.FlatKerning(), imported.FlatKerning())
	assert.Equal(t, -20, imported.Get(groups.GlyphPair("A", "Q")))
}

func TestCompileEmptyStore(t *testing.T) {
	text, err := Compile(kerning.NewStore(nil), nil, Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "feature kern {\n    # glyph, glyph\n"))
	res, err := Parse(text)
	require.NoError(t, err)
	assert.Empty(t, res.Kerning)
}

func TestCompileClassNameCollision(t *testing.T) {
	st := exampleStore(t, []string{"A", "Aacute"})
	_, err := st.Groups().SetGroup(groups.Side1, "A", []string{"B"})
	require.NoError(t, err)
	st.SetEntry(groups.P(GA, GO), -30)
	_, err = Compile(st, nil, Options{})
	require.Error(t, err)
	assert.Equal(t, core.EINVALID, core.Code(err))
	assert.Contains(t, err.Error(), "class @MMK_L_A")
}

const splitFeature = `@MMK_L_A_grek = [Alpha];
@MMK_L_A_latn = [A Aacute];
@MMK_R_O = [O Q];

feature kern {
    # glyph, glyph
    # glyph, group exceptions
    # group exceptions, glyph
    # glyph, group
    # group, glyph
    pos @MMK_L_A_grek V -40;
    pos @MMK_L_A_latn V -40;
    # group, group
    pos @MMK_L_A_latn @MMK_R_O -30;
    subtable;
    pos @MMK_L_A_grek @MMK_R_O -30;
} kern;
`

func TestCompileSplitByScript(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.feature")
	defer teardown()
	//
	model := font.NewGlyphSet().
		Add("A", 'A').Add("Aacute", 'Á').Add("Alpha", 'Α').
		Add("O", 'O').Add("Q", 'Q').Add("V", 'V').
		SetScript("Alpha", font.T("grek"))
	st := exampleStore(t, []string{"A", "Aacute", "Alpha"})
	st.SetEntry(groups.P(GA, GO), -30)
	st.SetEntry(groups.P(GA, glyph("V")), -40)
	text, err := Compile(st, model, Options{SplitScripts: true})
	require.NoError(t, err)
	assert.Equal(t, splitFeature, text)
	res, err := Parse(text)
	require.NoError(t, err)
	imported := kerning.NewStore(nil)
	require.NoError(t, res.ApplyTo(imported))
	assert.Equal(t, st.FlatKerning(), imported.FlatKerning())
	//
	_, err = Compile(st, nil, Options{SplitScripts: true})
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestParseDuplicatePair(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.feature")
	defer teardown()
	//
	st := exampleStore(t, []string{"A", "Aacute"})
	st.SetEntry(groups.P(GA, GO), -30)
	before := st.Map()
	res, err := Parse(`
feature kern {
    pos A V -10;
    pos A V -20;
} kern;
`)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "defined more than once")
	assert.Equal(t, core.EINVALID, core.Code(err))
	assert.Equal(t, before, st.Map())
	assert.Equal(t, []string{"A", "Aacute"}, st.Groups().Members(kern1A))
}

func TestParseSkipsUnrelatedStatements(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.feature")
	defer teardown()
	//
	res, err := Parse(`
languagesystem DFLT dflt;
languagesystem latn dflt;
include(../common/kern.fea);
table GDEF { GlyphClassDef [A], , , ; } GDEF;
@L = [A Aacute];
lookup kern1 useExtension {
    lookupflag IgnoreMarks;
    pos A V <0 0 -40 0>;   # value record
    pos @L [O Q] -20;
    pos V -5;
    sub f i by f_i;
    pos A' V 10;
    subtable;
} kern1;
feature kern {
    script latn;
    language TRK;
    lookup kern1;
} kern;
`)
	require.NoError(t, err)
	assert.Len(t, res.Kerning, 5)
	assert.Equal(t, -40, res.Kerning[groups.GlyphPair("A", "V")])
	assert.Equal(t, -20, res.Kerning[groups.GlyphPair("Aacute", "Q")])
	assert.Equal(t, []string{"A", "Aacute"}, res.Groups[groups.Side1]["public.kern1.L"])
	assert.Empty(t, res.Groups[groups.Side2])
}

func TestParseErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.feature")
	defer teardown()
	//
	for _, c := range []struct {
		text, msg string
	}{
		{"feature kern { pos @X V -10; } kern;", "class @X is not defined"},
		{"@A = [A];\n@A = [B];", "class @A is defined more than once"},
		{"@MMK_L_A = [A];\n@MMK_L_B = [A B];", "glyph A is member of"},
		{`@MMK_L_A = [A Aacute];
@MMK_R_O = [O Q];
feature kern {
    enum pos @MMK_L_A Q -20;
    enum pos A @MMK_R_O -10;
} kern;`, "conflicts with"},
		{"feature kern { pos A V -10; } kern", "expected"},
		{"feature kern { pos A V -10; } ker;", "closed as"},
		{"feature kern { pos A V <1 2>; } kern;", "value record"},
		{"feature kern { pos A V -10 } kern;", "expected ;"},
		{"feature kern { kern A V -10; } kern;", "unknown statement"},
		{"pos A V ~10;", "unexpected character"},
	} {
		_, err := Parse(c.text)
		if assert.Error(t, err, c.text) {
			assert.Contains(t, err.Error(), c.msg, c.text)
		}
	}
}

func TestParseClassOnBothSides(t *testing.T) {
	res, err := Parse("@O = [O Q];\nfeature kern { pos @O @O -10; pos V @O -30; } kern;")
	require.NoError(t, err)
	assert.Equal(t, []string{"O", "Q"}, res.Groups[groups.Side1]["public.kern1.O"])
	assert.Equal(t, []string{"O", "Q"}, res.Groups[groups.Side2][kern2O])
	assert.Equal(t, -10, res.Kerning[groups.P(groups.Group("public.kern1.O"), GO)])
	assert.Equal(t, -30, res.Kerning[groups.P(glyph("V"), GO)])
	st := kerning.NewStore(nil)
	require.NoError(t, res.ApplyTo(st))
	assert.Equal(t, -10, st.Get(groups.GlyphPair("Q", "O")))
	assert.Equal(t, -30, st.Get(groups.GlyphPair("V", "Q")))
	//
	_, err = Parse("@O = [O Q];\n@MMK_L_O = [O];\nfeature kern { pos @O V -10; pos @MMK_L_O V -5; } kern;")
	assert.Error(t, err, "both classes become side1 group public.kern1.O")
}

func TestParseResolvedConflict(t *testing.T) {
	res, err := Parse(`@MMK_L_A = [A Aacute];
@MMK_R_O = [O Q];
feature kern {
    pos A Q -20;
    enum pos @MMK_L_A Q -20;
    enum pos A @MMK_R_O -10;
} kern;`)
	require.NoError(t, err)
	st := kerning.NewStore(nil)
	require.NoError(t, res.ApplyTo(st))
	assert.Equal(t, -20, st.Get(groups.GlyphPair("A", "Q")))
	assert.Equal(t, -10, st.Get(groups.GlyphPair("A", "O")))
	assert.Equal(t, -20, st.Get(groups.GlyphPair("Aacute", "Q")))
	assert.Equal(t, 0, st.Get(groups.GlyphPair("Aacute", "O")))
}

func TestApplyKeepsReferenceGroups(t *testing.T) {
	st := exampleStore(t, []string{"A"})
	require.NoError(t, st.Groups().AddReferenceGroup(groups.GroupDef{
		Name: "uppercase", Type: "reference", Glyphs: []string{"A", "B"},
	}))
	res, err := Parse("@MMK_R_V = [V W];\nfeature kern { pos T @MMK_R_V -50; } kern;")
	require.NoError(t, err)
	require.NoError(t, res.ApplyTo(st))
	assert.False(t, st.Groups().HasGroup(kern1A))
	assert.True(t, st.Groups().IsReference("uppercase"))
	assert.Equal(t, -50, st.Get(groups.GlyphPair("T", "W")))
	assert.Equal(t, 1, st.Len())
}
