package transform

import (
	"strings"
	"testing"

	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/kerning/engine/groups"
	"github.com/npillmayer/kerning/engine/kerning"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	kern1A  = "public.kern1.A"
	kern1SC = "public.kern1.A.sc"
	kern2O  = "public.kern2.O"
)

var (
	gV = groups.Glyph("V")
	GA = groups.Group(kern1A)
	GO = groups.Group(kern2O)
)

func glyphs(l, r string) groups.Pair {
	return groups.GlyphPair(l, r)
}

func newStore(t *testing.T, entries map[groups.Pair]int) *kerning.Store {
	ix := groups.NewIndex()
	_, err := ix.SetGroup(groups.Side1, kern1A, []string{"A", "Aacute"})
	require.NoError(t, err)
	_, err = ix.SetGroup(groups.Side1, kern1SC, []string{"A.sc", "Aacute.sc"})
	require.NoError(t, err)
	_, err = ix.SetGroup(groups.Side2, kern2O, []string{"O", "Q"})
	require.NoError(t, err)
	st := kerning.NewStore(ix)
	for p, v := range entries {
		st.SetEntry(p, v)
	}
	return st
}

func TestThresholdRemovesSmallValues(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.transform")
	defer teardown()
	//
	st := newStore(t, map[groups.Pair]int{
		glyphs("B", "V"): 3,
		glyphs("B", "W"): -3,
		glyphs("C", "V"): 5,
		glyphs("C", "W"): -5,
		glyphs("D", "V"): 10,
		glyphs("D", "W"): -10,
	})
	res, err := Threshold(st, st.Entries(), 5, false)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Len())
	res.Apply(st)
	assert.Equal(t, 2, st.Len())
	assert.Equal(t, 10, st.Get(glyphs("D", "V")))
	assert.Equal(t, -10, st.Get(glyphs("D", "W")))
	assert.Equal(t, 0, st.Get(glyphs("B", "V")))
}

func TestThresholdKeepsSignificantExceptions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.transform")
	defer teardown()
	//
	st := newStore(t, map[groups.Pair]int{
		groups.P(GA, gV):      -40,
		glyphs("Aacute", "V"): -2,
		groups.P(GA, GO):      -4,
		glyphs("Aacute", "O"): -1,
	})
	res, err := Threshold(st, st.Entries(), 5, false)
	require.NoError(t, err)
	assert.Equal(t, []groups.Pair{glyphs("Aacute", "O"), groups.P(GA, GO)}, res.Pairs())
	res.Apply(st)
	assert.Equal(t, -2, st.Get(glyphs("Aacute", "V")))
	assert.Equal(t, -40, st.Get(glyphs("A", "V")))
	assert.Equal(t, 0, st.Get(glyphs("A", "O")))
	_, err = Threshold(st, nil, -1, false)
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestThresholdTwiceChangesNothing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.transform")
	defer teardown()
	//
	st := newStore(t, map[groups.Pair]int{
		groups.P(GA, gV): 4,
		glyphs("A", "V"): -4,
	})
	res, err := Threshold(st, st.Entries(), 5, false)
	require.NoError(t, err)
	assert.Equal(t, []groups.Pair{glyphs("A", "V"), groups.P(GA, gV)}, res.Pairs())
	res.Apply(st)
	assert.Equal(t, 0, st.Len())
	res, err = Threshold(st, st.Entries(), 5, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

func TestScaleAndShift(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.transform")
	defer teardown()
	//
	st := newStore(t, map[groups.Pair]int{
		groups.P(GA, gV):      -40,
		glyphs("Aacute", "V"): 0,
		glyphs("B", "V"):      10,
	})
	res := Scale(st, st.Entries(), 0.9)
	assert.Equal(t, 2, res.Len(), "zero stays zero")
	res.Apply(st)
	assert.Equal(t, -36, st.Get(glyphs("A", "V")))
	assert.Equal(t, 9, st.Get(glyphs("B", "V")))
	assert.Equal(t, 0, st.Get(glyphs("Aacute", "V")))
	//
	pairs, err := SelectPairs(st, Glob{}, "B , *")
	require.NoError(t, err)
	Shift(st, pairs, -4).Apply(st)
	assert.Equal(t, 5, st.Get(glyphs("B", "V")))
	assert.Equal(t, -36, st.Get(glyphs("A", "V")))
	assert.Equal(t, 0, Shift(st, pairs, 0).Len())
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 3, RoundHalfUp(2.5))
	assert.Equal(t, -2, RoundHalfUp(-2.5))
	assert.Equal(t, -3, RoundHalfUp(-2.6))
	assert.Equal(t, 0, RoundHalfUp(0.49))
}

func TestRound(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.transform")
	defer teardown()
	//
	st := newStore(t, map[groups.Pair]int{
		groups.P(GA, gV):      -40,
		glyphs("Aacute", "V"): -38,
		glyphs("B", "V"):      12,
		glyphs("C", "V"):      13,
	})
	res, err := Round(st, st.Entries(), 5, false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Len())
	res.Apply(st)
	assert.Equal(t, 10, st.Get(glyphs("B", "V")))
	assert.Equal(t, 15, st.Get(glyphs("C", "V")))
	v, ok := st.Entry(glyphs("Aacute", "V"))
	assert.True(t, ok)
	assert.Equal(t, -40, v)
	_, err = Round(st, nil, 0, false)
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestRoundRemovesRedundantExceptions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.transform")
	defer teardown()
	//
	st := newStore(t, map[groups.Pair]int{
		groups.P(GA, gV):      -40,
		glyphs("Aacute", "V"): -38,
	})
	res, err := Round(st, st.Entries(), 5, true)
	require.NoError(t, err)
	assert.True(t, res.Edits[glyphs("Aacute", "V")].Remove)
	res.Apply(st)
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, -40, st.Get(glyphs("Aacute", "V")))
}

func TestRemove(t *testing.T) {
	st := newStore(t, map[groups.Pair]int{
		groups.P(GA, gV):  -40,
		glyphs("B", "V"): 10,
	})
	pairs, err := SelectPairs(st, Glob{}, "@* , V")
	require.NoError(t, err)
	assert.Equal(t, []groups.Pair{groups.P(GA, gV)}, pairs)
	Remove(st, pairs).Apply(st)
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, 0, st.Get(glyphs("A", "V")))
}

func TestGlobMatching(t *testing.T) {
	names := []string{"A", "Aacute", "B", "a", "a.sc"}
	matched, err := SelectGlyphs(names, Glob{}, "A* a.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "Aacute", "a.sc"}, matched)
	_, err = Glob{}.MatchGlyphs("  ", names)
	assert.Error(t, err)
	_, err = Glob{}.MatchGlyphs("[", names)
	assert.Equal(t, core.EINVALID, core.Code(err))
	pairs := []groups.Pair{glyphs("A", "V"), glyphs("V", "A"), groups.P(GA, GO)}
	matched2, err := Glob{}.MatchPairs("A", pairs)
	require.NoError(t, err)
	assert.Empty(t, matched2)
	matched2, err = Glob{}.MatchPairs("* , A", pairs)
	require.NoError(t, err)
	assert.Equal(t, []groups.Pair{glyphs("V", "A")}, matched2)
	_, err = Glob{}.MatchPairs(",", pairs)
	assert.Error(t, err)
}

func TestCopyOneToOne(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.transform")
	defer teardown()
	//
	st := newStore(t, map[groups.Pair]int{
		glyphs("B", "V"):                -40,
		groups.P(groups.Glyph("B"), GO): -20,
		glyphs("V", "B"):                -15,
	})
	res, err := Copy(st, st.Entries(), CopySpec{
		Side1Source:      []string{"B"},
		Side1Replacement: []string{"C"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Len())
	assert.Equal(t, -40, res.Edits[glyphs("C", "V")].Value)
	assert.Equal(t, -20, res.Edits[groups.P(groups.Glyph("C"), GO)].Value)
	require.Len(t, res.Report.Matched, 1)
	assert.Equal(t, "B → C", res.Report.Matched[0].String())
	res.Apply(st)
	assert.Equal(t, -20, st.Get(glyphs("C", "Q")))
	assert.Equal(t, -40, st.Get(glyphs("B", "V")))
}

func TestCopyBothSides(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.transform")
	defer teardown()
	//
	st := newStore(t, map[groups.Pair]int{
		glyphs("B", "V"): -40,
		glyphs("B", "W"): -30,
		glyphs("C", "V"): -10,
	})
	res, err := Copy(st, st.Entries(), CopySpec{
		Side1Source:      []string{"B"},
		Side1Replacement: []string{"D"},
		Side2Source:      []string{"V"},
		Side2Replacement: []string{"Y"},
	})
	require.NoError(t, err)
	assert.Equal(t, []groups.Pair{glyphs("D", "Y")}, res.Pairs())
	assert.Equal(t, -40, res.Edits[glyphs("D", "Y")].Value)
}

func TestCopyByBaseName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.transform")
	defer teardown()
	//
	st := newStore(t, map[groups.Pair]int{
		groups.P(GA, gV):      -40,
		glyphs("Aacute", "V"): -35,
	})
	res, err := Copy(st, st.Entries(), CopySpec{
		Side1Source:      []string{"A", "Aacute"},
		Side1Replacement: []string{"Aacute.sc", "A.sc"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Report.Errors)
	assert.Equal(t, -40, res.Edits[groups.P(groups.Group(kern1SC), gV)].Value)
	assert.Equal(t, -35, res.Edits[glyphs("Aacute.sc", "V")].Value)
	assert.Equal(t, 2, res.Len())
	res.Apply(st)
	assert.Equal(t, -40, st.Get(glyphs("A.sc", "V")))
	assert.Equal(t, -35, st.Get(glyphs("Aacute.sc", "V")))
}

func TestCopyErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.transform")
	defer teardown()
	//
	st := newStore(t, map[groups.Pair]int{
		glyphs("B", "V"): -40,
		glyphs("C", "V"): -30,
	})
	res, err := Copy(st, st.Entries(), CopySpec{
		Side1Source:      []string{"B", "C"},
		Side1Replacement: []string{"D"},
	})
	assert.Equal(t, core.EINVALID, core.Code(err))
	assert.Equal(t, 0, res.Len())
	assert.Len(t, res.Report.Errors[ManyToOne], 1)
	//
	res, err = Copy(st, st.Entries(), CopySpec{
		Side1Source:      []string{"B", "C"},
		Side1Replacement: []string{"B.sc", "X.sc"},
	})
	assert.Error(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Len(t, res.Report.Errors[Unmatched], 1)
	assert.True(t, strings.Contains(err.Error(), "no replacement for C"))
	//
	_, err = Copy(st, st.Entries(), CopySpec{Side1Source: []string{"B"}})
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestCopyWarnings(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.transform")
	defer teardown()
	//
	st := newStore(t, map[groups.Pair]int{
		groups.P(GA, gV): -40,
		glyphs("B", "V"): -20,
	})
	res, err := Copy(st, st.Entries(), CopySpec{
		Side1Source:      []string{"A"},
		Side1Replacement: []string{"A", "D"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Report.Warnings[OneToMany], 1)
	assert.Len(t, res.Report.Warnings[SelfMapping], 1)
	assert.Len(t, res.Report.Warnings[IncompleteGroup], 1)
	assert.Equal(t, []groups.Pair{glyphs("D", "V")}, res.Pairs())
	assert.Equal(t, -40, res.Edits[glyphs("D", "V")].Value)
}

func TestRecipe(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.transform")
	defer teardown()
	//
	st := newStore(t, map[groups.Pair]int{
		glyphs("B", "V"): -41,
		glyphs("C", "V"): 3,
	})
	recipe, err := LoadRecipe(strings.NewReader(`
name: cleanup
steps:
  - op: threshold
    pattern: "*"
    limit: 4
  - op: round
    pattern: "B , *"
    increment: 10
`))
	require.NoError(t, err)
	assert.Equal(t, "cleanup", recipe.Name)
	results, err := recipe.Run(st, Glob{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, -40, st.Get(glyphs("B", "V")))
}

func TestInvalidRecipes(t *testing.T) {
	for _, text := range []string{
		"name: empty\nsteps: []\n",
		"name: x\nsteps:\n  - op: stretch\n    pattern: \"*\"\n",
		"name: x\nsteps:\n  - op: scale\n    pattern: \"*\"\n",
		"name: x\nsteps:\n  - op: remove\n",
		"steps: [",
	} {
		_, err := LoadRecipe(strings.NewReader(text))
		assert.Equal(t, core.EINVALID, core.Code(err), text)
	}
}
