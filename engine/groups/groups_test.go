package groups

import (
	"bytes"
	"strings"
	"testing"

	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.groups")
	defer teardown()
	//
	assert.Equal(t, "public.kern1.O", GroupName(Side1, "O"))
	assert.Equal(t, "public.kern1.O", GroupName(Side1, "public.kern1.O"))
	assert.Equal(t, "public.kern2.O", GroupName(Side2, "O"))
	assert.Equal(t, "O", BareName("public.kern2.O"))
	s, ok := ParseSide("side2")
	assert.True(t, ok)
	assert.Equal(t, Side2, s)
	assert.Equal(t, Side1, Side2.Other())
}

func TestPairOrdering(t *testing.T) {
	pairs := []Pair{
		P(Group("public.kern1.O"), Glyph("A")),
		GlyphPair("A", "V"),
		P(Glyph("A"), Group("public.kern2.V")),
		GlyphPair("A", "T"),
	}
	SortPairs(pairs)
	assert.Equal(t, "(A, T)", pairs[0].String())
	assert.Equal(t, "(A, V)", pairs[1].String())
	assert.Equal(t, "(A, @public.kern2.V)", pairs[2].String())
	assert.Equal(t, 1, pairs[2].Level())
	assert.Equal(t, 0, pairs[0].Level())
}

func TestSetGroupMovesGlyphs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.groups")
	defer teardown()
	//
	ix := NewIndex()
	_, err := ix.SetGroup(Side1, "public.kern1.O", []string{"O", "Q", "D"})
	require.NoError(t, err)
	changed, err := ix.SetGroup(Side1, "public.kern1.D", []string{"D", "D"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"public.kern1.D", "public.kern1.O"}, changed)
	assert.Equal(t, []string{"O", "Q"}, ix.Members("public.kern1.O"))
	g, ok := ix.GroupOf(Side1, "D")
	assert.True(t, ok)
	assert.Equal(t, "public.kern1.D", g)
	_, ok = ix.GroupOf(Side2, "D")
	assert.False(t, ok)
	assert.Equal(t, 1, ix.Size("public.kern1.D"))
}

func TestSetGroupRejectsOtherSide(t *testing.T) {
	ix := NewIndex()
	_, err := ix.SetGroup(Side1, "O", []string{"O"})
	require.NoError(t, err)
	_, err = ix.SetGroup(Side2, "O", []string{"Q"})
	assert.Error(t, err)
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestPrefixSearch(t *testing.T) {
	ix := NewIndex()
	ix.SetGroup(Side1, "public.kern1.O", []string{"O"})
	ix.SetGroup(Side1, "public.kern1.H", []string{"H"})
	ix.SetGroup(Side2, "public.kern2.O", []string{"O"})
	assert.Equal(t, []string{"public.kern1.H", "public.kern1.O"}, ix.GroupsWithPrefix(Side1Prefix))
	assert.Equal(t, []string{"public.kern2.O"}, ix.GroupsWithPrefix(Side2Prefix))
	ix.RemoveGroup("public.kern1.H")
	assert.Equal(t, []string{"public.kern1.O"}, ix.GroupsWithPrefix(Side1Prefix))
	_, ok := ix.GroupOf(Side1, "H")
	assert.False(t, ok)
}

func TestLiftAndExpand(t *testing.T) {
	ix := NewIndex()
	ix.SetGroup(Side2, "public.kern2.O", []string{"O", "Q"})
	assert.Equal(t, Group("public.kern2.O"), ix.Lift(Side2, Glyph("Q")))
	assert.Equal(t, Glyph("Q"), ix.Lift(Side1, Glyph("Q")))
	assert.Equal(t, []string{"O", "Q"}, ix.Expand(Group("public.kern2.O")))
	assert.Equal(t, []string{"A"}, ix.Expand(Glyph("A")))
}

func TestReferenceGroups(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.AddReferenceGroup(GroupDef{Name: "round", Type: "reference", Glyphs: []string{"O"}}))
	assert.True(t, ix.IsReference("round"))
	assert.False(t, ix.HasGroup("round"))
	_, err := ix.SetGroup(Side1, "round", []string{"O"})
	assert.Equal(t, core.EPOLICY, core.Code(err))
}

func TestCloneIsIndependent(t *testing.T) {
	ix := NewIndex()
	ix.SetGroup(Side1, "public.kern1.O", []string{"O"})
	c := ix.Clone()
	c.SetGroup(Side1, "public.kern1.O", []string{"O", "Q"})
	assert.Equal(t, []string{"O"}, ix.Members("public.kern1.O"))
	assert.Equal(t, []string{"O", "Q"}, c.Members("public.kern1.O"))
	assert.Equal(t, []string{"public.kern1.O"}, c.GroupsWithPrefix(Side1Prefix))
}

const groupFile = `<?xml version="1.0" encoding="UTF-8"?>
<groups>
  <group name="public.kern1.O" side="side1" type="kerning" color="1 0 0 1">
    <glyphs>
      Q
      O
    </glyphs>
  </group>
  <group name="public.kern2.A" side="side2" type="kerning">
    <glyphs>
      A
      Aacute
    </glyphs>
  </group>
  <group name="round" side="side1" type="reference">
    <glyphs>
      O
    </glyphs>
  </group>
</groups>
`

func TestReadXML(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.groups")
	defer teardown()
	//
	ix, err := ReadXML(strings.NewReader(groupFile))
	require.NoError(t, err)
	assert.Equal(t, []string{"Q", "O"}, ix.Members("public.kern1.O"))
	assert.Equal(t, []string{"A", "Aacute"}, ix.Members("public.kern2.A"))
	c, ok := ix.Color("public.kern1.O")
	assert.True(t, ok)
	assert.Equal(t, Color{R: 1, A: 1}, c)
	assert.True(t, ix.IsReference("round"))
}

func TestWriteXMLRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.groups")
	defer teardown()
	//
	ix, err := ReadXML(strings.NewReader(groupFile))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, ix))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`+"\n<groups>\n"))
	assert.Contains(t, out, `  <group name="public.kern1.O" side="side1" type="kerning" color="1 0 0 1">`+
		"\n    <glyphs>\n      O\n      Q\n    </glyphs>\n  </group>\n")
	ix2, err := ReadXML(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, ix.All(), sortedMembers(ix2.All(), ix.All()))
}

func TestReadXMLErrors(t *testing.T) {
	_, err := ReadXML(strings.NewReader(`<groups><group name="x" side="side3"/></groups>`))
	assert.Equal(t, core.EINVALID, core.Code(err))
	_, err = ReadXML(strings.NewReader(`<groups><group name="x"></groups>`))
	assert.Error(t, err)
	_, err = ReadXML(strings.NewReader(`<groups><group name="public.kern1.x" color="2 0 0 1"/></groups>`))
	assert.Equal(t, core.EINVALID, core.Code(err))
}

// sortedMembers re-orders the members of got to the order in want, as the
// writer sorts glyph names.
func sortedMembers(got, want []GroupDef) []GroupDef {
	for i := range got {
		if i < len(want) && len(got[i].Glyphs) == len(want[i].Glyphs) {
			got[i].Glyphs = want[i].Glyphs
		}
	}
	return got
}
