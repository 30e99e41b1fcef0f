package font

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.fonts")
	defer teardown()
	//
	n := NormalizeFontname("Gill Sans MT.ttf")
	if n != "gill_sans_mt" {
		t.Errorf("expected different normalized name for Gill Sans, have %q", n)
	}
}

func TestScriptTags(t *testing.T) {
	assert.Equal(t, "latn", T("latn").String())
	assert.Equal(t, "DFLT", DFLT.String())
	assert.Equal(t, T("latn"), ScriptForRune('A'))
	assert.Equal(t, T("cyrl"), ScriptForRune('Ж'))
	assert.Equal(t, T("grek"), ScriptForRune('Ω'))
	assert.Equal(t, DFLT, ScriptForRune('1'))
	assert.Equal(t, DFLT, ScriptForRune('.'))
	assert.Equal(t, DFLT, ScriptForRune('\u0301'), "inherited")
	assert.Equal(t, T("kana"), ScriptForRune('あ'))
	assert.Equal(t, T("hani"), ScriptForRune('中'))
	assert.Equal(t, T("yi"), ScriptForRune('ꀀ'))
}

func TestGlyphNames(t *testing.T) {
	assert.Equal(t, "A", BaseName("A.sc"))
	assert.Equal(t, ".notdef", BaseName(".notdef"))
	r, ok := CodepointFromName("uni0416")
	assert.True(t, ok)
	assert.Equal(t, 'Ж', r)
	r, ok = CodepointFromName("u1F600")
	assert.True(t, ok)
	assert.Equal(t, rune(0x1F600), r)
	_, ok = CodepointFromName("underscore")
	assert.False(t, ok)
}

func TestGlyphSet(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.fonts")
	defer teardown()
	//
	gs := NewGlyphSet().Add("A", 'A').Add("Aacute", 'Á').AddGlyphs("A.sc", "uni0416.alt")
	gs.AddComposite("Adieresis", 'Ä', "A")
	assert.True(t, gs.GlyphExists("A.sc"))
	assert.False(t, gs.GlyphExists("B"))
	_, ok := gs.UnicodeOf("A.sc")
	assert.False(t, ok, "A.sc has no real code-point")
	r, ok := gs.PseudoUnicodeOf("A.sc")
	assert.True(t, ok)
	assert.Equal(t, 'A', r)
	assert.Equal(t, T("cyrl"), gs.ScriptOf("uni0416.alt"))
	assert.Equal(t, "A", gs.DecompositionBaseOf("Aacute"), "NFD decomposition of Á starts with A")
	assert.Equal(t, "A", gs.DecompositionBaseOf("Adieresis"))
	assert.Equal(t, "A", gs.DecompositionBaseOf("A.sc"))
	assert.Equal(t, "A", gs.DecompositionBaseOf("A"))
	gs.SetScript("A.sc", DFLT)
	assert.Equal(t, DFLT, gs.ScriptOf("A.sc"))
}

func TestFallbackFontModel(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "kern.fonts")
	defer teardown()
	//
	f := FallbackFont()
	require.NotNil(t, f)
	a, ok := f.NameForRune('A')
	require.True(t, ok, "Go Sans maps 'A'")
	assert.True(t, f.GlyphExists(a))
	r, ok := f.UnicodeOf(a)
	assert.True(t, ok)
	assert.Equal(t, 'A', r)
	assert.Equal(t, T("latn"), f.ScriptOf(a))
	if aacute, ok := f.NameForRune('Á'); ok {
		assert.Equal(t, a, f.DecompositionBaseOf(aacute))
	}
	assert.NotEmpty(t, f.GlyphNames())
}
