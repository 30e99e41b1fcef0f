/*
Package font is for the glyph-level view of a typeface that kerning needs.

Kerning tools do not care about outlines or metrics. They need to know
which glyphs exist, which code-point a glyph stands for, which script a glyph
belongs to and which glyph a composite glyph is derived from. Model is
the interface for these queries. There are two implementations:

* GlyphSet is an in-memory glyph set, filled by the client. It is
what tests and scripting clients use.

* ScalableFont wraps a binary OpenType/TrueType font (via x/image/sfnt) and
derives all answers from the font's post and cmap tables.

Glyph names follow the usual production conventions: a dot starts a suffix
("A.sc" has base name "A"), and names of the form "uniXXXX" or "uXXXXX"
encode a code-point.

----------------------------------------------------------------------

BSD License

Copyright (c) 2017-21, Norbert Pillmayer

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions
are met:

1. Redistributions of source code must retain the above copyright
notice, this list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright
notice, this list of conditions and the following disclaimer in the
documentation and/or other materials provided with the distribution.

3. Neither the name of this software nor the names of its contributors
may be used to endorse or promote products derived from this software
without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
"AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
(INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE. */
package font

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// tracer traces with key 'kern.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("kern.fonts")
}

// Model is the glyph-level view of a font consumed by the kerning engine.
type Model interface {
	GlyphExists(name string) bool
	UnicodeOf(name string) (rune, bool)       // real code-point from the font's mapping
	PseudoUnicodeOf(name string) (rune, bool) // code-point derived from the glyph name
	ScriptOf(name string) ScriptTag
	DecompositionBaseOf(name string) string // name itself if not a composite
}

// ScalableFont is a binary OpenType font.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container
	index    *nameIndex
	indexing sync.Once
}

var _ Model = &ScalableFont{}

// LoadOpenTypeFont loads a font from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseOpenTypeFont(bytez)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	return f, nil
}

// ParseOpenTypeFont parses binary font data.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	f.Fontname, _ = f.SFNT.Name(nil, sfnt.NameIDFull)
	return
}

// glyphs builds the name index on first use. Reading all glyph names and
// the reverse cmap is expensive for large fonts, and many clients never ask.
func (sf *ScalableFont) glyphs() *nameIndex {
	sf.indexing.Do(func() {
		sf.index = newNameIndex()
		if sf.SFNT == nil {
			return
		}
		var buf sfnt.Buffer
		n := sf.SFNT.NumGlyphs()
		names := make([]string, n)
		for i := 0; i < n; i++ {
			name, err := sf.SFNT.GlyphName(&buf, sfnt.GlyphIndex(i))
			if err != nil || name == "" {
				name = fmt.Sprintf("glyph%05d", i)
			}
			names[i] = name
			sf.index.add(name, 0)
		}
		for _, plane := range [][2]rune{{0x20, 0xffff}, {0x10000, 0x1ffff}} {
			for r := plane[0]; r <= plane[1]; r++ {
				gid, err := sf.SFNT.GlyphIndex(&buf, r)
				if err != nil || gid == 0 || int(gid) >= n {
					continue
				}
				sf.index.add(names[gid], r)
			}
		}
		tracer().Infof("font %q: indexed %d glyphs, %d code-points", sf.Fontname, n, len(sf.index.byRune))
	})
	return sf.index
}

// GlyphNames returns the names of all glyphs of the font, in glyph order.
func (sf *ScalableFont) GlyphNames() []string {
	return sf.glyphs().names()
}

// NameForRune returns the name of the glyph a code-point maps to.
func (sf *ScalableFont) NameForRune(r rune) (string, bool) {
	name, ok := sf.glyphs().byRune[r]
	return name, ok
}

// GlyphExists is part of interface Model.
func (sf *ScalableFont) GlyphExists(name string) bool {
	return sf.glyphs().exists(name)
}

// UnicodeOf is part of interface Model.
func (sf *ScalableFont) UnicodeOf(name string) (rune, bool) {
	return sf.glyphs().unicodeOf(name)
}

// PseudoUnicodeOf is part of interface Model.
func (sf *ScalableFont) PseudoUnicodeOf(name string) (rune, bool) {
	return sf.glyphs().pseudoUnicodeOf(name)
}

// ScriptOf is part of interface Model.
func (sf *ScalableFont) ScriptOf(name string) ScriptTag {
	return sf.glyphs().scriptOf(name)
}

// DecompositionBaseOf is part of interface Model.
func (sf *ScalableFont) DecompositionBaseOf(name string) string {
	return sf.glyphs().decompositionBaseOf(name)
}

// --- Fallback font ---------------------------------------------------------

// FallbackFont returns a font to be used if everything else failes. It is
// always present. Currently we use Go Sans.
func FallbackFont() *ScalableFont {
	fallbackFontLoading.Do(func() {
		fallbackFont = loadFallbackFont()
	})
	return fallbackFont
}

var fallbackFontLoading sync.Once

// fallbackFont is a font that is used if everything else failes.
// Currently we use Go Sans.
var fallbackFont *ScalableFont

func loadFallbackFont() *ScalableFont {
	var err error
	gofont := &ScalableFont{
		Fontname: "Go Sans",
		Filepath: "internal",
		Binary:   goregular.TTF,
	}
	gofont.SFNT, err = sfnt.Parse(gofont.Binary)
	if err != nil {
		panic("cannot load default font") // this cannot happen
	}
	return gofont
}

// NormalizeFontname strips a font file name down to a lookup key, e.g.
// "Gill Sans MT.ttf" → "gill_sans_mt".
func NormalizeFontname(fname string) string {
	fname = strings.TrimSpace(fname)
	fname = strings.ReplaceAll(fname, " ", "_")
	if dot := strings.LastIndex(fname, "."); dot > 0 {
		fname = fname[:dot]
	}
	fname = strings.ToLower(fname)
	return fname
}
