package font

import (
	"strings"

	"github.com/benoitkugler/textlayout/language"
)

// ScriptTag is an OpenType script tag, e.g. 'latn'.
//
// Tags are 4 bytes, stored big-endian in an uint32, as in OpenType font files.
type ScriptTag uint32

// T returns a ScriptTag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate.
func T(t string) ScriptTag {
	t = (t + "    ")[:4]
	return ScriptTag(uint32(t[0])<<24 | uint32(t[1])<<16 | uint32(t[2])<<8 | uint32(t[3]))
}

func (t ScriptTag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return strings.TrimRight(string(bytes), " ")
}

// DFLT is the script of glyphs without script affinity (punctuation, figures,
// unmapped glyphs).
var DFLT = T("DFLT")

// ISO 15924 codes whose OpenType tag differs from the lower-cased code.
var scriptTagExceptions = map[language.Script]ScriptTag{
	language.Hiragana:             T("kana"),
	language.Katakana_Or_Hiragana: T("kana"),
	language.Yi:                   T("yi"),
	language.Nko:                  T("nko"),
	language.Vai:                  T("vai"),
}

// ScriptForRune returns the OpenType script tag for a code-point.
// Code-points of the Common and Inherited scripts map to DFLT.
func ScriptForRune(r rune) ScriptTag {
	script := language.LookupScript(r)
	if !script.IsRealScript() {
		return DFLT
	}
	if tag, ok := scriptTagExceptions[script]; ok {
		return tag
	}
	return ScriptTag(script)
}
