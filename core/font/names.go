package font

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// nameIndex holds the glyph name based lookups shared by all Model
// implementations.
type nameIndex struct {
	order  []string
	glyphs map[string]rune // 0 = no code-point
	bases  map[string]string
	byRune map[rune]string
}

func newNameIndex() *nameIndex {
	return &nameIndex{
		glyphs: make(map[string]rune),
		bases:  make(map[string]string),
		byRune: make(map[rune]string),
	}
}

func (ix *nameIndex) add(name string, r rune) {
	u, ok := ix.glyphs[name]
	if !ok {
		ix.order = append(ix.order, name)
	}
	if u == 0 {
		ix.glyphs[name] = r
	}
	if r != 0 {
		if _, taken := ix.byRune[r]; !taken {
			ix.byRune[r] = name
		}
	}
}

func (ix *nameIndex) names() []string {
	n := make([]string, len(ix.order))
	copy(n, ix.order)
	return n
}

func (ix *nameIndex) exists(name string) bool {
	_, ok := ix.glyphs[name]
	return ok
}

func (ix *nameIndex) unicodeOf(name string) (rune, bool) {
	r := ix.glyphs[name]
	return r, r != 0
}

func (ix *nameIndex) pseudoUnicodeOf(name string) (rune, bool) {
	if r, ok := ix.unicodeOf(name); ok {
		return r, true
	}
	base := BaseName(name)
	if base != name {
		if r, ok := ix.unicodeOf(base); ok {
			return r, true
		}
	}
	return CodepointFromName(base)
}

func (ix *nameIndex) scriptOf(name string) ScriptTag {
	r, ok := ix.pseudoUnicodeOf(name)
	if !ok {
		return DFLT
	}
	return ScriptForRune(r)
}

func (ix *nameIndex) decompositionBaseOf(name string) string {
	if b, ok := ix.bases[name]; ok {
		return b
	}
	if r, ok := ix.unicodeOf(name); ok {
		d := norm.NFD.String(string(r))
		if first, _ := utf8.DecodeRuneInString(d); first != r && first != utf8.RuneError {
			if b, ok := ix.byRune[first]; ok {
				return b
			}
		}
	}
	if base := BaseName(name); base != name && ix.exists(base) {
		return base
	}
	return name
}

// BaseName returns the part of a glyph name before the first suffix dot.
// ".notdef" and similar names are their own base.
func BaseName(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

// CodepointFromName decodes glyph names of the form "uniXXXX" and "uXXXX" to
// "uXXXXXX".
func CodepointFromName(name string) (rune, bool) {
	var hex string
	switch {
	case strings.HasPrefix(name, "uni") && len(name) >= 7:
		hex = name[3:7]
	case strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7:
		hex = name[1:]
	default:
		return 0, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || n == 0 || n > utf8.MaxRune {
		return 0, false
	}
	return rune(n), true
}
