package feature

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/kerning/core"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokSpace
	tokComment
	tokInclude
	tokNumber
	tokClass
	tokName
	tokPunct
)

func (k tokKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokNumber:
		return "number"
	case tokClass:
		return "class name"
	case tokName:
		return "name"
	case tokPunct:
		return "punctuation"
	}
	return "token"
}

type token struct {
	kind tokKind
	text string
	line int
}

func (t token) is(kind tokKind, text string) bool {
	return t.kind == kind && t.text == text
}

// Token patterns are tried in order; the first match wins.
var tokenPatterns = []struct {
	kind tokKind
	re   *regexp.Regexp
}{
	{tokSpace, regexp.MustCompile(`^\s+`)},
	{tokComment, regexp.MustCompile(`^#[^\n]*`)},
	{tokInclude, regexp.MustCompile(`^include\s*\([^)]*\)`)},
	{tokNumber, regexp.MustCompile(`^-?[0-9]+`)},
	{tokClass, regexp.MustCompile(`^@[A-Za-z0-9_.\-]+`)},
	{tokName, regexp.MustCompile(`^(\\[0-9]+|\\?[A-Za-z_.][A-Za-z0-9_.\-+*]*)`)},
	{tokPunct, regexp.MustCompile(`^[{}\[\];=<>(),']`)},
}

func nextToken(text string) (tokKind, string) {
	for _, p := range tokenPatterns {
		if m := p.re.FindString(text); m != "" {
			return p.kind, m
		}
	}
	return tokEOF, ""
}

// scan splits feature code into tokens, dropping white space and comments.
// The last token is always tokEOF.
func scan(text string) ([]token, error) {
	var toks []token
	line := 1
	for len(text) > 0 {
		kind, m := nextToken(text)
		if m == "" {
			r, _ := utf8.DecodeRuneInString(text)
			return nil, syntaxError(line, "unexpected character %q", r)
		}
		if kind != tokSpace && kind != tokComment {
			toks = append(toks, token{kind: kind, text: m, line: line})
		}
		line += strings.Count(m, "\n")
		text = text[len(m):]
	}
	return append(toks, token{kind: tokEOF, line: line}), nil
}

func syntaxError(line int, format string, args ...interface{}) error {
	return core.Error(core.EINVALID, "line %d: %s", line, fmt.Sprintf(format, args...))
}
