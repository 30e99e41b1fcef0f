/*
Package groups holds the kerning keys and the classification of glyphs into
kerning groups.

A kerning pair is made of two keys, one for each side. A key is either a glyph
name or the name of a kerning group. Side1 is the first glyph of a pair in
left-to-right text, side2 the second one. Group names carry a side prefix
('public.kern1.' or 'public.kern2.'), but package groups never sniffs
prefixes to tell glyphs from groups: a Key knows what it is.

Index keeps the group membership lists and the reverse mapping from glyphs
to groups. A glyph is a member of at most one kerning group per side; every
membership change goes through Index.SetGroup or Index.RemoveGroup, which
keep both directions consistent.

Groups are serialized as XML (see WriteXML and ReadXML).

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package groups

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'kern.groups'.
func tracer() tracing.Trace {
	return tracing.Select("kern.groups")
}
