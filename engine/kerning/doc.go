/*
Package kerning implements the kerning store with its hierarchical value
resolution.

Kerning values are stored sparsely for pairs of keys (see package groups).
The effective value of a glyph pair (a,b) is resolved by trying, in order,

	(a, b)                  glyph, glyph
	(group1(a), b)          group, glyph
	(a, group2(b))          glyph, group
	(group1(a), group2(b))  group, group

and falling back to an implied zero. An entry lower in this order than an
existing higher entry is an exception. An exception with the value it
overrides is redundant.

Store.Set never simply writes the literal pair: it writes to the entry
currently providing the value, creates an exception if the value differs from
a more general entry, or creates the most general entry possible if nothing
exists yet.

Store is not safe for concurrent use.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package kerning

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'kern.store'.
func tracer() tracing.Trace {
	return tracing.Select("kern.store")
}
