/*
Package feature translates between a kerning store and kerning feature code.

Compile writes the kerning of a store as the source of an OpenType 'kern'
feature. Groups become glyph classes, prefixed with '@MMK_L_' on side1 and
'@MMK_R_' on side2. Rules are written in six sections, each introduced by a
comment line:

	# glyph, glyph
	# glyph, group exceptions
	# group exceptions, glyph
	# glyph, group
	# group, glyph
	# group, group

A glyph which is member of a class may not appear as a single glyph in a
class-based rule, so glyph/group entries for grouped glyphs are enumerated
('enum pos') in the exception sections. Enumerated rules and glyph/glyph
rules take precedence over class rules in the compiled font.

With Options.SplitScripts, classes whose glyphs belong to more than one script
are split up by script, and the group/group rules are written in one subtable
per script.

Parse reads feature code. It understands the subset of the feature file
syntax needed for kerning and skips everything else it recognizes.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package feature

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'kern.feature'.
func tracer() tracing.Trace {
	return tracing.Select("kern.feature")
}
