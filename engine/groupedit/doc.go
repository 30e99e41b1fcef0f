/*
Package groupedit implements transactions for editing kerning groups.

Kerning entries are keyed by names of glyphs and groups. Moving a glyph
from one group to another changes which stored entries its pairs resolve to,
and may bring together values which used to be independent. A Transaction
therefore does not touch the live kerning store. It edits a staged copy of
the groups and holds back every kerning entry affected by the edit. On
commit, the held entries are sorted by the super-pair they will end up
under and reconciled:

	records, needsDecision := tx.ApplyGroups()
	if needsDecision {
		// inspect records, call SetResolution or AcceptDefaults
	}
	change, err := tx.ApplyKerning()

A transaction is committed or cancelled exactly once. Mutating calls return
a Change listing the groups and glyphs a client should refresh.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package groupedit

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'kern.edit'.
func tracer() tracing.Trace {
	return tracing.Select("kern.edit")
}
