package groupedit

import (
	"sort"
	"strings"

	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/kerning/engine/groups"
	"github.com/npillmayer/kerning/engine/kerning"
)

// ApplyKerning commits the transaction: staged groups and the reconciled
// kerning replace groups and kerning of the live store. It fails without
// changing anything if a record still has an unresolved conflict.
//
// If ApplyGroups has not been called since the last mutation, ApplyKerning
// calls it.
func (tx *Transaction) ApplyKerning() (Change, error) {
	if tx.state == txClosed {
		return Change{}, core.Error(core.EPOLICY, "group transaction already closed")
	}
	if tx.state != txGroupsApplied {
		tx.ApplyGroups()
	}
	records := tx.Records()
	var open []string
	for _, rec := range records {
		if rec.HaveConflict {
			open = append(open, rec.SuperPair.String())
		}
	}
	if len(open) > 0 {
		return Change{}, core.Error(core.ECONFLICT, "unresolved kerning conflicts for %s",
			strings.Join(open, ", "))
	}
	work := tx.staged.Clone()
	for _, rec := range records {
		for k, sub := range rec.Pairs {
			if !sub.Implied {
				work.DeleteEntry(k)
			}
		}
	}
	for _, rec := range records {
		if rec.FinalValue != nil {
			work.WriteEntry(rec.SuperPair, *rec.FinalValue)
		}
	}
	var exceptions []groups.Pair
	values := make(map[groups.Pair]int)
	for _, rec := range records {
		for k, sub := range rec.Pairs {
			if k != rec.SuperPair && sub.Resolution == Exception {
				exceptions = append(exceptions, k)
				values[k] = sub.Value
			}
		}
	}
	sort.Slice(exceptions, func(i, j int) bool { // more general entries first
		if exceptions[i].Level() != exceptions[j].Level() {
			return exceptions[i].Level() > exceptions[j].Level()
		}
		return exceptions[i].Less(exceptions[j])
	})
	for _, k := range exceptions {
		work.WriteEntry(k, values[k])
	}
	compressed := compressExceptions(work, exceptions)
	tx.live.Replace(work)
	change := tx.changed
	tracer().Infof("group transaction committed: %d super-pairs, %d exceptions, %d compressed",
		len(records), len(exceptions), compressed)
	tx.staged, tx.held, tx.records = nil, nil, nil
	tx.state = txClosed
	return change, nil
}

type groupRun struct {
	group, glyph string
	value        int
}

// compressExceptions replaces glyph exceptions which agree across a whole
// group by a single entry for the group. Returns the number of entries
// created.
func compressExceptions(st *kerning.Store, exceptions []groups.Pair) int {
	ix := st.Groups()
	n := 0
	// (G1, b) for all (a, b) with a ∈ G1
	runs := make(map[groupRun][]groups.Pair)
	for _, p := range exceptions {
		if !p.IsGlyphPair() {
			continue
		}
		v, ok := st.Entry(p)
		if !ok {
			continue
		}
		if g1, ok := ix.GroupOf(groups.Side1, p.Left.Name()); ok {
			r := groupRun{group: g1, glyph: p.Right.Name(), value: v}
			runs[r] = append(runs[r], p)
		}
	}
	for _, r := range sortedRuns(runs) {
		members := runs[r]
		if len(members) != ix.Size(r.group) {
			continue
		}
		for _, p := range members {
			st.DeleteEntry(p)
		}
		st.SetEntry(groups.P(groups.Group(r.group), groups.Glyph(r.glyph)), r.value)
		n++
	}
	// (a, G2) for all (a, b) with b ∈ G2
	runs = make(map[groupRun][]groups.Pair)
	for _, p := range exceptions {
		if !p.IsGlyphPair() {
			continue
		}
		v, ok := st.Entry(p)
		if !ok {
			continue
		}
		if g2, ok := ix.GroupOf(groups.Side2, p.Right.Name()); ok {
			r := groupRun{group: g2, glyph: p.Left.Name(), value: v}
			runs[r] = append(runs[r], p)
		}
	}
	for _, r := range sortedRuns(runs) {
		members := runs[r]
		if len(members) != ix.Size(r.group) || shadowed(st, r) {
			continue
		}
		for _, p := range members {
			st.DeleteEntry(p)
		}
		st.SetEntry(groups.P(groups.Glyph(r.glyph), groups.Group(r.group)), r.value)
		n++
	}
	return n
}

// shadowed is true if a group/glyph entry would take precedence over the
// glyph/group entry for some glyph pair of a run.
func shadowed(st *kerning.Store, r groupRun) bool {
	g1, ok := st.Groups().GroupOf(groups.Side1, r.glyph)
	if !ok {
		return false
	}
	for _, m := range st.Groups().Members(r.group) {
		if _, ok := st.Entry(groups.P(groups.Group(g1), groups.Glyph(m))); ok {
			return true
		}
	}
	return false
}

func sortedRuns(runs map[groupRun][]groups.Pair) []groupRun {
	keys := make([]groupRun, 0, len(runs))
	for r := range runs {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].group != keys[j].group {
			return keys[i].group < keys[j].group
		}
		if keys[i].glyph != keys[j].glyph {
			return keys[i].glyph < keys[j].glyph
		}
		return keys[i].value < keys[j].value
	})
	return keys
}
