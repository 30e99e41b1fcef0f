package groupedit

import (
	"sort"

	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/kerning/core/font"
	"github.com/npillmayer/kerning/engine/groups"
	"github.com/npillmayer/kerning/engine/kerning"
)

// Change lists the groups and glyphs affected by a mutation.
type Change struct {
	Groups []string
	Glyphs []string
}

// IsEmpty is true if nothing changed.
func (c Change) IsEmpty() bool {
	return len(c.Groups) == 0 && len(c.Glyphs) == 0
}

func (c Change) merge(other Change) Change {
	return Change{
		Groups: union(c.Groups, other.Groups),
		Glyphs: union(c.Glyphs, other.Glyphs),
	}
}

func union(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		set[s] = true
	}
	u := make([]string, 0, len(set))
	for s := range set {
		u = append(u, s)
	}
	sort.Strings(u)
	return u
}

type txState int8

const (
	txOpen txState = iota
	txGroupsApplied
	txClosed
)

// Transaction is a staged edit of the kerning groups of a store.
//
// The live store is not modified before ApplyKerning. A Transaction is not
// safe for concurrent use, and no other mutation of the live store may
// happen while a transaction is open.
type Transaction struct {
	live     *kerning.Store
	model    font.Model
	original *groups.Index      // groups at transaction start
	staged   *kerning.Store     // staged groups and the entries not held
	held     map[groups.Pair]int // entries held back while membership is in flux
	arena    *arena
	records  map[groups.Pair]*Record
	changed  Change
	state    txState
}

// Begin starts a group transaction on a store. model is used for
// validating glyph names and for guessing conflict resolutions; it may be
// nil.
func Begin(st *kerning.Store, model font.Model) *Transaction {
	tx := &Transaction{
		live:     st,
		model:    model,
		original: st.Groups().Clone(),
		staged:   st.Clone(),
		held:     make(map[groups.Pair]int),
	}
	tx.arena = newArena(tx.original)
	tracer().Debugf("begin group transaction with %d entries", st.Len())
	return tx
}

// Groups returns the staged group index. Clients must not modify it.
func (tx *Transaction) Groups() *groups.Index {
	return tx.staged.Groups()
}

// Held returns the number of entries currently held back.
func (tx *Transaction) Held() int {
	return len(tx.held)
}

// IsNewGroup is true for a group created during the transaction.
func (tx *Transaction) IsNewGroup(name string) bool {
	_, ok := tx.arena.live[name]
	return ok && !tx.arena.existedBefore(name)
}

// OriginalName returns the name a group had at transaction start.
func (tx *Transaction) OriginalName(name string) string {
	return tx.arena.oldestName(name)
}

func (tx *Transaction) checkOpen() error {
	if tx.state == txClosed {
		return core.Error(core.EPOLICY, "group transaction already closed")
	}
	tx.state = txOpen
	tx.records = nil
	return nil
}

func (tx *Transaction) checkGlyphs(glyphs []string) error {
	if tx.model == nil {
		return nil
	}
	for _, g := range glyphs {
		if !tx.model.GlyphExists(g) {
			return core.Error(core.EMISSING, "glyph %q does not exist", g)
		}
	}
	return nil
}

// kerningGroup returns the side of an existing, mutable kerning group.
func (tx *Transaction) kerningGroup(name string) (groups.Side, error) {
	ix := tx.staged.Groups()
	if ix.IsReference(name) {
		return groups.Side1, core.Error(core.EPOLICY, "group %s is a reference group", name)
	}
	side, ok := ix.SideOf(name)
	if !ok {
		return side, core.Error(core.EMISSING, "group %s does not exist", name)
	}
	return side, nil
}

// NewGroup creates a kerning group. Glyphs which are members of another group
// on the same side are moved to the new group. A bare name is prefixed with
// the side's group prefix.
func (tx *Transaction) NewGroup(side groups.Side, name string, glyphs []string) (Change, error) {
	if err := tx.checkOpen(); err != nil {
		return Change{}, err
	}
	name = groups.GroupName(side, name)
	ix := tx.staged.Groups()
	if ix.IsReference(name) {
		return Change{}, core.Error(core.EPOLICY, "group %s is a reference group", name)
	}
	if ix.HasGroup(name) {
		return Change{}, core.Error(core.EINVALID, "group %s already exists", name)
	}
	if err := tx.checkGlyphs(glyphs); err != nil {
		return Change{}, err
	}
	tx.hold(side, glyphs, []string{name})
	changed, err := ix.SetGroup(side, name, glyphs)
	if err != nil {
		return Change{}, err
	}
	tx.arena.add(name, side, noGroup)
	tx.hold(side, nil, changed)
	c := Change{Groups: union(changed, nil), Glyphs: union(glyphs, nil)}
	tracer().Debugf("new group %s with %d glyphs", name, len(glyphs))
	return tx.record(c), nil
}

// AddToGroup adds glyphs to a kerning group.
func (tx *Transaction) AddToGroup(name string, glyphs []string) (Change, error) {
	if err := tx.checkOpen(); err != nil {
		return Change{}, err
	}
	side, err := tx.kerningGroup(name)
	if err != nil {
		return Change{}, err
	}
	if err = tx.checkGlyphs(glyphs); err != nil {
		return Change{}, err
	}
	ix := tx.staged.Groups()
	members := append(ix.Members(name), glyphs...)
	tx.hold(side, glyphs, []string{name})
	changed, err := ix.SetGroup(side, name, members)
	if err != nil {
		return Change{}, err
	}
	tx.hold(side, nil, changed)
	return tx.record(Change{Groups: union(changed, nil), Glyphs: union(glyphs, nil)}), nil
}

// RemoveFromGroup removes glyphs from a kerning group. The glyphs do not keep
// the kerning they inherited from the group.
func (tx *Transaction) RemoveFromGroup(name string, glyphs []string) (Change, error) {
	if err := tx.checkOpen(); err != nil {
		return Change{}, err
	}
	side, err := tx.kerningGroup(name)
	if err != nil {
		return Change{}, err
	}
	ix := tx.staged.Groups()
	drop := make(map[string]bool, len(glyphs))
	for _, g := range glyphs {
		if grp, ok := ix.GroupOf(side, g); !ok || grp != name {
			return Change{}, core.Error(core.EMISSING, "glyph %s is not a member of %s", g, name)
		}
		drop[g] = true
	}
	tx.hold(side, glyphs, []string{name})
	var members []string
	for _, g := range ix.Members(name) {
		if !drop[g] {
			members = append(members, g)
		}
	}
	if _, err = ix.SetGroup(side, name, members); err != nil {
		return Change{}, err
	}
	return tx.record(Change{Groups: []string{name}, Glyphs: union(glyphs, nil)}), nil
}

// RemoveGroup removes a kerning group. With decompose set, entries of the
// group are rewritten into one entry per former member, unless a more
// specific entry for the member exists. Otherwise they are dropped.
func (tx *Transaction) RemoveGroup(name string, decompose bool) (Change, error) {
	if err := tx.checkOpen(); err != nil {
		return Change{}, err
	}
	side, err := tx.kerningGroup(name)
	if err != nil {
		return Change{}, err
	}
	ix := tx.staged.Groups()
	members := ix.Members(name)
	tx.hold(side, nil, []string{name})
	gk := groups.Group(name)
	var affected []groups.Pair
	for p := range tx.held {
		if p.Key(side) == gk {
			affected = append(affected, p)
		}
	}
	groups.SortPairs(affected)
	for _, p := range affected {
		v := tx.held[p]
		delete(tx.held, p)
		if !decompose {
			tracer().Debugf("drop %s = %d", p, v)
			continue
		}
		for _, m := range members {
			q := p.With(side, groups.Glyph(m))
			if _, ok := tx.held[q]; ok {
				continue
			}
			if _, ok := tx.staged.Entry(q); ok {
				continue
			}
			tx.held[q] = v
		}
	}
	ix.RemoveGroup(name)
	tx.arena.remove(name)
	tracer().Debugf("removed group %s, decompose = %v", name, decompose)
	return tx.record(Change{Groups: []string{name}, Glyphs: union(members, nil)}), nil
}

// RenameGroup renames a kerning group. Entries of the group, held or not, are
// rewritten to the new name.
func (tx *Transaction) RenameGroup(name, newName string) (Change, error) {
	if err := tx.checkOpen(); err != nil {
		return Change{}, err
	}
	side, err := tx.kerningGroup(name)
	if err != nil {
		return Change{}, err
	}
	newName = groups.GroupName(side, newName)
	ix := tx.staged.Groups()
	if newName == name {
		return Change{}, nil
	}
	if ix.HasGroup(newName) || ix.IsReference(newName) {
		return Change{}, core.Error(core.EINVALID, "group %s already exists", newName)
	}
	members := ix.Members(name)
	color, hasColor := ix.Color(name)
	ix.RemoveGroup(name)
	if _, err = ix.SetGroup(side, newName, members); err != nil {
		return Change{}, err
	}
	if hasColor {
		ix.SetColor(newName, color)
	}
	from, to := groups.Group(name), groups.Group(newName)
	for p, v := range tx.held {
		if p.Key(side) == from {
			delete(tx.held, p)
			tx.held[p.With(side, to)] = v
		}
	}
	for _, p := range tx.staged.Entries() {
		if p.Key(side) == from {
			v, _ := tx.staged.Entry(p)
			tx.staged.DeleteEntry(p)
			tx.staged.SetEntry(p.With(side, to), v)
		}
	}
	tx.arena.rename(name, newName)
	tracer().Debugf("renamed group %s to %s (originally %s)", name, newName, tx.arena.oldestName(newName))
	return tx.record(Change{Groups: union([]string{name, newName}, nil), Glyphs: union(members, nil)}), nil
}

// hold moves staged entries into the held ledger: every entry whose key on
// side is one of the glyphs or groups, or a member of one of the groups.
func (tx *Transaction) hold(side groups.Side, glyphs []string, names []string) {
	ix := tx.staged.Groups()
	touched := make(map[groups.Key]bool)
	for _, g := range glyphs {
		touched[groups.Glyph(g)] = true
	}
	for _, n := range names {
		touched[groups.Group(n)] = true
		for _, m := range ix.Members(n) {
			touched[groups.Glyph(m)] = true
		}
	}
	n := 0
	for _, p := range tx.staged.Entries() {
		if touched[p.Key(side)] {
			v, _ := tx.staged.Entry(p)
			tx.staged.DeleteEntry(p)
			tx.held[p] = v
			n++
		}
	}
	if n > 0 {
		tracer().Debugf("holding %d more entries", n)
	}
}

func (tx *Transaction) record(c Change) Change {
	tx.changed = tx.changed.merge(c)
	return c
}

// Cancel drops the staged edits. The live store is left untouched.
func (tx *Transaction) Cancel() {
	tx.staged = nil
	tx.held = nil
	tx.records = nil
	tx.state = txClosed
	tracer().Debugf("group transaction cancelled")
}
