package groupedit

import (
	"github.com/npillmayer/kerning/engine/groups"
)

type groupID int

const noGroup groupID = -1

// groupRecord is the identity of a group during a transaction. A rename
// creates a new record with the old one as its ancestor, so a renamed group
// can still be traced back to the group it was before the transaction.
type groupRecord struct {
	id       groupID
	name     string
	side     groups.Side
	ancestor groupID
	removed  bool
}

type arena struct {
	records  []*groupRecord
	live     map[string]groupID // current name → record
	original map[string]groupID // name at transaction start → record
}

func newArena(ix *groups.Index) *arena {
	a := &arena{
		live:     make(map[string]groupID),
		original: make(map[string]groupID),
	}
	for _, side := range groups.Sides {
		for _, name := range ix.Groups(side) {
			id := a.add(name, side, noGroup)
			a.original[name] = id
		}
	}
	return a
}

func (a *arena) add(name string, side groups.Side, ancestor groupID) groupID {
	id := groupID(len(a.records))
	a.records = append(a.records, &groupRecord{
		id:       id,
		name:     name,
		side:     side,
		ancestor: ancestor,
	})
	a.live[name] = id
	return id
}

func (a *arena) rename(from, to string) {
	id, ok := a.live[from]
	if !ok {
		return
	}
	r := a.records[id]
	delete(a.live, from)
	a.add(to, r.side, id)
}

func (a *arena) remove(name string) {
	if id, ok := a.live[name]; ok {
		a.records[id].removed = true
		delete(a.live, name)
	}
}

// root returns the oldest ancestor of a record.
func (a *arena) root(id groupID) groupID {
	for a.records[id].ancestor != noGroup {
		id = a.records[id].ancestor
	}
	return id
}

// oldestName returns the name a live group had at transaction start, or its
// own name for a group created during the transaction.
func (a *arena) oldestName(name string) string {
	id, ok := a.live[name]
	if !ok {
		return name
	}
	return a.records[a.root(id)].name
}

// existedBefore is true if a live group, possibly under a different name,
// existed at transaction start.
func (a *arena) existedBefore(name string) bool {
	id, ok := a.live[name]
	if !ok {
		return false
	}
	root := a.records[a.root(id)]
	oid, ok := a.original[root.name]
	return ok && oid == root.id
}

// identity is a key for "the same thing" across renames: glyphs are
// identified by their name, groups by the root of their record.
type identity struct {
	glyph string
	group groupID
}

func (a *arena) liveIdentity(k groups.Key) identity {
	if k.IsGroup() {
		if id, ok := a.live[k.Name()]; ok {
			return identity{group: a.root(id)}
		}
		return identity{glyph: "@" + k.Name(), group: noGroup}
	}
	return identity{glyph: k.Name(), group: noGroup}
}

func (a *arena) originalIdentity(name string) identity {
	if id, ok := a.original[name]; ok {
		return identity{group: id}
	}
	return identity{glyph: "@" + name, group: noGroup}
}
