package groupedit

import (
	"sort"

	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/kerning/engine/groups"
)

// Resolution tells what to do with a sub-pair of a super-pair on commit.
type Resolution int8

const (
	// GroupValue: the sub-pair takes the super-pair's final value.
	GroupValue Resolution = iota
	// Exception: the sub-pair keeps its own value as an exception.
	Exception
	// FollowGroup: the sub-pair's value was an implied zero and is dropped
	// in favour of the final value.
	FollowGroup
)

func (r Resolution) String() string {
	switch r {
	case GroupValue:
		return "group value"
	case Exception:
		return "exception"
	case FollowGroup:
		return "follow group"
	}
	return "<unknown>"
}

// SubPair is a pair observed under a super-pair.
type SubPair struct {
	Value      int
	Implied    bool // not stored, the value is an implied zero
	Resolution Resolution
}

// Record is the conflict resolution data for one super-pair.
type Record struct {
	SuperPair    groups.Pair
	InitialValue *int // value of the super-pair at transaction start
	FinalValue   *int // value to write for the super-pair, nil for none
	HaveConflict bool
	Pairs        map[groups.Pair]SubPair
}

// SortedPairs returns the sub-pairs of a record, sorted.
func (rec *Record) SortedPairs() []groups.Pair {
	keys := make([]groups.Pair, 0, len(rec.Pairs))
	for k := range rec.Pairs {
		keys = append(keys, k)
	}
	groups.SortPairs(keys)
	return keys
}

// retag assigns a resolution to every sub-pair, relative to the value the
// sub-pair falls back to after commit. More general sub-pairs are tagged
// first, as their tags decide what the more specific ones fall back to.
func (rec *Record) retag() {
	for _, k := range rec.generalFirst() {
		rec.tag(k)
	}
}

// retagBelow re-tags the sub-pairs which fall back to k.
func (rec *Record) retagBelow(k groups.Pair) {
	for _, q := range rec.generalFirst() {
		for _, c := range rec.between(q) {
			if c == k {
				rec.tag(q)
			}
		}
	}
}

func (rec *Record) tag(k groups.Pair) {
	sub := rec.Pairs[k]
	v, ok := rec.fallback(k)
	switch {
	case ok && sub.Value == v:
		sub.Resolution = GroupValue
	case sub.Implied:
		sub.Resolution = FollowGroup
	default:
		sub.Resolution = Exception
	}
	rec.Pairs[k] = sub
}

// fallback returns the value a sub-pair resolves to after commit if it is
// not written itself: the nearest more general sub-pair kept as an
// exception, else the final value.
func (rec *Record) fallback(k groups.Pair) (int, bool) {
	for _, c := range rec.between(k) {
		if sub, ok := rec.Pairs[c]; ok && !sub.Implied && sub.Resolution == Exception {
			return sub.Value, true
		}
	}
	if rec.FinalValue == nil {
		return 0, false
	}
	return *rec.FinalValue, true
}

// between lists the pairs strictly between k and the super-pair, in
// resolution order.
func (rec *Record) between(k groups.Pair) []groups.Pair {
	sp := rec.SuperPair
	var c []groups.Pair
	for _, q := range []groups.Pair{groups.P(sp.Left, k.Right), groups.P(k.Left, sp.Right)} {
		if q != k && q != sp {
			c = append(c, q)
		}
	}
	return c
}

func (rec *Record) generalFirst() []groups.Pair {
	keys := rec.SortedPairs()
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Level() > keys[j].Level()
	})
	return keys
}

type entryKind int8

const (
	existingPair entryKind = iota
	existingException
	addedPair
)

type observation struct {
	key   groups.Pair
	value int
	kind  entryKind
}

// classify tells if an entry lived under the same super-pair before the
// transaction. Group identity survives renames.
func (tx *Transaction) classify(p, super groups.Pair) entryKind {
	for _, side := range groups.Sides {
		if tx.originalLift(side, p.Key(side)) != tx.arena.liveIdentity(super.Key(side)) {
			return addedPair
		}
	}
	if p == super {
		return existingPair
	}
	return existingException
}

func (tx *Transaction) originalLift(side groups.Side, k groups.Key) identity {
	if k.IsGroup() {
		return tx.arena.liveIdentity(k)
	}
	if g, ok := tx.original.GroupOf(side, k.Name()); ok {
		return tx.arena.originalIdentity(g)
	}
	return identity{glyph: k.Name(), group: noGroup}
}

// ApplyGroups computes a conflict resolution record for every super-pair
// touched by the transaction. needsDecision is true if any record has a
// conflict. ApplyGroups does not change the live store and may be called
// repeatedly; every call discards earlier resolutions.
func (tx *Transaction) ApplyGroups() (records []*Record, needsDecision bool) {
	if tx.state == txClosed {
		return nil, false
	}
	bySuper := make(map[groups.Pair][]observation)
	for p, v := range tx.held {
		sp := tx.staged.SuperPair(p)
		bySuper[sp] = append(bySuper[sp], observation{key: p, value: v, kind: tx.classify(p, sp)})
	}
	for _, p := range tx.staged.Entries() {
		sp := tx.staged.SuperPair(p)
		if obs, ok := bySuper[sp]; ok {
			v, _ := tx.staged.Entry(p)
			bySuper[sp] = append(obs, observation{key: p, value: v, kind: tx.classify(p, sp)})
		}
	}
	tx.records = make(map[groups.Pair]*Record, len(bySuper))
	rk := tx.newRanker()
	for sp, obs := range bySuper {
		rec := tx.resolve(sp, obs, rk)
		tx.records[sp] = rec
		needsDecision = needsDecision || rec.HaveConflict
	}
	records = tx.Records()
	tx.state = txGroupsApplied
	tracer().Infof("group transaction: %d super-pairs, decision needed = %v", len(records), needsDecision)
	return records, needsDecision
}

func (tx *Transaction) resolve(sp groups.Pair, obs []observation, rk *ranker) *Record {
	rec := &Record{SuperPair: sp, Pairs: make(map[groups.Pair]SubPair, len(obs))}
	var added, exceptions []int
	for _, o := range obs {
		rec.Pairs[o.key] = SubPair{Value: o.value}
		switch o.kind {
		case existingPair:
			v := o.value
			rec.InitialValue = &v
		case existingException:
			exceptions = append(exceptions, o.value)
		case addedPair:
			added = append(added, o.value)
		}
	}
	if len(added) == 0 {
		rec.FinalValue = rec.InitialValue
		rec.retag()
		return rec
	}
	values := added
	if rec.InitialValue != nil {
		values = append(values, *rec.InitialValue)
	} else {
		values = append(values, exceptions...)
	}
	agree := true
	for _, v := range values[1:] {
		agree = agree && v == values[0]
	}
	uncovered := tx.uncovered(rec)
	if agree && (rec.InitialValue != nil || len(uncovered) == 0) {
		v := values[0]
		rec.FinalValue = &v
		rec.retag()
		tracer().Debugf("%s: no conflict, value %d", sp, v)
		return rec
	}
	rec.HaveConflict = true
	if rec.InitialValue == nil {
		for _, gp := range uncovered {
			rec.Pairs[gp] = SubPair{Implied: true}
		}
	}
	best := rk.choose(rec)
	v := rec.Pairs[best].Value
	rec.FinalValue = &v
	rec.retag()
	tracer().Debugf("%s: conflict, guessing %d from %s", sp, v, best)
	return rec
}

// uncovered lists the glyph pairs under a record's super-pair which no
// observed entry covers.
func (tx *Transaction) uncovered(rec *Record) []groups.Pair {
	covered := make(map[groups.Pair]bool)
	for k := range rec.Pairs {
		for _, gp := range tx.staged.GlyphPairs(k) {
			covered[gp] = true
		}
	}
	var missing []groups.Pair
	for _, gp := range tx.staged.GlyphPairs(rec.SuperPair) {
		if !covered[gp] {
			missing = append(missing, gp)
		}
	}
	return missing
}

// Records returns the records computed by ApplyGroups, sorted by super-pair.
func (tx *Transaction) Records() []*Record {
	records := make([]*Record, 0, len(tx.records))
	for _, rec := range tx.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].SuperPair.Less(records[j].SuperPair)
	})
	return records
}

// Record returns the record for a super-pair.
func (tx *Transaction) Record(superPair groups.Pair) (*Record, bool) {
	rec, ok := tx.records[superPair]
	return rec, ok
}

// SetResolution sets the resolution of a sub-pair and marks the record as
// resolved. Choosing GroupValue for a sub-pair with a value different from
// the final value makes its value the final value and re-tags all other
// sub-pairs. Changing the resolution of a group/glyph or glyph/group
// sub-pair re-tags the glyph pairs below it.
func (tx *Transaction) SetResolution(superPair, subPair groups.Pair, res Resolution) error {
	if tx.state != txGroupsApplied {
		return core.Error(core.EPOLICY, "resolutions may only be set after ApplyGroups")
	}
	rec, ok := tx.records[superPair]
	if !ok {
		return core.Error(core.EMISSING, "no conflict record for %s", superPair)
	}
	sub, ok := rec.Pairs[subPair]
	if !ok {
		return core.Error(core.EMISSING, "%s is not a sub-pair of %s", subPair, superPair)
	}
	switch res {
	case GroupValue:
		if rec.FinalValue == nil || *rec.FinalValue != sub.Value {
			v := sub.Value
			rec.FinalValue = &v
			rec.retag()
			break
		}
		sub.Resolution = res
		rec.Pairs[subPair] = sub
		rec.retagBelow(subPair)
	case Exception, FollowGroup:
		sub.Resolution = res
		rec.Pairs[subPair] = sub
		rec.retagBelow(subPair)
	default:
		return core.Error(core.EINVALID, "invalid resolution %d", res)
	}
	rec.HaveConflict = false
	tracer().Debugf("%s: %s set to %s", superPair, subPair, res)
	return nil
}

// AcceptDefaults accepts the guessed resolution for all records.
func (tx *Transaction) AcceptDefaults() {
	for _, rec := range tx.records {
		rec.HaveConflict = false
	}
}
