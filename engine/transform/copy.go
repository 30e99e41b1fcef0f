package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/derekparker/trie"
	"github.com/npillmayer/kerning/core"
	"github.com/npillmayer/kerning/core/font"
	"github.com/npillmayer/kerning/engine/groups"
	"github.com/npillmayer/kerning/engine/kerning"
)

// CopySpec names the glyphs whose kerning is copied and the glyphs which
// receive it, per side. A side without replacements is left unchanged.
type CopySpec struct {
	Side1Source, Side2Source           []string
	Side1Replacement, Side2Replacement []string
}

func (cs CopySpec) sources(side groups.Side) []string {
	if side == groups.Side2 {
		return cs.Side2Source
	}
	return cs.Side1Source
}

func (cs CopySpec) replacements(side groups.Side) []string {
	if side == groups.Side2 {
		return cs.Side2Replacement
	}
	return cs.Side1Replacement
}

// Category names a class of problems found while mapping sources to
// replacements.
type Category string

// Problem categories. Unmatched and ManyToOne are errors, all others are
// warnings.
const (
	SelfMapping     Category = "self mapping"
	Unmatched       Category = "unmatched"
	ManyToOne       Category = "many to one"
	OneToMany       Category = "one to many"
	IncompleteGroup Category = "incomplete group"
)

// Match is a source key mapped to a replacement key.
type Match struct {
	Side        groups.Side
	Source      groups.Key
	Replacement groups.Key
}

func (m Match) String() string {
	return fmt.Sprintf("%s → %s", m.Source, m.Replacement)
}

// CopyReport describes how Copy mapped sources to replacements.
type CopyReport struct {
	Matched  []Match
	Warnings map[Category][]string
	Errors   map[Category][]string
}

func newCopyReport() *CopyReport {
	return &CopyReport{
		Warnings: make(map[Category][]string),
		Errors:   make(map[Category][]string),
	}
}

// HasErrors is true if the mapping has errors.
func (r *CopyReport) HasErrors() bool {
	return len(r.Errors) > 0
}

func (r *CopyReport) warn(c Category, format string, args ...interface{}) {
	r.Warnings[c] = append(r.Warnings[c], fmt.Sprintf(format, args...))
}

func (r *CopyReport) fail(c Category, format string, args ...interface{}) {
	r.Errors[c] = append(r.Errors[c], fmt.Sprintf(format, args...))
}

func (r *CopyReport) errorSummary() string {
	var cats []string
	for c, msgs := range r.Errors {
		cats = append(cats, fmt.Sprintf("%s: %s", c, strings.Join(msgs, "; ")))
	}
	sort.Strings(cats)
	return strings.Join(cats, ", ")
}

// sideMapping maps source keys to replacement keys on one side.
type sideMapping struct {
	side   groups.Side
	ix     *groups.Index
	glyphs map[string][]string   // source glyph → replacement glyphs
	groups map[string]groups.Key // elevated source group → replacement
}

// substitute returns the replacement keys for a key. Groups which could not
// be elevated are decomposed into their mapped members.
func (m *sideMapping) substitute(k groups.Key) []groups.Key {
	if k.IsGroup() {
		if r, ok := m.groups[k.Name()]; ok {
			return []groups.Key{r}
		}
		var keys []groups.Key
		seen := make(map[string]bool)
		for _, member := range m.ix.Members(k.Name()) {
			for _, r := range m.glyphs[member] {
				if !seen[r] {
					seen[r] = true
					keys = append(keys, groups.Glyph(r))
				}
			}
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
		return keys
	}
	targets := m.glyphs[k.Name()]
	keys := make([]groups.Key, len(targets))
	for i, r := range targets {
		keys[i] = groups.Glyph(r)
	}
	return keys
}

func uniqueSorted(names []string) []string {
	set := make(map[string]bool, len(names))
	var u []string
	for _, n := range names {
		if !set[n] {
			set[n] = true
			u = append(u, n)
		}
	}
	sort.Strings(u)
	return u
}

// buildMapping maps sources to replacements, choosing a strategy by
// cardinality: 1:1, N:1, 1:N, or N:M by base name.
func buildMapping(ix *groups.Index, side groups.Side, sources, replacements []string, report *CopyReport) *sideMapping {
	src, rep := uniqueSorted(sources), uniqueSorted(replacements)
	m := &sideMapping{
		side:   side,
		ix:     ix,
		glyphs: make(map[string][]string),
		groups: make(map[string]groups.Key),
	}
	switch {
	case len(src) == 0:
		report.fail(Unmatched, "%s: no source glyphs for %s", side, strings.Join(rep, " "))
		return m
	case len(src) == 1 && len(rep) == 1:
		m.glyphs[src[0]] = rep
	case len(rep) == 1:
		g, shared := commonGroup(ix, side, src)
		if !shared {
			report.fail(ManyToOne, "%s: %s → %s", side, strings.Join(src, " "), rep[0])
			return m
		}
		for _, s := range src {
			m.glyphs[s] = rep
		}
		if ix.Size(g) == len(src) {
			m.groups[g] = groups.Glyph(rep[0])
		}
	case len(src) == 1:
		report.warn(OneToMany, "%s: %s → %s", side, src[0], strings.Join(rep, " "))
		m.glyphs[src[0]] = rep
	default:
		matchByBaseName(m, src, rep, report)
	}
	for _, s := range src {
		targets := m.glyphs[s]
		kept := targets[:0:0]
		for _, r := range targets {
			if r == s {
				report.warn(SelfMapping, "%s: %s → %s", side, s, s)
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(m.glyphs, s)
		} else {
			m.glyphs[s] = kept
		}
	}
	checkGroupCoverage(m, src, report)
	elevate(m, src)
	return m
}

// matchByBaseName maps each source glyph to the replacements with the same
// base name ("A.sc" → "A.alt").
func matchByBaseName(m *sideMapping, src, rep []string, report *CopyReport) {
	t := trie.New()
	for _, r := range rep {
		t.Add(r, nil)
	}
	used := make(map[string][]string)
	for _, s := range src {
		base := font.BaseName(s)
		var candidates []string
		for _, r := range t.PrefixSearch(base) {
			if font.BaseName(r) == base {
				candidates = append(candidates, r)
			}
		}
		sort.Strings(candidates)
		switch len(candidates) {
		case 0:
			report.fail(Unmatched, "%s: no replacement for %s", m.side, s)
			continue
		case 1:
		default:
			report.warn(OneToMany, "%s: %s → %s", m.side, s, strings.Join(candidates, " "))
		}
		m.glyphs[s] = candidates
		for _, r := range candidates {
			used[r] = append(used[r], s)
		}
	}
	for _, r := range uniqueSorted(keysOf(used)) {
		if len(used[r]) > 1 {
			report.fail(ManyToOne, "%s: %s → %s", m.side, strings.Join(used[r], " "), r)
		}
	}
}

func keysOf(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// commonGroup returns the group all glyphs belong to on side, if there is one.
func commonGroup(ix *groups.Index, side groups.Side, glyphs []string) (string, bool) {
	var common string
	for i, g := range glyphs {
		grp, ok := ix.GroupOf(side, g)
		if !ok || (i > 0 && grp != common) {
			return "", false
		}
		common = grp
	}
	return common, common != ""
}

// checkGroupCoverage warns about source glyphs whose group is only partly
// part of the sources.
func checkGroupCoverage(m *sideMapping, src []string, report *CopyReport) {
	inSource := make(map[string]bool, len(src))
	for _, s := range src {
		inSource[s] = true
	}
	warned := make(map[string]bool)
	for _, s := range src {
		g, ok := m.ix.GroupOf(m.side, s)
		if !ok || warned[g] {
			continue
		}
		for _, member := range m.ix.Members(g) {
			if !inSource[member] {
				report.warn(IncompleteGroup, "%s: %s is not completely covered", m.side, g)
				warned[g] = true
				break
			}
		}
	}
}

// elevate maps a source group to a replacement group if every member maps to
// exactly one glyph and the replacements make up exactly one group.
func elevate(m *sideMapping, src []string) {
	candidates := make(map[string]bool)
	for _, s := range src {
		if g, ok := m.ix.GroupOf(m.side, s); ok {
			candidates[g] = true
		}
	}
	for g := range candidates {
		if _, ok := m.groups[g]; ok {
			continue
		}
		target, ok := replacementGroup(m, g)
		if ok && target != g {
			m.groups[g] = groups.Group(target)
		}
	}
}

func replacementGroup(m *sideMapping, g string) (string, bool) {
	members := m.ix.Members(g)
	targets := make(map[string]bool, len(members))
	var target string
	for i, member := range members {
		r := m.glyphs[member]
		if len(r) != 1 || targets[r[0]] {
			return "", false
		}
		targets[r[0]] = true
		tg, ok := m.ix.GroupOf(m.side, r[0])
		if !ok || (i > 0 && tg != target) {
			return "", false
		}
		target = tg
	}
	return target, target != "" && m.ix.Size(target) == len(targets)
}

// Copy copies the kerning of source glyphs to replacement glyphs. pairs are
// the stored entries to copy from. With replacements for both sides, only
// entries for which both sides could be substituted are copied.
//
// If the mapping of sources to replacements has errors, Copy returns an
// error together with a result holding only the report.
func Copy(st *kerning.Store, pairs []groups.Pair, cs CopySpec) (*Result, error) {
	res := newResult()
	report := newCopyReport()
	res.Report = report
	var maps [2]*sideMapping
	for _, side := range groups.Sides {
		if len(cs.replacements(side)) > 0 {
			maps[side] = buildMapping(st.Groups(), side, cs.sources(side), cs.replacements(side), report)
		}
	}
	if maps[groups.Side1] == nil && maps[groups.Side2] == nil {
		return res, core.Error(core.EINVALID, "copy: no replacement glyphs given")
	}
	for _, m := range maps {
		if m == nil {
			continue
		}
		for _, s := range uniqueSorted(keysOf(m.glyphs)) {
			for _, r := range m.glyphs[s] {
				report.Matched = append(report.Matched, Match{Side: m.side, Source: groups.Glyph(s), Replacement: groups.Glyph(r)})
			}
		}
		for _, g := range sortedGroupKeys(m.groups) {
			report.Matched = append(report.Matched, Match{Side: m.side, Source: groups.Group(g), Replacement: m.groups[g]})
		}
	}
	if report.HasErrors() {
		tracer().Errorf("copy: %s", report.errorSummary())
		return res, core.Error(core.EINVALID, "copy: %s", report.errorSummary())
	}
	var sources []groups.Pair
	stored(st, pairs, func(p groups.Pair, _ int) {
		sources = append(sources, p)
	})
	sort.Slice(sources, func(i, j int) bool { // general entries first, specific ones override
		if sources[i].Level() != sources[j].Level() {
			return sources[i].Level() > sources[j].Level()
		}
		return sources[i].Less(sources[j])
	})
	origin := make(map[groups.Pair]groups.Pair)
	for _, p := range sources {
		v, _ := st.Entry(p)
		lefts, rights := []groups.Key{p.Left}, []groups.Key{p.Right}
		if m := maps[groups.Side1]; m != nil {
			if lefts = m.substitute(p.Left); len(lefts) == 0 {
				continue
			}
		}
		if m := maps[groups.Side2]; m != nil {
			if rights = m.substitute(p.Right); len(rights) == 0 {
				continue
			}
		}
		for _, l := range lefts {
			for _, r := range rights {
				q := groups.P(l, r)
				if q == p {
					continue
				}
				if o, ok := origin[q]; ok && o.Level() == p.Level() && res.Edits[q].Value != v {
					report.warn(ManyToOne, "%s receives values from %s and %s", q, o, p)
				}
				origin[q] = p
				res.set(q, v)
			}
		}
	}
	tracer().Debugf("copy: %d matches, %d new entries", len(report.Matched), res.Len())
	return res, nil
}

func sortedGroupKeys(m map[string]groups.Key) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
