package feature

import (
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/kerning/core/font"
)

// class is a glyph class of the feature code. Without script splitting every
// group has exactly one class.
type class struct {
	name   string // without '@'
	script font.ScriptTag
	glyphs []string
}

// splitByScript partitions the members of a group by script. A group with
// glyphs of a single script is not split.
func splitByScript(name string, members []string, model font.Model) []class {
	byScript := treemap.NewWithStringComparator()
	for _, g := range members {
		tag := model.ScriptOf(g).String()
		set, ok := byScript.Get(tag)
		if !ok {
			set = treeset.NewWithStringComparator()
			byScript.Put(tag, set)
		}
		set.(*treeset.Set).Add(g)
	}
	if byScript.Size() == 1 {
		it := byScript.Iterator()
		it.First()
		return []class{{
			name:   name,
			script: font.T(it.Key().(string)),
			glyphs: setValues(it.Value().(*treeset.Set)),
		}}
	}
	classes := make([]class, 0, byScript.Size())
	it := byScript.Iterator()
	for it.Next() {
		tag := it.Key().(string)
		classes = append(classes, class{
			name:   name + "_" + tag,
			script: font.T(tag),
			glyphs: setValues(it.Value().(*treeset.Set)),
		})
	}
	tracer().Debugf("class @%s split into %d scripts", name, len(classes))
	return classes
}

// blockScript selects the subtable for a group/group rule. Rules with a
// script-neutral class go with the script of the other class; rules mixing
// two different scripts are common.
func blockScript(left, right font.ScriptTag) font.ScriptTag {
	switch {
	case left == right:
		return left
	case left == font.DFLT:
		return right
	case right == font.DFLT:
		return left
	}
	return font.DFLT
}

func setValues(set *treeset.Set) []string {
	values := set.Values()
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.(string)
	}
	return names
}
