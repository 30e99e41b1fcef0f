package groups

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xpath"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/kerning/core"
)

var groupsXPath = xpath.MustCompile("/groups/group")

// WriteXML writes all groups of an index in the group file format:
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<groups>
//	  <group name="public.kern1.O" side="side1" type="kerning">
//	    <glyphs>
//	      O
//	      Q
//	    </glyphs>
//	  </group>
//	</groups>
//
// Groups are written sorted by side and name, glyphs sorted by name.
func WriteXML(w io.Writer, ix *Index) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(xml.Header[:len(xml.Header)-1])
	bw.WriteString("\n<groups>\n")
	for _, g := range ix.All() {
		typ := g.Type
		if typ == "" {
			typ = KerningType
		}
		fmt.Fprintf(bw, `  <group name="%s" side="%s" type="%s"`, escape(g.Name), g.Side, escape(typ))
		if g.Color != nil {
			fmt.Fprintf(bw, ` color="%s"`, formatColor(*g.Color))
		}
		bw.WriteString(">\n    <glyphs>\n")
		sorted := treeset.NewWithStringComparator()
		for _, glyph := range g.Glyphs {
			sorted.Add(glyph)
		}
		for _, glyph := range sorted.Values() {
			fmt.Fprintf(bw, "      %s\n", escape(glyph.(string)))
		}
		bw.WriteString("    </glyphs>\n  </group>\n")
	}
	bw.WriteString("</groups>\n")
	return bw.Flush()
}

// ReadXML reads a group file into a new index.
func ReadXML(r io.Reader) (*Index, error) {
	doc, err := parseXML(r)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot parse group file")
	}
	ix := NewIndex()
	iter := groupsXPath.Select(newNavigator(doc))
	for iter.MoveNext() {
		node, err := currentNode(iter.Current())
		if err != nil {
			return nil, core.WrapError(err, core.EINTERNAL, "group file navigation")
		}
		g, err := readGroup(node)
		if err != nil {
			return nil, err
		}
		if !g.IsKerning() {
			if err = ix.AddReferenceGroup(g); err != nil {
				return nil, err
			}
			continue
		}
		if _, err = ix.SetGroup(g.Side, g.Name, g.Glyphs); err != nil {
			return nil, err
		}
		if g.Color != nil {
			ix.SetColor(g.Name, *g.Color)
		}
	}
	tracer().Infof("read %d side1 and %d side2 kerning groups",
		len(ix.members[Side1]), len(ix.members[Side2]))
	return ix, nil
}

func readGroup(node *xmlNode) (GroupDef, error) {
	g := GroupDef{}
	g.Name, _ = node.attr("name")
	if g.Name == "" {
		return g, core.Error(core.EINVALID, "group without name")
	}
	g.Type, _ = node.attr("type")
	if g.Type == "" {
		g.Type = KerningType
	}
	if s, ok := node.attr("side"); ok {
		side, ok := ParseSide(s)
		if !ok {
			return g, core.Error(core.EINVALID, "group %s has invalid side %q", g.Name, s)
		}
		g.Side = side
	} else if strings.HasPrefix(g.Name, Side2Prefix) {
		g.Side = Side2
	} else if !strings.HasPrefix(g.Name, Side1Prefix) && g.IsKerning() {
		return g, core.Error(core.EINVALID, "cannot determine side of group %s", g.Name)
	}
	if c, ok := node.attr("color"); ok {
		color, err := parseColor(c)
		if err != nil {
			return g, core.WrapError(err, core.EINVALID, "group %s has invalid color %q", g.Name, c)
		}
		g.Color = &color
	}
	for _, child := range node.children {
		if child.kind == xpath.ElementNode && child.name == "glyphs" {
			g.Glyphs = append(g.Glyphs, strings.Fields(child.innerText())...)
		}
	}
	return g, nil
}

func formatColor(c Color) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return f(c.R) + " " + f(c.G) + " " + f(c.B) + " " + f(c.A)
}

func parseColor(s string) (Color, error) {
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return Color{}, fmt.Errorf("color needs 4 components, has %d", len(fields))
	}
	var v [4]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Color{}, err
		}
		if x < 0 || x > 1 {
			return Color{}, fmt.Errorf("color component %g out of range", x)
		}
		v[i] = x
	}
	return Color{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}

func escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
