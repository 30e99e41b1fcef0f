package groups

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/antchfx/xpath"
)

// xmlNode is a minimal DOM for group files. Group files are small and flat,
// so we keep the whole document in memory and let XPath select from it.
type xmlNode struct {
	kind     xpath.NodeType
	name     string
	attrs    []xml.Attr
	text     string
	parent   *xmlNode
	children []*xmlNode
	pos      int // index in parent's children
}

func (n *xmlNode) append(child *xmlNode) {
	child.parent = n
	child.pos = len(n.children)
	n.children = append(n.children, child)
}

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *xmlNode) innerText() string {
	if n.kind == xpath.TextNode {
		return n.text
	}
	var b strings.Builder
	for _, c := range n.children {
		if c.kind == xpath.TextNode || c.kind == xpath.ElementNode {
			b.WriteString(c.innerText())
		}
	}
	return b.String()
}

// parseXML reads an XML document into a node tree.
func parseXML(r io.Reader) (*xmlNode, error) {
	root := &xmlNode{kind: xpath.RootNode}
	current := root
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{kind: xpath.ElementNode, name: t.Name.Local}
			n.attrs = append(n.attrs, t.Attr...)
			current.append(n)
			current = n
		case xml.EndElement:
			if current.parent == nil {
				return nil, errors.New("unbalanced end element " + t.Name.Local)
			}
			current = current.parent
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				current.append(&xmlNode{kind: xpath.TextNode, text: string(t)})
			}
		case xml.Comment:
			current.append(&xmlNode{kind: xpath.CommentNode, text: string(t)})
		}
	}
	if current != root {
		return nil, errors.New("unexpected end of document")
	}
	return root, nil
}

// --- Navigator -------------------------------------------------------------

// navigator implements xpath.NodeNavigator for an xmlNode tree.
type navigator struct {
	root, current *xmlNode
	attr          int // attributes index
}

var _ xpath.NodeNavigator = &navigator{}

func newNavigator(root *xmlNode) *navigator {
	return &navigator{root: root, current: root, attr: -1}
}

// currentNode extracts the node a navigator points to.
func currentNode(nav xpath.NodeNavigator) (*xmlNode, error) {
	mynav, ok := nav.(*navigator)
	if !ok {
		return nil, errors.New("navigator is not a group file navigator")
	}
	return mynav.current, nil
}

func (nav *navigator) NodeType() xpath.NodeType {
	if nav.current.kind == xpath.ElementNode && nav.attr != -1 {
		return xpath.AttributeNode
	}
	return nav.current.kind
}

func (nav *navigator) LocalName() string {
	if nav.attr != -1 {
		return nav.current.attrs[nav.attr].Name.Local
	}
	return nav.current.name
}

func (*navigator) Prefix() string {
	return ""
}

func (nav *navigator) Value() string {
	switch nav.current.kind {
	case xpath.CommentNode:
		return nav.current.text
	case xpath.ElementNode:
		if nav.attr != -1 {
			return nav.current.attrs[nav.attr].Value
		}
		return nav.current.innerText()
	case xpath.TextNode:
		return nav.current.text
	}
	return nav.current.innerText()
}

func (nav *navigator) Copy() xpath.NodeNavigator {
	n := *nav
	return &n
}

func (nav *navigator) MoveToRoot() {
	nav.current = nav.root
	nav.attr = -1
}

func (nav *navigator) MoveToParent() bool {
	if nav.attr != -1 {
		nav.attr = -1 // move from attributes to element
		return true
	}
	if nav.current == nav.root || nav.current.parent == nil {
		return false
	}
	nav.current = nav.current.parent
	return true
}

func (nav *navigator) MoveToNextAttribute() bool {
	if nav.attr >= len(nav.current.attrs)-1 {
		return false
	}
	nav.attr++
	return true
}

func (nav *navigator) MoveToChild() bool {
	if nav.attr != -1 || len(nav.current.children) == 0 {
		return false
	}
	nav.current = nav.current.children[0]
	return true
}

func (nav *navigator) MoveToFirst() bool {
	if nav.attr != -1 || nav.current.parent == nil || nav.current.pos == 0 {
		return false
	}
	nav.current = nav.current.parent.children[0]
	return true
}

func (nav *navigator) MoveToNext() bool {
	if nav.attr != -1 || nav.current.parent == nil {
		return false
	}
	siblings := nav.current.parent.children
	if nav.current.pos+1 >= len(siblings) {
		return false
	}
	nav.current = siblings[nav.current.pos+1]
	return true
}

func (nav *navigator) MoveToPrevious() bool {
	if nav.attr != -1 || nav.current.parent == nil || nav.current.pos == 0 {
		return false
	}
	nav.current = nav.current.parent.children[nav.current.pos-1]
	return true
}

func (nav *navigator) MoveTo(other xpath.NodeNavigator) bool {
	node, ok := other.(*navigator)
	if !ok || node.root != nav.root {
		return false
	}
	nav.current = node.current
	nav.attr = node.attr
	return true
}

func (nav *navigator) String() string {
	return nav.Value()
}
