package xml

import (
	"encoding/xml"
	"strings"
)

// NodeKind identifies what a Node holds
type NodeKind int

const (
	// DocumentNode is the root of a parsed part. Its children are the prolog
	// and the root element.
	DocumentNode NodeKind = iota
	ElementNode
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

func (k NodeKind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case ProcInstNode:
		return "procinst"
	case DirectiveNode:
		return "directive"
	default:
		return "unknown"
	}
}

// Node is one token of a part. Children are owned; the parent link is a back
// reference maintained by the mutation methods and must not be set directly.
type Node struct {
	Kind NodeKind
	// Name of an element or the target of a processing instruction.
	// Name.Space holds the prefix as written.
	Name  xml.Name
	Attrs []xml.Attr
	// Data holds character data, comment text, directive text or the
	// processing instruction body.
	Data     string
	Children []*Node

	parent *Node
}

// NewElement creates a detached element with the given prefix and local name
func NewElement(prefix, local string, attrs ...xml.Attr) *Node {
	return &Node{
		Kind:  ElementNode,
		Name:  xml.Name{Space: prefix, Local: local},
		Attrs: attrs,
	}
}

// NewText creates a detached character data node
func NewText(data string) *Node {
	return &Node{Kind: TextNode, Data: data}
}

// Parent returns the owning node or nil for a detached node
func (n *Node) Parent() *Node {
	return n.parent
}

// IsElement reports whether n is an element
func (n *Node) IsElement() bool {
	return n != nil && n.Kind == ElementNode
}

// Index returns the position of n in its parent's children, or -1.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// NextSibling returns the next element sibling. Character data, comments
// and processing instructions between elements are skipped.
func (n *Node) NextSibling() *Node {
	i := n.Index()
	if i < 0 {
		return nil
	}
	siblings := n.parent.Children
	for j := i + 1; j < len(siblings); j++ {
		if siblings[j].Kind == ElementNode {
			return siblings[j]
		}
	}
	return nil
}

// PreviousSibling returns the previous element sibling
func (n *Node) PreviousSibling() *Node {
	i := n.Index()
	if i < 0 {
		return nil
	}
	siblings := n.parent.Children
	for j := i - 1; j >= 0; j-- {
		if siblings[j].Kind == ElementNode {
			return siblings[j]
		}
	}
	return nil
}

// ChildElements returns the element children of n
func (n *Node) ChildElements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildW returns the first element child in the WordprocessingML
// namespace with the given local name.
func (n *Node) FirstChildW(local string) *Node {
	for _, c := range n.Children {
		if c.IsW(local) {
			return c
		}
	}
	return nil
}

// Root returns the first element child of a document node
func (n *Node) Root() *Node {
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			return c
		}
	}
	return nil
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	// Children may be detached by fn; iterate over a stable copy.
	children := append([]*Node(nil), n.Children...)
	for _, c := range children {
		c.Walk(fn)
	}
}

// DescendantsW returns every WordprocessingML element below n with the
// given local name, in document order.
func (n *Node) DescendantsW(local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.Walk(func(d *Node) bool {
			if d.IsW(local) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}

// AncestorW returns the nearest WordprocessingML ancestor with the given
// local name.
func (n *Node) AncestorW(local string) *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.IsW(local) {
			return p
		}
	}
	return nil
}

// IsAncestorOf reports whether n contains d
func (n *Node) IsAncestorOf(d *Node) bool {
	for p := d.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Attr returns the value of the attribute with the given prefix and local name
func (n *Node) Attr(prefix, local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Space == prefix && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or adds an attribute
func (n *Node) SetAttr(prefix, local, value string) {
	for i, a := range n.Attrs {
		if a.Name.Space == prefix && a.Name.Local == local {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Space: prefix, Local: local}, Value: value})
}

// LookupNamespace resolves prefix against the xmlns declarations in scope at n
func (n *Node) LookupNamespace(prefix string) string {
	for p := n; p != nil; p = p.parent {
		if p.Kind != ElementNode {
			continue
		}
		for _, a := range p.Attrs {
			if prefix == "" && a.Name.Space == "" && a.Name.Local == "xmlns" {
				return a.Value
			}
			if prefix != "" && a.Name.Space == "xmlns" && a.Name.Local == prefix {
				return a.Value
			}
		}
	}
	return ""
}

// NamespaceURI returns the namespace of an element
func (n *Node) NamespaceURI() string {
	return n.LookupNamespace(n.Name.Space)
}

// InnerText concatenates the character data of n's leaf elements. Whitespace
// used for indentation between elements is not part of the result.
func (n *Node) InnerText() string {
	var sb strings.Builder
	n.Walk(func(d *Node) bool {
		if d.Kind == TextNode && d.parent != nil && !hasElementChild(d.parent) {
			sb.WriteString(d.Data)
		}
		return true
	})
	return sb.String()
}

func hasElementChild(n *Node) bool {
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			return true
		}
	}
	return false
}

// SetText replaces the children of n with a single character data node
func (n *Node) SetText(s string) {
	for _, c := range n.Children {
		c.parent = nil
	}
	n.Children = nil
	n.AppendChild(NewText(s))
}

// Remove detaches n from its parent. Removing a detached node is a no-op.
func (n *Node) Remove() {
	i := n.Index()
	if i < 0 {
		return
	}
	p := n.parent
	p.Children = append(p.Children[:i], p.Children[i+1:]...)
	n.parent = nil
}

// InsertAt inserts c as the i-th child of n. c is detached from any previous
// parent first.
func (n *Node) InsertAt(i int, c *Node) {
	c.Remove()
	if i < 0 {
		i = 0
	}
	if i > len(n.Children) {
		i = len(n.Children)
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
	c.parent = n
}

// AppendChild adds c as the last child of n
func (n *Node) AppendChild(c *Node) {
	n.InsertAt(len(n.Children), c)
}

// PrependChild adds c as the first child of n
func (n *Node) PrependChild(c *Node) {
	n.InsertAt(0, c)
}

// InsertAfter inserts c right after ref, which must be a child of n.
// A nil ref inserts c as the first child.
func (n *Node) InsertAfter(c, ref *Node) {
	if ref == nil || ref.parent != n {
		n.PrependChild(c)
		return
	}
	c.Remove()
	n.InsertAt(ref.Index()+1, c)
}

// InsertBefore inserts c right before ref, which must be a child of n.
// A nil ref appends c.
func (n *Node) InsertBefore(c, ref *Node) {
	if ref == nil || ref.parent != n {
		n.AppendChild(c)
		return
	}
	c.Remove()
	n.InsertAt(ref.Index(), c)
}

// ReplaceChildren swaps the children of n for those of other, taking
// ownership of them.
func (n *Node) ReplaceChildren(other *Node) {
	for _, c := range n.Children {
		c.parent = nil
	}
	n.Children = other.Children
	other.Children = nil
	for _, c := range n.Children {
		c.parent = n
	}
}

// Clone returns a deep, detached copy of n
func (n *Node) Clone() *Node {
	cp := &Node{
		Kind: n.Kind,
		Name: n.Name,
		Data: n.Data,
	}
	if len(n.Attrs) > 0 {
		cp.Attrs = make([]xml.Attr, len(n.Attrs))
		copy(cp.Attrs, n.Attrs)
	}
	if len(n.Children) > 0 {
		cp.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			cc := c.Clone()
			cc.parent = cp
			cp.Children[i] = cc
		}
	}
	return cp
}
