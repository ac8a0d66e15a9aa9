package mailmerge

import (
	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge/xml"
)

// fieldMap is the result of locating merge fields below some root, keeping
// the keys in document order.
type fieldMap struct {
	byKey map[string]*MergeField
	keys  []string
}

func (m *fieldMap) get(key string) (*MergeField, bool) {
	f, ok := m.byKey[key]
	return f, ok
}

// locateFields walks root in document order and registers every simple and
// complex MERGEFIELD. The first field seen for a key wins.
func locateFields(root *xml.Node) *fieldMap {
	m := &fieldMap{byKey: make(map[string]*MergeField)}

	register := func(key string, kind FieldKind, node *xml.Node) {
		if _, exists := m.byKey[key]; exists {
			return
		}
		m.byKey[key] = &MergeField{Key: key, Kind: kind, node: node}
		m.keys = append(m.keys, key)
	}

	root.Walk(func(n *xml.Node) bool {
		switch {
		case n.IsW("fldSimple"):
			if key, ok := parseMergeInstruction(n.AttrW("instr")); ok {
				register(key, SimpleField, n)
			}
		case n.IsW("instrText"):
			if key, ok := parseMergeInstruction(n.InnerText()); ok {
				register(key, ComplexField, n)
			}
			return false
		}
		return true
	})

	return m
}

// bookmarkMap maps bookmark names to their start markers
type bookmarkMap struct {
	byName map[string]*xml.Node
	names  []string
}

func (m *bookmarkMap) get(name string) (*xml.Node, bool) {
	n, ok := m.byName[name]
	return n, ok
}

// locateBookmarks registers the first w:bookmarkStart for every name
func locateBookmarks(root *xml.Node) *bookmarkMap {
	m := &bookmarkMap{byName: make(map[string]*xml.Node)}
	for _, start := range root.DescendantsW("bookmarkStart") {
		name := start.AttrW("name")
		if name == "" {
			continue
		}
		if _, exists := m.byName[name]; exists {
			continue
		}
		m.byName[name] = start
		m.names = append(m.names, name)
	}
	return m
}

// findBookmarkEnd returns the w:bookmarkEnd below root carrying id
func findBookmarkEnd(root *xml.Node, id string) *xml.Node {
	for _, end := range root.DescendantsW("bookmarkEnd") {
		if end.AttrW("id") == id {
			return end
		}
	}
	return nil
}
