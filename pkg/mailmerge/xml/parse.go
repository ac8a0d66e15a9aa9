package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Parse reads a complete XML part into a document node.
//
// Tokens are read raw so that prefixes are kept as written and nothing the
// document carries is dropped; start and end tags are matched here instead.
func Parse(r io.Reader) (*Node, error) {
	d := xml.NewDecoder(r)

	doc := &Node{Kind: DocumentNode}
	stack := []*Node{doc}

	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}

		top := stack[len(stack)-1]

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{
				Kind: ElementNode,
				Name: t.Name,
			}
			if len(t.Attr) > 0 {
				el.Attrs = make([]xml.Attr, len(t.Attr))
				copy(el.Attrs, t.Attr)
			}
			top.AppendChild(el)
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 1 || top.Name != t.Name {
				return nil, fmt.Errorf("failed to parse document: unexpected end element </%s>", qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if top.Kind == DocumentNode && len(bytes.TrimSpace(t)) == 0 {
				// Whitespace around the root element is not kept.
				continue
			}
			top.AppendChild(NewText(string(t)))
		case xml.Comment:
			top.AppendChild(&Node{Kind: CommentNode, Data: string(t)})
		case xml.ProcInst:
			top.AppendChild(&Node{
				Kind: ProcInstNode,
				Name: xml.Name{Local: t.Target},
				Data: string(t.Inst),
			})
		case xml.Directive:
			top.AppendChild(&Node{Kind: DirectiveNode, Data: string(t)})
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("failed to parse document: unclosed element <%s>", qualified(stack[len(stack)-1].Name))
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("failed to parse document: no root element")
	}

	return doc, nil
}

// ParseBytes is Parse over an in-memory part
func ParseBytes(b []byte) (*Node, error) {
	return Parse(bytes.NewReader(b))
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}
