package xml

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\r", "&#xD;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\n", "&#xA;",
		"\r", "&#xD;",
		"\t", "&#x9;",
	)
)

// WriteTo serializes n and its descendants. Elements without children are
// written self-closing.
func (n *Node) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: bufio.NewWriter(w)}
	n.write(cw)
	if cw.err != nil {
		return cw.n, cw.err
	}
	if err := cw.w.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Bytes serializes n into a new slice
func (n *Node) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := n.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String returns the serialized form of n, for tests and debugging
func (n *Node) String() string {
	b, err := n.Bytes()
	if err != nil {
		return ""
	}
	return string(b)
}

func (n *Node) write(w *countingWriter) {
	switch n.Kind {
	case DocumentNode:
		for i, c := range n.Children {
			if i > 0 {
				w.WriteString("\n")
			}
			c.write(w)
		}
	case ElementNode:
		w.WriteString("<")
		w.WriteString(qualified(n.Name))
		for _, a := range n.Attrs {
			w.WriteString(" ")
			w.WriteString(qualified(a.Name))
			w.WriteString(`="`)
			w.WriteString(attrEscaper.Replace(a.Value))
			w.WriteString(`"`)
		}
		if len(n.Children) == 0 {
			w.WriteString("/>")
			return
		}
		w.WriteString(">")
		for _, c := range n.Children {
			c.write(w)
		}
		w.WriteString("</")
		w.WriteString(qualified(n.Name))
		w.WriteString(">")
	case TextNode:
		w.WriteString(textEscaper.Replace(n.Data))
	case CommentNode:
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->")
	case ProcInstNode:
		w.WriteString("<?")
		w.WriteString(n.Name.Local)
		if n.Data != "" {
			w.WriteString(" ")
			w.WriteString(n.Data)
		}
		w.WriteString("?>")
	case DirectiveNode:
		w.WriteString("<!")
		w.WriteString(n.Data)
		w.WriteString(">")
	}
}

// countingWriter remembers the first error so write can stay linear
type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) WriteString(s string) {
	if c.err != nil {
		return
	}
	m, err := c.w.WriteString(s)
	c.n += int64(m)
	c.err = err
}
