package xml

import (
	"encoding/xml"
	"strings"
)

// WordprocessingML namespaces. Strict documents use the purl.oclc.org form.
const (
	NamespaceW       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceWStrict = "http://purl.oclc.org/ooxml/wordprocessingml/main"
)

// DefaultPrefix is used when no WordprocessingML prefix can be found in scope
const DefaultPrefix = "w"

// IsW reports whether n is a WordprocessingML element with the given local name
func (n *Node) IsW(local string) bool {
	if !n.IsElement() || n.Name.Local != local {
		return false
	}
	ns := n.NamespaceURI()
	if ns == "" {
		// Detached fragments have no declarations in scope; trust the prefix.
		return n.Name.Space == DefaultPrefix
	}
	return ns == NamespaceW || ns == NamespaceWStrict
}

// AttrW returns a WordprocessingML attribute such as w:val, using the prefix of n
func (n *Node) AttrW(local string) string {
	if v, ok := n.Attr(n.Name.Space, local); ok {
		return v
	}
	// Attributes are occasionally written unprefixed.
	v, _ := n.Attr("", local)
	return v
}

// NewRun creates <w:r> holding a single <w:t> with the given text. rPr, when
// non-nil, is cloned in as the run properties.
func NewRun(prefix, text string, rPr *Node) *Node {
	run := NewElement(prefix, "r")
	if rPr != nil {
		run.AppendChild(rPr.Clone())
	}
	run.AppendChild(NewTextElement(prefix, text))
	return run
}

// NewTextElement creates <w:t>. Leading or trailing spaces get
// xml:space="preserve" so Word keeps them.
func NewTextElement(prefix, text string) *Node {
	t := NewElement(prefix, "t")
	if strings.TrimSpace(text) != text {
		t.Attrs = append(t.Attrs, xml.Attr{Name: xml.Name{Space: "xml", Local: "space"}, Value: "preserve"})
	}
	t.AppendChild(NewText(text))
	return t
}

// SetRunText overwrites the first <w:t> of a run, creating one if the run has
// none, and preserves the run properties.
func SetRunText(run *Node, text string) {
	t := run.FirstChildW("t")
	if t == nil {
		run.AppendChild(NewTextElement(run.Name.Space, text))
		return
	}
	t.SetText(text)
	if strings.TrimSpace(text) != text {
		t.SetAttr("xml", "space", "preserve")
	}
}

// FieldCharType returns the w:fldCharType of the first <w:fldChar> in a run,
// or "" when the run has none.
func FieldCharType(run *Node) string {
	if run == nil || !run.IsW("r") {
		return ""
	}
	fc := run.FirstChildW("fldChar")
	if fc == nil {
		return ""
	}
	return fc.AttrW("fldCharType")
}

// IsParagraphContainer reports whether runs may be placed directly in n
func IsParagraphContainer(n *Node) bool {
	if n == nil {
		return false
	}
	for _, local := range []string{"p", "hyperlink", "smartTag", "fldSimple", "ins", "del", "sdtContent"} {
		if n.IsW(local) {
			if local == "sdtContent" {
				// Block-level content controls hold paragraphs, inline ones hold runs.
				return n.AncestorW("p") != nil
			}
			return true
		}
	}
	return false
}

// IsBlockProperties reports whether n is a properties element that must stay
// the first child of its block (pPr, trPr, tcPr, tblPr).
func IsBlockProperties(n *Node) bool {
	return n.IsW("pPr") || n.IsW("trPr") || n.IsW("tcPr") || n.IsW("tblPr")
}

// VisibleText returns the text Word displays for n: w:t content, tabs and
// breaks. Field instructions and deleted text are not visible.
func VisibleText(n *Node) string {
	var sb strings.Builder
	n.Walk(func(d *Node) bool {
		switch {
		case d.IsW("instrText"), d.IsW("delText"), d.IsW("del"):
			return false
		case d.IsW("t"):
			sb.WriteString(d.InnerText())
			return false
		case d.IsW("tab"):
			if d.AncestorW("r") != nil {
				sb.WriteString("\t")
			}
		case d.IsW("br"), d.IsW("cr"):
			sb.WriteString("\n")
		}
		return true
	})
	return sb.String()
}
