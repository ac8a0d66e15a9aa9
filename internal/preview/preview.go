// Package preview renders a plain-text preview of a DOCX package using
// github.com/fumiama/go-docx. It reads the same packages the merge engine
// writes and serves as an independent check that a merged file opens.
package preview

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// Paragraph is one top-level body paragraph
type Paragraph struct {
	Style string
	Text  string
}

// HeadingLevel returns 1-6 for Word's built-in heading styles, 0 otherwise
func (p Paragraph) HeadingLevel() int {
	style := strings.ToLower(strings.ReplaceAll(p.Style, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

// Read parses a DOCX package and returns its body paragraphs in order.
// Tables and other block content are not part of the preview.
func Read(r io.ReaderAt, size int64) ([]Paragraph, error) {
	doc, err := docx.Parse(r, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var out []Paragraph
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		p := Paragraph{Text: paragraphText(para)}
		if para.Properties != nil && para.Properties.Style != nil {
			p.Style = para.Properties.Style.Val
		}
		out = append(out, p)
	}
	return out, nil
}

// ReadBytes is Read over an in-memory package
func ReadBytes(b []byte) ([]Paragraph, error) {
	return Read(bytes.NewReader(b), int64(len(b)))
}

// Render formats paragraphs one per line. Headings are prefixed with '#'
// per level; empty paragraphs are kept as blank lines.
func Render(paragraphs []Paragraph) string {
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if level := p.HeadingLevel(); level > 0 && p.Text != "" {
			lines = append(lines, strings.Repeat("#", level)+" "+p.Text)
			continue
		}
		lines = append(lines, p.Text)
	}
	return strings.Join(lines, "\n")
}

// Text is ReadBytes followed by Render
func Text(b []byte) (string, error) {
	paragraphs, err := ReadBytes(b)
	if err != nil {
		return "", err
	}
	return Render(paragraphs), nil
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return buf.String()
}
