// Package testdocx builds small DOCX packages in memory for tests.
// It is not meant for production code.
package testdocx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// WNamespace is the WordprocessingML main namespace
const WNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

type options struct {
	pages    int
	mainPart string
	noRels   bool
}

// Option customizes Build
type Option func(*options)

// WithPages adds docProps/app.xml with the given page count
func WithPages(n int) Option {
	return func(o *options) { o.pages = n }
}

// WithMainPart stores the main document under a different part name and
// points the package relationship at it
func WithMainPart(name string) Option {
	return func(o *options) { o.mainPart = name }
}

// WithoutPackageRelationships leaves out _rels/.rels
func WithoutPackageRelationships() Option {
	return func(o *options) { o.noRels = true }
}

// DocumentXML wraps body content in a w:document part
func DocumentXML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="` + WNamespace + `" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>` +
		body +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`
}

// Build creates a DOCX package whose body holds the given content
func Build(body string, opts ...Option) []byte {
	o := &options{mainPart: "word/document.xml"}
	for _, opt := range opts {
		opt(o)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	write := func(name, content string) {
		f, err := w.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := io.WriteString(f, content); err != nil {
			panic(err)
		}
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/`+o.mainPart+`" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
  <Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>
</Types>`)

	if !o.noRels {
		rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="` + o.mainPart + `"/>`
		if o.pages > 0 {
			rels += `
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>`
		}
		rels += `
</Relationships>`
		write("_rels/.rels", rels)
	}

	dir := "word"
	if i := strings.LastIndex(o.mainPart, "/"); i >= 0 {
		dir = o.mainPart[:i]
	}
	base := o.mainPart[strings.LastIndex(o.mainPart, "/")+1:]
	write(dir+"/_rels/"+base+".rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`)

	write(o.mainPart, DocumentXML(body))

	if o.pages > 0 {
		write("docProps/app.xml", fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"><Template>Normal.dotm</Template><TotalTime>1</TotalTime><Pages>%d</Pages><Words>12</Words><Application>Microsoft Office Word</Application></Properties>`, o.pages))
	}

	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Paragraph wraps content in <w:p>
func Paragraph(content ...string) string {
	return "<w:p>" + strings.Join(content, "") + "</w:p>"
}

// Run creates a plain text run
func Run(text string) string {
	return `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

// BoldRun creates a bold text run
func BoldRun(text string) string {
	return `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

// SimpleField creates a bold w:fldSimple merge field showing «key»
func SimpleField(key string) string {
	return `<w:fldSimple w:instr=" MERGEFIELD ` + key + ` \* MERGEFORMAT "><w:r><w:rPr><w:b/></w:rPr><w:t>«` + key + `»</w:t></w:r></w:fldSimple>`
}

// ComplexField creates the five-run encoding of a merge field showing «key».
// The result run is italic.
func ComplexField(key string) string {
	return `<w:r><w:fldChar w:fldCharType="begin"/></w:r>` +
		`<w:r><w:instrText xml:space="preserve"> MERGEFIELD  ` + key + ` </w:instrText></w:r>` +
		`<w:r><w:fldChar w:fldCharType="separate"/></w:r>` +
		`<w:r><w:rPr><w:i/></w:rPr><w:t>«` + key + `»</w:t></w:r>` +
		`<w:r><w:fldChar w:fldCharType="end"/></w:r>`
}

// BookmarkStart creates a bookmark start marker
func BookmarkStart(id int, name string) string {
	return fmt.Sprintf(`<w:bookmarkStart w:id="%d" w:name="%s"/>`, id, name)
}

// BookmarkEnd creates a bookmark end marker
func BookmarkEnd(id int) string {
	return fmt.Sprintf(`<w:bookmarkEnd w:id="%d"/>`, id)
}

// Cell creates a table cell holding one paragraph with the given content
func Cell(content ...string) string {
	return `<w:tc><w:tcPr><w:tcW w:w="2000" w:type="dxa"/></w:tcPr>` + Paragraph(content...) + `</w:tc>`
}

// Row creates a table row from cells
func Row(cells ...string) string {
	return "<w:tr>" + strings.Join(cells, "") + "</w:tr>"
}

// Table creates a table from rows
func Table(rows ...string) string {
	return `<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr><w:tblGrid><w:gridCol w:w="2000"/><w:gridCol w:w="2000"/></w:tblGrid>` +
		strings.Join(rows, "") + `</w:tbl>`
}

// Sample builds the two-page letter used by the end-to-end tests: a bookmark
// ReplaceMe inside one paragraph, a bookmark ReplaceMe2 spanning two
// paragraphs, a simple field MergeMe and a complex field Greeting.
func Sample() []byte {
	body := Paragraph(Run("Dear customer,")) +
		Paragraph(Run("Replace "), BookmarkStart(0, "ReplaceMe"), Run("this text"), BookmarkEnd(0), Run(" please.")) +
		Paragraph(Run("Start "), BookmarkStart(1, "ReplaceMe2"), Run("first half")) +
		Paragraph(Run("second half"), BookmarkEnd(1), Run(" end.")) +
		Paragraph(Run("Merge: "), SimpleField("MergeMe")) +
		Paragraph(ComplexField("Greeting"), Run("!"))
	return Build(body, WithPages(2))
}

// ReadPart returns the content of a part of a DOCX package
func ReadPart(docx []byte, name string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", fmt.Errorf("part %s not found", name)
}
