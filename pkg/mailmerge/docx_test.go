package mailmerge

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	td "github.com/benjaminschreck/go-mailmerge/internal/testdocx"
)

func TestDocxReader(t *testing.T) {
	reader, err := NewDocxReader(td.Build(td.Paragraph(), td.WithPages(1)))
	require.NoError(t, err)

	assert.Equal(t, "word/document.xml", reader.MainDocumentPath())
	assert.Equal(t, "docProps/app.xml", reader.ExtendedPropertiesPath())
	assert.Contains(t, reader.ListParts(), "[Content_Types].xml")
	assert.Len(t, reader.PackageRelationships(), 2)

	content, err := reader.GetPart("word/document.xml")
	require.NoError(t, err)
	assert.Contains(t, string(content), "<w:body>")

	_, err = reader.GetPart("word/missing.xml")
	assert.Error(t, err)
}

func TestDocxReader_MissingMainPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("readme.txt")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = NewDocxReader(buf.Bytes())
	assert.ErrorContains(t, err, "missing word/document.xml")
}

func TestPartName(t *testing.T) {
	tests := map[string]string{
		"word/document.xml":      "word/document.xml",
		"/word/document.xml":     "word/document.xml",
		"./word/../word/doc.xml": "word/doc.xml",
	}
	for target, want := range tests {
		assert.Equal(t, want, partName(target), target)
	}
}

func TestWritePackage(t *testing.T) {
	source := td.Build(td.Paragraph(td.Run("old")), td.WithPages(3))
	reader, err := NewDocxReader(source)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, reader.WritePackage(&buf, map[string][]byte{"word/document.xml": []byte("replaced")}))
	out := buf.Bytes()

	got, err := td.ReadPart(out, "word/document.xml")
	require.NoError(t, err)
	assert.Equal(t, "replaced", got)

	rewritten, err := NewDocxReader(out)
	require.NoError(t, err)
	assert.Equal(t, reader.ListParts(), rewritten.ListParts(), "entry order is kept")

	app, err := td.ReadPart(out, "docProps/app.xml")
	require.NoError(t, err)
	assert.Contains(t, app, "<Pages>3</Pages>")
}
