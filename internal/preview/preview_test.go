package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-mailmerge/internal/testdocx"
	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

func TestHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"Heading1":  1,
		"heading 2": 2,
		"HEADING6":  6,
		"Heading7":  0,
		"Title":     0,
		"":          0,
	}
	for style, want := range tests {
		assert.Equal(t, want, Paragraph{Style: style}.HeadingLevel(), style)
	}
}

func TestRender(t *testing.T) {
	got := Render([]Paragraph{
		{Style: "Heading1", Text: "Invoice"},
		{Text: "Dear Jane,"},
		{Style: "Heading2"},
		{Text: "Regards"},
	})
	assert.Equal(t, "# Invoice\nDear Jane,\n\nRegards", got)
}

func TestTextOfMergedDocument(t *testing.T) {
	doc, err := mailmerge.OpenBytes(testdocx.Sample())
	require.NoError(t, err)
	defer doc.Close()

	require.NoError(t, doc.ReplaceBookmark("ReplaceMe", "With me!"))
	require.NoError(t, doc.ReplaceBookmark("ReplaceMe2", "With me too!"))
	require.NoError(t, doc.MergeData(mailmerge.Values{"MergeMe": "WithME!", "Greeting": "Hello"}))

	out, err := doc.Content()
	require.NoError(t, err)

	text, err := Text(out)
	require.NoError(t, err)
	assert.Contains(t, text, "Dear customer,")
	assert.Contains(t, text, "Replace With me! please.")
	assert.Contains(t, text, "Start With me too! end.")
}

func TestReadInvalid(t *testing.T) {
	_, err := ReadBytes([]byte("not a zip"))
	assert.Error(t, err)
}
