package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-mailmerge/internal/testdocx"
	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

func writeTemplate(t *testing.T, dir string, docx []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "letter.docx"), docx, 0644))
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, testdocx.Sample())

	j := &Job{
		Template:  "letter.docx",
		Fields:    mailmerge.Values{"Greeting": "Hello"},
		OutputDir: "out",
		NameField: "Name",
		Workers:   2,
		Records: []mailmerge.Values{
			{"Name": "Jane Doe", "MergeMe": "one"},
			{"Name": "John/Smith", "MergeMe": "two"},
			{"MergeMe": "three"},
			{"Name": "Jane Doe", "MergeMe": "four"},
		},
		dir: dir,
	}

	results, err := NewRunner(nil, nil).Run(context.Background(), j)
	require.NoError(t, err)
	require.Len(t, results, 4)

	out := filepath.Join(dir, "out")
	want := []string{"Jane Doe.docx", "John_Smith.docx", "record-3.docx", "Jane Doe-2.docx"}
	for i, result := range results {
		assert.Equal(t, i, result.Record)
		assert.Equal(t, filepath.Join(out, want[i]), result.Path)
	}

	data, err := os.ReadFile(filepath.Join(out, "record-3.docx"))
	require.NoError(t, err)
	doc, err := mailmerge.OpenBytes(data)
	require.NoError(t, err)
	defer doc.Close()

	text, err := doc.Text()
	require.NoError(t, err)
	assert.Contains(t, text, "Merge: three")
	assert.Contains(t, text, "Hello!")
}

func TestRunner_CollectsFailures(t *testing.T) {
	dir := t.TempDir()
	broken := testdocx.Paragraph(testdocx.Run("x"), testdocx.BookmarkStart(0, "Open"), testdocx.Run("never closed")) +
		testdocx.Paragraph(testdocx.SimpleField("Name"))
	writeTemplate(t, dir, testdocx.Build(broken))

	j := &Job{
		Template:  "letter.docx",
		OutputDir: "out",
		Records:   []mailmerge.Values{{"Name": "a"}, {"Name": "b"}},
		Bookmarks: map[string]string{"Open": "text"},
		dir:       dir,
	}

	results, err := NewRunner(nil, nil).Run(context.Background(), j)
	require.Error(t, err)
	assert.Empty(t, results)
	assert.ErrorIs(t, err, mailmerge.ErrStructureMismatch)

	var multi *mailmerge.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Equal(t, 2, multi.Len())
}

func TestRunner_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, testdocx.Sample())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	j := &Job{
		Template:  "letter.docx",
		OutputDir: "out",
		Records:   []mailmerge.Values{{"MergeMe": "a"}, {"MergeMe": "b"}, {"MergeMe": "c"}},
		dir:       dir,
	}

	results, err := NewRunner(nil, nil).Run(ctx, j)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, results)
}

func TestRunner_InvalidJob(t *testing.T) {
	_, err := NewRunner(nil, nil).Run(context.Background(), &Job{Template: "x.docx"})
	var verr *mailmerge.ValidationError
	assert.ErrorAs(t, err, &verr)

	dir := t.TempDir()
	_, err = NewRunner(nil, nil).Run(context.Background(), &Job{
		Template:  "missing.docx",
		OutputDir: "out",
		Records:   []mailmerge.Values{{}},
		dir:       dir,
	})
	assert.True(t, mailmerge.IsDocumentError(err))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"Jane Doe":      "Jane Doe",
		"a/b\\c":        "a_b_c",
		"  ..hidden.. ": "hidden",
		"tab\there":     "tabhere",
		"what?":         "what_",
	}
	for input, want := range tests {
		assert.Equal(t, want, sanitizeFilename(input), input)
	}
}
