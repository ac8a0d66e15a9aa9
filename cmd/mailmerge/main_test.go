package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-mailmerge/internal/testdocx"
	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

// run executes the CLI with args and returns its standard output
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "off"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeSample(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "letter.docx")
	require.NoError(t, os.WriteFile(path, testdocx.Sample(), 0644))
	return dir, path
}

func readText(t *testing.T, path string) string {
	t.Helper()
	doc, err := mailmerge.OpenFile(path)
	require.NoError(t, err)
	defer doc.Close()
	text, err := doc.Text()
	require.NoError(t, err)
	return text
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mailmerge version "+version+"\n", out)
}

func TestMergeCommand(t *testing.T) {
	dir, template := writeSample(t)
	output := filepath.Join(dir, "out", "merged.docx")

	out, err := run(t, "merge", template, "-o", output,
		"--set", "MergeMe=WithME!",
		"--set", "Greeting=a=b",
		"--bookmark", "ReplaceMe=With me!",
		"--remove-bookmark", "ReplaceMe2")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+output)

	text := readText(t, output)
	assert.Contains(t, text, "Replace With me! please.")
	assert.Contains(t, text, "Start  end.")
	assert.Contains(t, text, "Merge: WithME!")
	assert.Contains(t, text, "a=b!")
}

func TestMergeCommand_JobFile(t *testing.T) {
	dir, _ := writeSample(t)
	jobPath := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(jobPath, []byte(`
template: letter.docx
output: result.docx
fields:
  MergeMe: from job
  Greeting: Hello
`), 0644))

	_, err := run(t, "merge", "--job", jobPath, "--set", "Greeting=Hi")
	require.NoError(t, err)

	text := readText(t, filepath.Join(dir, "result.docx"))
	assert.Contains(t, text, "Merge: from job")
	assert.Contains(t, text, "Hi!")
}

func TestMergeCommand_Errors(t *testing.T) {
	dir, template := writeSample(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no template", []string{"merge", "-o", filepath.Join(dir, "x.docx")}, "no template"},
		{"no output", []string{"merge", template}, "no output"},
		{"bad assignment", []string{"merge", template, "-o", filepath.Join(dir, "x.docx"), "--set", "novalue"}, "KEY=VALUE"},
		{"missing template file", []string{"merge", filepath.Join(dir, "missing.docx"), "-o", filepath.Join(dir, "x.docx")}, "missing.docx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInspectCommand(t *testing.T) {
	_, template := writeSample(t)

	out, err := run(t, "inspect", template)
	require.NoError(t, err)
	assert.Contains(t, out, "Fields:    MergeMe, Greeting")
	assert.Contains(t, out, "Bookmarks: ReplaceMe, ReplaceMe2")
	assert.Contains(t, out, "Pages:     2")

	out, err = run(t, "inspect", "--json", template)
	require.NoError(t, err)

	var got inspectResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"MergeMe", "Greeting"}, got.Fields)
	require.NotNil(t, got.Pages)
	assert.Equal(t, 2, *got.Pages)
}

func TestTextCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.docx")
	body := testdocx.Paragraph(testdocx.Run("Intro")) +
		testdocx.Table(testdocx.Row(testdocx.Cell(testdocx.Run("a")), testdocx.Cell(testdocx.Run("b"))))
	require.NoError(t, os.WriteFile(path, testdocx.Build(body), 0644))

	out, err := run(t, "text", "--tables", path)
	require.NoError(t, err)
	assert.Equal(t, "Intro\na\tb\n", out)

	out, err = run(t, "text", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Intro"))
}

func TestBatchCommand(t *testing.T) {
	dir, _ := writeSample(t)
	jobPath := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(jobPath, []byte(`
template: letter.docx
output_dir: letters
name_field: Customer
fields:
  Greeting: Hello
records:
  - {Customer: Jane, MergeMe: one}
  - {Customer: John, MergeMe: two}
`), 0644))

	out, err := run(t, "batch", "--workers", "1", jobPath)
	require.NoError(t, err)
	assert.Contains(t, out, "2 documents written")

	assert.Contains(t, readText(t, filepath.Join(dir, "letters", "Jane.docx")), "Merge: one")
	assert.Contains(t, readText(t, filepath.Join(dir, "letters", "John.docx")), "Merge: two")
}

func TestInvalidLogLevel(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "loud", "version"})
	assert.Error(t, root.Execute())
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"A=1", " B =x=y", "C="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y", "C": ""}, got)

	_, err = parseAssignments([]string{"=v"})
	assert.Error(t, err)
}
