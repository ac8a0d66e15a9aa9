// Package job describes merges in YAML files and runs them, one document at
// a time or as a batch with one output per record.
//
// A job file looks like this:
//
//	template: letter.docx
//	output: out/letter.docx
//	fields:
//	  CustomerName: Jane Doe
//	bookmarks:
//	  Salutation: Dear Jane,
//	remove_bookmarks: [Draft]
//	tables:
//	  - name: Items
//	    rows:
//	      - {Product: Widget, Qty: 2}
//
// For a batch, records lists one set of field values per output and
// output_dir, name_field and workers control where and how they are written.
package job

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

// Job is a merge description
type Job struct {
	Template        string             `yaml:"template" json:"template"`
	Output          string             `yaml:"output" json:"output"`
	Fields          mailmerge.Values   `yaml:"fields" json:"fields"`
	Bookmarks       map[string]string  `yaml:"bookmarks" json:"bookmarks"`
	RemoveBookmarks []string           `yaml:"remove_bookmarks" json:"remove_bookmarks"`
	Tables          []*mailmerge.Table `yaml:"tables" json:"tables"`

	Records   []mailmerge.Values `yaml:"records" json:"records"`
	OutputDir string             `yaml:"output_dir" json:"output_dir"`
	NameField string             `yaml:"name_field" json:"name_field"`
	Workers   int                `yaml:"workers" json:"workers"`

	// dir is the directory of the job file; relative paths resolve against it
	dir string
}

// Load reads a job file. Relative template and output paths in it are
// resolved against the file's directory.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job: %w", err)
	}
	j, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	j.dir = filepath.Dir(path)
	return j, nil
}

// Parse decodes a job from YAML. JSON documents are valid YAML and are
// accepted as well.
func Parse(data []byte) (*Job, error) {
	j := &Job{}
	if err := yaml.Unmarshal(data, j); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	return j, nil
}

// Resolve makes p relative to the job file's directory
func (j *Job) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || j.dir == "" {
		return p
	}
	return filepath.Join(j.dir, p)
}

// Validate checks the parts of a job shared by single and batch merges
func (j *Job) Validate() error {
	verr := &mailmerge.ValidationError{}
	j.validate(verr)
	return verr.Err()
}

// ValidateBatch checks a job meant for Runner.Run
func (j *Job) ValidateBatch() error {
	verr := &mailmerge.ValidationError{}
	j.validate(verr)
	if len(j.Records) == 0 {
		verr.Add("records", "a batch needs at least one record")
	}
	if j.OutputDir == "" {
		verr.Add("output_dir", "is required for a batch")
	}
	return verr.Err()
}

func (j *Job) validate(verr *mailmerge.ValidationError) {
	if j.Template == "" {
		verr.Add("template", "is required")
	}
	if j.Workers < 0 {
		verr.Add("workers", "must not be negative")
	}
	for i, table := range j.Tables {
		if table == nil || table.Name == "" {
			verr.Add(fmt.Sprintf("tables[%d].name", i), "is required")
		}
	}
	for _, name := range j.RemoveBookmarks {
		if _, ok := j.Bookmarks[name]; ok {
			verr.Add("remove_bookmarks", fmt.Sprintf("bookmark '%s' is both replaced and removed", name))
		}
	}
}

// Apply performs the job's merges on doc. Tables are expanded first so their
// column fields are not taken by document-level values; bookmarks follow in
// name order, then fields. record values override the job's fields.
func (j *Job) Apply(doc *mailmerge.Document, record mailmerge.Values) error {
	if len(j.Tables) > 0 {
		if err := doc.MergeDataSet(mailmerge.DataSet(j.Tables)); err != nil {
			return err
		}
	}

	for _, name := range j.RemoveBookmarks {
		if err := doc.RemoveBookmark(name); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(j.Bookmarks))
	for name := range j.Bookmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := doc.ReplaceBookmark(name, j.Bookmarks[name]); err != nil {
			return err
		}
	}

	return doc.MergeData(j.values(record))
}

// values combines the job fields with one record
func (j *Job) values(record mailmerge.Values) mailmerge.Values {
	values := make(mailmerge.Values, len(j.Fields)+len(record))
	for k, v := range j.Fields {
		values[k] = v
	}
	for k, v := range record {
		values[k] = v
	}
	return values
}

// Merge opens template, applies j with record and returns the merged package
func Merge(template []byte, j *Job, record mailmerge.Values, opts ...mailmerge.Option) ([]byte, error) {
	doc, err := mailmerge.OpenBytes(template, opts...)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if err := j.Apply(doc, record); err != nil {
		return nil, err
	}
	return doc.Content()
}
