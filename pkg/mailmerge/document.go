package mailmerge

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	wml "github.com/benjaminschreck/go-mailmerge/pkg/mailmerge/xml"
)

// Document is an open DOCX package being merged in memory. It owns the
// parsed main document part until Close.
//
// A Document is not safe for concurrent use; callers must serialize access.
type Document struct {
	config *Config
	logger *zap.Logger

	reader   *DocxReader
	mainPath string
	tree     *wml.Node // document node of the main part
	body     *wml.Node // w:body, or the root element when there is none

	// Locator caches, rebuilt lazily and dropped by every mutation
	fields    *fieldMap
	bookmarks *bookmarkMap

	closed bool
}

// Option configures a Document at open time
type Option func(*Document)

// WithConfig sets the configuration used by the document
func WithConfig(config *Config) Option {
	return func(d *Document) {
		if config != nil {
			d.config = config
		}
	}
}

// WithLogger sets the logger used by the document
func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Open reads a complete DOCX package from r
func Open(r io.Reader, opts ...Option) (*Document, error) {
	source, err := io.ReadAll(r)
	if err != nil {
		return nil, NewDocumentError("read", "", err)
	}
	return OpenBytes(source, opts...)
}

// OpenFile opens the DOCX package at path
func OpenFile(path string, opts ...Option) (*Document, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError("read", path, err)
	}
	return OpenBytes(source, opts...)
}

// OpenBytes opens an in-memory DOCX package. The slice is retained and must
// not be modified while the document is open.
func OpenBytes(source []byte, opts ...Option) (*Document, error) {
	d := &Document{
		config: DefaultConfig(),
		logger: GetLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}

	reader, err := NewDocxReader(source)
	if err != nil {
		return nil, NewDocumentError("parse", "DOCX", err)
	}
	d.reader = reader
	d.mainPath = reader.MainDocumentPath()

	content, err := reader.GetPart(d.mainPath)
	if err != nil {
		return nil, NewDocumentError("extract", d.mainPath, err)
	}

	tree, err := wml.ParseBytes(content)
	if err != nil {
		return nil, NewDocumentError("parse", d.mainPath, err)
	}
	root := tree.Root()
	if !root.IsW("document") {
		return nil, NewDocumentError("parse", d.mainPath, fmt.Errorf("unexpected root element <%s>", root.Name.Local))
	}

	d.tree = tree
	d.body = root.FirstChildW("body")
	if d.body == nil {
		d.body = root
	}

	d.logger.Debug("opened document",
		zap.String("part", d.mainPath),
		zap.Int("size", len(source)))

	return d, nil
}

func (d *Document) checkOpen() error {
	if d.closed {
		return ErrClosed
	}
	return nil
}

// invalidate drops the locator caches after a mutation
func (d *Document) invalidate() {
	d.fields = nil
	d.bookmarks = nil
}

func (d *Document) ensureFields() *fieldMap {
	if d.fields == nil {
		d.fields = locateFields(d.body)
	}
	return d.fields
}

func (d *Document) ensureBookmarks() *bookmarkMap {
	if d.bookmarks == nil {
		d.bookmarks = locateBookmarks(d.body)
	}
	return d.bookmarks
}

// atomically runs a structural mutation. When fn fails the main part is
// restored to its state before the call.
func (d *Document) atomically(fn func() error) error {
	root := d.tree.Root()
	snapshot := root.Clone()

	err := fn()
	d.invalidate()
	if err == nil {
		return nil
	}

	root.ReplaceChildren(snapshot)
	d.body = root.FirstChildW("body")
	if d.body == nil {
		d.body = root
	}
	return err
}

// HasMergeField reports whether the body contains a merge field with key.
// A closed document has no fields.
func (d *Document) HasMergeField(key string) bool {
	if d.closed {
		return false
	}
	_, ok := d.ensureFields().get(key)
	return ok
}

// MergeFieldKeys returns the keys of all merge fields in document order
func (d *Document) MergeFieldKeys() []string {
	if d.closed {
		return nil
	}
	return append([]string(nil), d.ensureFields().keys...)
}

// BookmarkNames returns the names of all bookmarks in document order
func (d *Document) BookmarkNames() []string {
	if d.closed {
		return nil
	}
	return append([]string(nil), d.ensureBookmarks().names...)
}

// MergeData merges values into the matching merge fields. Keys without a
// field are ignored. Either every field is merged or, on error, none is.
func (d *Document) MergeData(values Values) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	fields := d.ensureFields()
	return d.atomically(func() error {
		return d.applyValues(fields, values)
	})
}

// MergeField merges a single value
func (d *Document) MergeField(key string, value interface{}) error {
	return d.MergeData(Values{key: value})
}

// MergeStruct merges the exported fields of v, see ValuesFromStruct
func (d *Document) MergeStruct(v interface{}) error {
	values, err := ValuesFromStruct(v)
	if err != nil {
		return err
	}
	return d.MergeData(values)
}

// applyValues merges values into located fields in key order
func (d *Document) applyValues(fields *fieldMap, values Values) error {
	for _, key := range values.Keys() {
		field, ok := fields.get(key)
		if !ok || !field.attached(d.tree) {
			continue
		}
		text := stringify(values[key], d.config.DateFormat)
		if err := field.merge(text, d.config.KeepFieldFormatting); err != nil {
			return err
		}
		d.logger.Debug("merged field",
			zap.String("key", key),
			zap.Stringer("kind", field.Kind),
			zap.Bool("empty", text == ""))
	}
	return nil
}

// Content serializes the current state of the document into a new DOCX
// package. The document stays open and unchanged.
func (d *Document) Content() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the current state of the document as a DOCX package
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if err := d.checkOpen(); err != nil {
		return 0, err
	}

	part, err := d.tree.Bytes()
	if err != nil {
		return 0, NewDocumentError("marshal", d.mainPath, err)
	}

	cw := &countingWriter{w: w}
	if err := d.reader.WritePackage(cw, map[string][]byte{d.mainPath: part}); err != nil {
		return cw.n, NewDocumentError("write", "DOCX", err)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// extendedProperties is the subset of docProps/app.xml read here
type extendedProperties struct {
	XMLName xml.Name `xml:"Properties"`
	Pages   string   `xml:"Pages"`
}

// PageCount returns the page count stored in the package's extended
// properties. The value is whatever the last application to save the file
// wrote; it is not recomputed.
func (d *Document) PageCount() (int, error) {
	if err := d.checkOpen(); err != nil {
		return 0, err
	}

	partPath := d.reader.ExtendedPropertiesPath()
	content, err := d.reader.GetPart(partPath)
	if err != nil {
		return 0, ErrNoPageCount
	}

	var props extendedProperties
	if err := xml.Unmarshal(content, &props); err != nil {
		return 0, NewDocumentError("parse", partPath, err)
	}

	pages := strings.TrimSpace(props.Pages)
	if pages == "" {
		return 0, ErrNoPageCount
	}
	count, err := strconv.Atoi(pages)
	if err != nil {
		return 0, NewDocumentError("parse", partPath, fmt.Errorf("invalid page count %q: %w", pages, err))
	}
	return count, nil
}

// Text returns the visible text of the body: one line per paragraph, table
// cells separated by tabs and one line per table row.
func (d *Document) Text() (string, error) {
	if err := d.checkOpen(); err != nil {
		return "", err
	}
	var lines []string
	collectBlockText(d.body, &lines)
	return strings.Join(lines, "\n"), nil
}

func collectBlockText(container *wml.Node, lines *[]string) {
	for _, block := range container.ChildElements() {
		switch {
		case block.IsW("p"):
			*lines = append(*lines, wml.VisibleText(block))
		case block.IsW("tbl"):
			for _, row := range block.ChildElements() {
				if !row.IsW("tr") {
					continue
				}
				var cells []string
				for _, cell := range row.ChildElements() {
					if !cell.IsW("tc") {
						continue
					}
					var cellLines []string
					collectBlockText(cell, &cellLines)
					cells = append(cells, strings.Join(cellLines, " "))
				}
				*lines = append(*lines, strings.Join(cells, "\t"))
			}
		case block.IsW("sdt"):
			if content := block.FirstChildW("sdtContent"); content != nil {
				collectBlockText(content, lines)
			}
		}
	}
}

// Close releases the parsed tree and package data. Closing twice is a no-op.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.invalidate()
	d.tree = nil
	d.body = nil
	d.reader = nil
	d.logger.Debug("closed document", zap.String("part", d.mainPath))
	return nil
}

// IsClosed reports whether Close has been called
func (d *Document) IsClosed() bool {
	return d.closed
}
