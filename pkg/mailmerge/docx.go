package mailmerge

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// Relationship types resolved from the package relationships part
const (
	relTypeOfficeDocument     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeExtendedProperties = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	// Strict packages use the purl.oclc.org form of both types
	relTypeOfficeDocumentStrict     = "http://purl.oclc.org/ooxml/officeDocument/relationships/officeDocument"
	relTypeExtendedPropertiesStrict = "http://purl.oclc.org/ooxml/officeDocument/relationships/extendedProperties"

	defaultMainPart     = "word/document.xml"
	defaultExtendedPart = "docProps/app.xml"
)

// DocxReader handles reading the parts of a DOCX package
type DocxReader struct {
	source []byte
	reader *zip.Reader
	Parts  map[string]*zip.File
}

// Relationship represents a relationship in the DOCX package
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships represents the collection of relationships
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Relationship []Relationship `xml:"Relationship"`
}

// NewDocxReader indexes the parts of an in-memory DOCX package
func NewDocxReader(source []byte) (*DocxReader, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(source), int64(len(source)))
	if err != nil {
		return nil, fmt.Errorf("failed to read zip file: %w", err)
	}

	dr := &DocxReader{
		source: source,
		reader: zipReader,
		Parts:  make(map[string]*zip.File),
	}

	// Index all parts by name
	for _, file := range zipReader.File {
		dr.Parts[file.Name] = file
	}

	if _, ok := dr.Parts[dr.MainDocumentPath()]; !ok {
		return nil, fmt.Errorf("not a valid DOCX file: missing %s", dr.MainDocumentPath())
	}

	return dr, nil
}

// GetPart retrieves the content of a specific part
func (dr *DocxReader) GetPart(partName string) ([]byte, error) {
	file, ok := dr.Parts[partName]
	if !ok {
		return nil, fmt.Errorf("part %s not found", partName)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", partName, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", partName, err)
	}

	return content, nil
}

// PackageRelationships returns the relationships of the package root
// (_rels/.rels). A package without them has none.
func (dr *DocxReader) PackageRelationships() []Relationship {
	content, err := dr.GetPart("_rels/.rels")
	if err != nil {
		return nil
	}

	var rels Relationships
	if err := xml.Unmarshal(content, &rels); err != nil {
		return nil
	}
	return rels.Relationship
}

// MainDocumentPath resolves the main document part from the package
// relationships, falling back to word/document.xml.
func (dr *DocxReader) MainDocumentPath() string {
	return dr.resolvePart(defaultMainPart, relTypeOfficeDocument, relTypeOfficeDocumentStrict)
}

// ExtendedPropertiesPath resolves the extended properties part (app.xml)
func (dr *DocxReader) ExtendedPropertiesPath() string {
	return dr.resolvePart(defaultExtendedPart, relTypeExtendedProperties, relTypeExtendedPropertiesStrict)
}

func (dr *DocxReader) resolvePart(fallback string, relTypes ...string) string {
	for _, rel := range dr.PackageRelationships() {
		for _, t := range relTypes {
			if rel.Type == t && rel.TargetMode != "External" {
				return partName(rel.Target)
			}
		}
	}
	return fallback
}

// partName turns a root relationship target into a zip entry name
func partName(target string) string {
	return strings.TrimPrefix(path.Clean("/"+target), "/")
}

// ListParts returns the names of all parts in archive order
func (dr *DocxReader) ListParts() []string {
	parts := make([]string, 0, len(dr.reader.File))
	for _, file := range dr.reader.File {
		parts = append(parts, file.Name)
	}
	return parts
}

// WritePackage writes the package to w with the named parts replaced.
// Every other entry is copied without recompression.
func (dr *DocxReader) WritePackage(w io.Writer, replaced map[string][]byte) error {
	zw := zip.NewWriter(w)

	for _, file := range dr.reader.File {
		content, ok := replaced[file.Name]
		if !ok {
			if err := zw.Copy(file); err != nil {
				return fmt.Errorf("failed to copy %s: %w", file.Name, err)
			}
			continue
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     file.Name,
			Method:   zip.Deflate,
			Modified: file.Modified,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", file.Name, err)
		}
		if _, err := fw.Write(content); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize package: %w", err)
	}
	return nil
}
