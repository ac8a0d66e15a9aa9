// Package mailmerge fills Word (DOCX) documents with data.
//
// Documents are prepared in Word with MERGEFIELD fields and bookmarks. This
// package opens such a document, replaces fields and bookmarks with values,
// repeats table rows for tabular data, and writes the result as a new DOCX
// package. Only the main document body is touched; every other part of the
// package is copied unchanged.
//
// # Quick Start
//
//	doc, err := mailmerge.OpenFile("letter.docx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
//	if err := doc.ReplaceBookmark("Salutation", "Dear Jane,"); err != nil {
//	    log.Fatal(err)
//	}
//	if err := doc.MergeData(mailmerge.Values{"CustomerName": "Jane Doe"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := doc.Content()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out.docx", out, 0644)
//
// # Merge Fields
//
// Both encodings Word uses for fields are recognized: the compact
// <w:fldSimple> element and the run sequence of begin, instruction,
// separator, result and end. The key is the word after MERGEFIELD in the
// field instruction; switches such as \* MERGEFORMAT are ignored. When a key
// appears more than once, the first field in document order is merged.
//
// Merging replaces the field with its value as plain text. An empty value
// removes the field. Keys that have no field, and fields that get no value,
// are left alone.
//
// # Table Regions
//
// A table row containing the fields TableStart:Items and TableEnd:Items is a
// region for the table named Items. MergeTable repeats the row once per data
// row:
//
//	err := doc.MergeTable(&mailmerge.Table{
//	    Name: "Items",
//	    Rows: []mailmerge.Values{
//	        {"Product": "Widget", "Qty": 2},
//	        {"Product": "Gadget", "Qty": 1},
//	    },
//	})
//
// # Errors
//
// Unknown names are never errors. Markup that cannot be merged is reported
// with *StructureError (errors.Is ErrStructureMismatch) and a table region
// spanning rows with *TableShapeError. Failed operations leave the document
// unchanged.
package mailmerge
