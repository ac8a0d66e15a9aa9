package mailmerge

import (
	"strings"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge/xml"
)

const mergeFieldKeyword = "MERGEFIELD"

// FieldKind distinguishes the two encodings of a merge field
type FieldKind int

const (
	// SimpleField is a <w:fldSimple w:instr="MERGEFIELD Key"> element
	SimpleField FieldKind = iota
	// ComplexField is a run sequence: fldChar begin, instrText, fldChar
	// separate, result runs, fldChar end
	ComplexField
)

func (k FieldKind) String() string {
	switch k {
	case SimpleField:
		return "simple"
	case ComplexField:
		return "complex"
	default:
		return "unknown"
	}
}

// MergeField is a located merge field. For a simple field node is the
// w:fldSimple element; for a complex field it is the w:instrText element.
type MergeField struct {
	Key  string
	Kind FieldKind
	node *xml.Node
}

// parseMergeInstruction extracts the key from "MERGEFIELD <key> [switches]"
func parseMergeInstruction(instr string) (string, bool) {
	tokens := strings.FieldsFunc(strings.TrimSpace(instr), func(r rune) bool {
		return r == ' ' || r == '\t'
	})
	if len(tokens) >= 2 && tokens[0] == mergeFieldKeyword {
		return tokens[1], true
	}
	return "", false
}

// Ancestor returns the nearest WordprocessingML ancestor of the field with
// the given local name, e.g. "tr" for the row holding it.
func (f *MergeField) Ancestor(local string) *xml.Node {
	return f.node.AncestorW(local)
}

// attached reports whether the field is still part of the tree below root
func (f *MergeField) attached(root *xml.Node) bool {
	return root.IsAncestorOf(f.node)
}

// merge replaces the field markup with text. An empty text removes the
// field entirely.
func (f *MergeField) merge(text string, keepFormatting bool) error {
	switch f.Kind {
	case SimpleField:
		return f.mergeSimple(text, keepFormatting)
	case ComplexField:
		return f.mergeComplex(text)
	default:
		return NewStructureError("field", f.Key, "unknown field kind")
	}
}

func (f *MergeField) mergeSimple(text string, keepFormatting bool) error {
	field := f.node
	parent := field.Parent()
	if parent == nil {
		return NewStructureError("field", f.Key, "field is detached from the document")
	}
	index := field.Index()

	var rPr *xml.Node
	if keepFormatting {
		if run := field.FirstChildW("r"); run != nil {
			rPr = run.FirstChildW("rPr")
		}
	}

	field.Remove()
	if text == "" {
		return nil
	}
	parent.InsertAt(index, xml.NewRun(field.Name.Space, text, rPr))
	return nil
}

// complexFieldRuns are the sibling runs making up one complex field.
// instructions holds the instrText runs other than code, present when Word
// splits the field code over several runs.
type complexFieldRuns struct {
	begin, code, separate, end *xml.Node
	instructions               []*xml.Node
	content                    []*xml.Node
}

// isInstructionRun reports whether n is a run carrying field code text
func isInstructionRun(n *xml.Node) bool {
	return n.IsW("r") && n.FirstChildW("instrText") != nil && n.FirstChildW("fldChar") == nil
}

// previousRun returns the nearest preceding w:r sibling. Proofing marks,
// bookmarks and other non-run siblings are skipped.
func previousRun(n *xml.Node) *xml.Node {
	for p := n.PreviousSibling(); p != nil; p = p.PreviousSibling() {
		if p.IsW("r") {
			return p
		}
	}
	return nil
}

// nextRun returns the nearest following w:r sibling
func nextRun(n *xml.Node) *xml.Node {
	for p := n.NextSibling(); p != nil; p = p.NextSibling() {
		if p.IsW("r") {
			return p
		}
	}
	return nil
}

// collectRuns finds the field-character runs around the instruction. It
// does not mutate the tree.
func (f *MergeField) collectRuns() (*complexFieldRuns, error) {
	code := f.node.Parent()
	if code == nil || !code.IsW("r") {
		return nil, NewStructureError("field", f.Key, "field code is not inside a run")
	}

	runs := &complexFieldRuns{code: code}

	begin := previousRun(code)
	for begin != nil && isInstructionRun(begin) {
		runs.instructions = append(runs.instructions, begin)
		begin = previousRun(begin)
	}
	if xml.FieldCharType(begin) != "begin" {
		return nil, NewStructureError("field", f.Key, "missing field begin run")
	}
	runs.begin = begin

	separate := nextRun(code)
	for separate != nil && isInstructionRun(separate) {
		runs.instructions = append(runs.instructions, separate)
		separate = nextRun(separate)
	}
	if xml.FieldCharType(separate) != "separate" {
		return nil, NewStructureError("field", f.Key, "missing field separator run")
	}
	runs.separate = separate

	for next := runs.separate.NextSibling(); next != nil; next = next.NextSibling() {
		switch xml.FieldCharType(next) {
		case "end":
			runs.end = next
			return runs, nil
		case "begin", "separate":
			return nil, NewStructureError("field", f.Key, "nested field in field result")
		}
		runs.content = append(runs.content, next)
	}

	return nil, NewStructureError("field", f.Key, "missing field end run")
}

func (f *MergeField) mergeComplex(text string) error {
	runs, err := f.collectRuns()
	if err != nil {
		return err
	}

	parent := runs.code.Parent()
	rPr := runs.code.FirstChildW("rPr")

	runs.begin.Remove()
	runs.code.Remove()
	for _, run := range runs.instructions {
		run.Remove()
	}
	runs.separate.Remove()

	var kept *xml.Node
	for _, run := range runs.content {
		if !run.IsW("r") {
			// Bookmarks and proofing marks inside the result stay in place.
			continue
		}
		if text != "" && kept == nil {
			kept = run
			continue
		}
		run.Remove()
	}

	if text != "" {
		if kept != nil {
			xml.SetRunText(kept, text)
		} else {
			parent.InsertBefore(xml.NewRun(runs.code.Name.Space, text, rPr), runs.end)
		}
	}

	runs.end.Remove()
	return nil
}
