// Package xml provides a lossless node tree for WordprocessingML parts.
//
// Word documents carry far more markup than a merge engine needs to understand:
// field characters, bookmarks, proofing marks, revision ids, drawing anchors and
// extension elements from later Office versions. Decoding into typed structs
// drops whatever the structs do not model, so this package keeps every token of
// a part instead and offers just enough navigation and mutation to splice nodes.
//
// # Structure Organization
//
//   - node.go: the Node type, sibling/parent/child navigation and mutation
//   - parse.go: Parse, building a tree from raw tokens with prefixes intact
//   - write.go: serialization back to bytes
//   - wordml.go: WordprocessingML names and constructors for runs and text
//
// # Namespaces
//
// Element names keep the prefix exactly as written (Name.Space is "w", not the
// namespace URI) so a part round-trips byte-for-byte apart from whitespace in
// empty elements. Namespace checks resolve the prefix against the xmlns
// declarations in scope:
//
//	if n.IsW("bookmarkStart") {
//	    name := n.AttrW("name")
//	    ...
//	}
package xml
