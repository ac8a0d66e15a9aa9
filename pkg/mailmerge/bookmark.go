package mailmerge

import (
	"go.uber.org/zap"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge/xml"
)

// ReplaceBookmark deletes the content of the named bookmark, together with
// its markers, and puts text where the bookmark started. An unknown name is
// a no-op.
//
// A bookmark may end in a later paragraph than it starts. The paragraphs it
// spans are joined into the starting one, so text following the bookmark end
// continues on the same line as the replacement.
func (d *Document) ReplaceBookmark(name, text string) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	start, ok := d.ensureBookmarks().get(name)
	if !ok {
		return nil
	}

	return d.atomically(func() error {
		parent := start.Parent()
		previous := start.PreviousSibling()

		if err := d.removeBookmarkRange(start, name); err != nil {
			return err
		}
		if text == "" {
			return nil
		}

		insert := xml.NewRun(start.Name.Space, text, nil)
		if !xml.IsParagraphContainer(parent) {
			// Bookmarks between paragraphs sit in the body or a cell,
			// where a run needs a paragraph of its own.
			p := xml.NewElement(start.Name.Space, "p")
			p.AppendChild(insert)
			insert = p
		}
		parent.InsertAfter(insert, previous)

		d.logger.Debug("replaced bookmark", zap.String("name", name))
		return nil
	})
}

// RemoveBookmark deletes the named bookmark together with everything it
// encloses. An unknown name is a no-op.
func (d *Document) RemoveBookmark(name string) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	start, ok := d.ensureBookmarks().get(name)
	if !ok {
		return nil
	}

	return d.atomically(func() error {
		if err := d.removeBookmarkRange(start, name); err != nil {
			return err
		}
		d.logger.Debug("removed bookmark", zap.String("name", name))
		return nil
	})
}

// UnwrapBookmark removes only the markers of the named bookmark and keeps
// the content they enclose. An unknown name is a no-op.
func (d *Document) UnwrapBookmark(name string) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	start, ok := d.ensureBookmarks().get(name)
	if !ok {
		return nil
	}

	return d.atomically(func() error {
		end := findBookmarkEnd(d.body, start.AttrW("id"))
		if end == nil {
			return NewStructureError("bookmark", name, "no bookmark end with id "+start.AttrW("id"))
		}
		start.Remove()
		end.Remove()
		d.logger.Debug("unwrapped bookmark", zap.String("name", name))
		return nil
	})
}

// removeBookmarkRange deletes start, every node after it up to the matching
// bookmark end, and the end itself. Blocks crossed on the way are merged
// into the block holding start.
func (d *Document) removeBookmarkRange(start *xml.Node, name string) error {
	id := start.AttrW("id")
	if findBookmarkEnd(d.body, id) == nil {
		return NewStructureError("bookmark", name, "no bookmark end with id "+id)
	}

	isEnd := func(n *xml.Node) bool {
		return n.IsW("bookmarkEnd") && n.AttrW("id") == id
	}

	for {
		if next := start.NextSibling(); next != nil {
			next.Remove()
			if isEnd(next) {
				start.Remove()
				return nil
			}
			continue
		}

		block := start.Parent()
		if block == nil || block == d.body {
			break
		}
		nextBlock := block.NextSibling()
		if nextBlock == nil {
			break
		}
		if isEnd(nextBlock) {
			nextBlock.Remove()
			start.Remove()
			return nil
		}

		for _, child := range nextBlock.ChildElements() {
			if xml.IsBlockProperties(child) {
				continue
			}
			block.AppendChild(child.Clone())
		}
		nextBlock.Remove()
	}

	return NewStructureError("bookmark", name, "bookmark end with id "+id+" is not reachable from its start")
}
