package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-mailmerge/internal/preview"
	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

type inspectResult struct {
	Fields    []string `json:"fields"`
	Bookmarks []string `json:"bookmarks"`
	Pages     *int     `json:"pages,omitempty"`
}

func newInspectCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <docx>",
		Short: "List the merge fields, bookmarks and page count of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := mailmerge.OpenFile(args[0], a.options()...)
			if err != nil {
				return err
			}
			defer doc.Close()

			result := inspectResult{
				Fields:    doc.MergeFieldKeys(),
				Bookmarks: doc.BookmarkNames(),
			}
			pages, err := doc.PageCount()
			switch {
			case err == nil:
				result.Pages = &pages
			case !errors.Is(err, mailmerge.ErrNoPageCount):
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if result.Fields == nil {
					result.Fields = []string{}
				}
				if result.Bookmarks == nil {
					result.Bookmarks = []string{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprintf(out, "Fields:    %s\n", listOrNone(result.Fields))
			fmt.Fprintf(out, "Bookmarks: %s\n", listOrNone(result.Bookmarks))
			if result.Pages != nil {
				fmt.Fprintf(out, "Pages:     %d\n", *result.Pages)
			} else {
				fmt.Fprintln(out, "Pages:     unknown")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func newTextCmd(a *app) *cobra.Command {
	var withTables bool

	cmd := &cobra.Command{
		Use:   "text <docx>",
		Short: "Print the text of a document",
		Long: `Print the text of a document, one line per paragraph.

By default the body paragraphs are read with an independent DOCX reader, which
is a quick way to check that a merged file opens. --tables uses the merge
engine instead and includes table rows with tab-separated cells.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if withTables {
				doc, err := mailmerge.OpenFile(args[0], a.options()...)
				if err != nil {
					return err
				}
				defer doc.Close()
				if text, err = doc.Text(); err != nil {
					return err
				}
			} else {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				if text, err = preview.Text(data); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withTables, "tables", false, "include tables")
	return cmd
}
