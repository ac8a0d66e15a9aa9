package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benjaminschreck/go-mailmerge/internal/job"
	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

type mergeOptions struct {
	output          string
	jobPath         string
	set             []string
	bookmarks       []string
	removeBookmarks []string
	strict          bool
}

func newMergeCmd(a *app) *cobra.Command {
	opts := &mergeOptions{}

	cmd := &cobra.Command{
		Use:   "merge [template]",
		Short: "Merge values into a template",
		Long: `Merge values into a template and write the result.

Values come from a job file (--job) and from the command line; command-line
values win. The template may be given as an argument or in the job file.

Example:
  mailmerge merge letter.docx -o out.docx --set CustomerName="Jane Doe" \
      --bookmark Salutation="Dear Jane," --remove-bookmark Draft`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMerge(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (default from the job file)")
	f.StringVar(&opts.jobPath, "job", "", "YAML job file")
	f.StringArrayVar(&opts.set, "set", nil, "merge field value as KEY=VALUE (repeatable)")
	f.StringArrayVar(&opts.bookmarks, "bookmark", nil, "bookmark replacement as NAME=TEXT (repeatable)")
	f.StringArrayVar(&opts.removeBookmarks, "remove-bookmark", nil, "bookmark to delete with its content (repeatable)")
	f.BoolVar(&opts.strict, "strict", false, "fail when a table region of the job is missing")
	return cmd
}

func (a *app) runMerge(cmd *cobra.Command, args []string, opts *mergeOptions) error {
	j := &job.Job{}
	if opts.jobPath != "" {
		loaded, err := job.Load(opts.jobPath)
		if err != nil {
			return err
		}
		j = loaded
	}

	template := j.Resolve(j.Template)
	if len(args) == 1 {
		template = args[0]
		j.Template = args[0]
	}
	output := j.Resolve(j.Output)
	if opts.output != "" {
		output = opts.output
	}
	if template == "" {
		return fmt.Errorf("no template given")
	}
	if output == "" {
		return fmt.Errorf("no output file given (use -o)")
	}

	fields, err := parseAssignments(opts.set)
	if err != nil {
		return err
	}
	if j.Fields == nil {
		j.Fields = mailmerge.Values{}
	}
	for k, v := range fields {
		j.Fields[k] = v
	}

	bookmarks, err := parseAssignments(opts.bookmarks)
	if err != nil {
		return err
	}
	if j.Bookmarks == nil {
		j.Bookmarks = map[string]string{}
	}
	for k, v := range bookmarks {
		j.Bookmarks[k] = v
	}
	j.RemoveBookmarks = append(j.RemoveBookmarks, opts.removeBookmarks...)

	if err := j.Validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(template)
	if err != nil {
		return mailmerge.NewDocumentError("read", template, err)
	}

	config := *a.config
	if opts.strict {
		config.StrictMode = true
	}

	out, err := job.Merge(data, j, nil, mailmerge.WithConfig(&config), mailmerge.WithLogger(a.logger))
	if err != nil {
		return err
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(output, out, 0644); err != nil {
		return mailmerge.NewDocumentError("write", output, err)
	}

	a.logger.Info("merged", zap.String("template", template), zap.String("output", output))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
	return nil
}

// parseAssignments splits KEY=VALUE arguments. The value may contain '='.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected KEY=VALUE", arg)
		}
		out[strings.TrimSpace(key)] = value
	}
	return out, nil
}
