// Command mailmerge merges data into Word (DOCX) templates.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// app carries the state shared by all subcommands
type app struct {
	configPath string
	logLevel   string

	config *mailmerge.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mailmerge",
		Short: "Merge data into Word (DOCX) templates",
		Long: `mailmerge fills DOCX templates prepared in Word.

Templates use MERGEFIELD fields for values, bookmarks for free text and
TableStart:<Name>/TableEnd:<Name> fields to mark a table row that is repeated
for every data row. Merges can be described on the command line or in a YAML
job file.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "mailmerge.yaml", "configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error, off (overrides the config file)")

	root.AddCommand(
		newMergeCmd(a),
		newInspectCmd(a),
		newTextCmd(a),
		newBatchCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger
func (a *app) setup(cmd *cobra.Command, args []string) error {
	config, err := mailmerge.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		config.LogLevel = a.logLevel
	}
	if err := config.Validate(); err != nil {
		return err
	}

	logger, err := mailmerge.NewLogger(config.LogLevel)
	if err != nil {
		return err
	}

	a.config = config
	a.logger = logger
	mailmerge.SetLogger(logger)
	return nil
}

func (a *app) options() []mailmerge.Option {
	return []mailmerge.Option{
		mailmerge.WithConfig(a.config),
		mailmerge.WithLogger(a.logger),
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mailmerge version %s\n", version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
