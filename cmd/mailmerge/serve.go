package main

import (
	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-mailmerge/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cfg := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the merge HTTP API",
		Long: `Serve the merge HTTP API.

Endpoints:
  GET  /health        liveness probe
  POST /api/merge     multipart: document (DOCX) and optional job (YAML or JSON)
  POST /api/inspect   multipart: document; returns fields, bookmarks and pages`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.New(cfg, a.config, a.logger).ListenAndServe(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	f.Int64Var(&cfg.MaxUploadBytes, "max-upload-bytes", cfg.MaxUploadBytes, "largest accepted document")
	f.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "HTTP read timeout")
	f.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "HTTP write timeout")
	return cmd
}
