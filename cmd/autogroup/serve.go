package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/praetorian-inc/autogroup/pkg/serve"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer NDJSON requests on stdin/stdout",
	Long: `Run as a long-lived server that accepts resolve, resolve_batch, suggest
and validate requests on stdin and writes NDJSON responses to stdout.

The configuration is loaded once and followed for changes. The process
runs until stdin closes, a close request arrives, or it is interrupted.`,
	RunE: runServe,
}

var serveCatalog string

func init() {
	serveCmd.Flags().StringVar(&serveCatalog, "catalog", "", "YAML message catalog for suggestion descriptions")
}

func runServe(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog(serveCatalog)
	if err != nil {
		return err
	}

	engine, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	ctx := commandContext(cmd)
	srv := serve.NewServer(engine, cmd.InOrStdin(), cmd.OutOrStdout(),
		serve.WithCatalog(catalog),
		serve.WithLogger(pslog.Ctx(ctx)),
	)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
