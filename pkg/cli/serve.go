package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/adranna/tasknotes/pkg/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the task API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides TASKNOTES_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireServer(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newTaskService(ctx)
	if err != nil {
		return err
	}

	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	return server.New(svc, []byte(cfg.SessionSecret), log).Run(ctx, addr)
}
