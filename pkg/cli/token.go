package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/adranna/tasknotes/pkg/server"
	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Issue a session token for the task API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.SessionSecret == "" {
			return errors.New("missing TASKNOTES_SESSION_SECRET environment variable")
		}
		token, err := server.IssueToken([]byte(cfg.SessionSecret), args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
