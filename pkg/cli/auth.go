package cli

import (
	"fmt"

	"github.com/adranna/tasknotes/pkg/auth"
	"github.com/adranna/tasknotes/pkg/config"
	"github.com/adranna/tasknotes/pkg/google"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize the Google Calendar mirror",
	Long: `Runs the Google OAuth flow and stores the token next to the config. Any
existing token is removed first. Needs credentials.json in ~/.config/tasknotes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := auth.GetXdgHome()
		if err != nil {
			return fmt.Errorf("could not find path to configuration directory: %w", err)
		}
		if err := auth.RemoveToken(dir); err != nil {
			return fmt.Errorf("could not delete existing token, please delete it manually: %w", err)
		}
		if _, err := auth.GetClient(cmd.Context(), dir, google.Scopes, log); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n", auth.TokenFile)
		return nil
	},
}

var setCalendarCmd = &cobra.Command{
	Use:   "set-calendar <name>",
	Short: "Set the Google Calendar that mirrors tasks due today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Calendar = args[0]
		var err error
		if configPath != "" {
			err = config.SaveFile(configPath, cfg)
		} else {
			err = config.Save(cfg)
		}
		if err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default calendar set to: %s\n", args[0])
		return nil
	},
}
