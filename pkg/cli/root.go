package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/adranna/tasknotes/pkg/auth"
	"github.com/adranna/tasknotes/pkg/config"
	"github.com/adranna/tasknotes/pkg/logging"
	"github.com/adranna/tasknotes/pkg/notion"
	"github.com/adranna/tasknotes/pkg/tasks"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	cfg *config.Config
	log *logrus.Logger

	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "tasknotes",
		Short: "Task list, completion tracking and reminders on a Notion data source",
		Long: `tasknotes reads tasks from a Notion data source, serves them over a small HTTP API,
marks them done or undone, and pushes reminders for open tasks through ntfy.`,
		PersistentPreRunE: setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/tasknotes/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides TASKNOTES_LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(setCalendarCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log, err = logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return err
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// newTaskService connects to the record store described by cfg.
func newTaskService(ctx context.Context) (*tasks.Service, error) {
	if err := cfg.RequireStore(); err != nil {
		return nil, err
	}
	httpClient, err := auth.NewBearerClient(ctx, cfg.NotionToken, nil)
	if err != nil {
		return nil, err
	}
	store := notion.NewClient(httpClient, notion.WithBaseURL(cfg.NotionBaseURL))
	names := tasks.PropertyNames{
		Task:    cfg.Properties.Task,
		Done:    cfg.Properties.Done,
		DueDate: cfg.Properties.DueDate,
		DoneAt:  cfg.Properties.DoneAt,
	}
	return tasks.NewService(store, cfg.NotionDataSourceID,
		tasks.WithPropertyNames(names),
		tasks.WithLogger(log),
	), nil
}
