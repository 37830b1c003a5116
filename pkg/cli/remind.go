package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/adranna/tasknotes/pkg/auth"
	"github.com/adranna/tasknotes/pkg/google"
	"github.com/adranna/tasknotes/pkg/index"
	"github.com/adranna/tasknotes/pkg/ntfy"
	"github.com/adranna/tasknotes/pkg/reminder"
	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Push a reminder for every open task",
	Long: `Sends one ntfy notification per open task, marking those due today. Runs only
between 12:00 and 22:59 Europe/Zurich; outside that window it exits without
contacting anything. When a calendar is configured and authorized, tasks due
today are also mirrored to Google Calendar, and events of tasks that are no
longer open are removed.`,
	RunE: runRemind,
}

func runRemind(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireNotify(); err != nil {
		return err
	}
	ctx := cmd.Context()

	loc, err := reminder.Location()
	if err != nil {
		return err
	}
	svc, err := newTaskService(ctx)
	if err != nil {
		return err
	}

	job := &reminder.Job{
		Tasks:    svc,
		Notifier: ntfy.NewClient(&http.Client{Timeout: 30 * time.Second}, cfg.NtfyServer),
		Topic:    cfg.NtfyTopic,
		Location: loc,
		Log:      log,
	}
	if cfg.Calendar != "" {
		job.NewMirror = func(ctx context.Context) (reminder.Mirror, error) {
			return newMirror(ctx, loc)
		}
	}

	summary, err := job.Run(ctx)
	if err != nil {
		return err
	}
	if summary.Skipped {
		fmt.Fprintln(cmd.OutOrStdout(), "Outside the reminder window, nothing sent.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent %d notification(s) for %s (%d open, %d due today).\n",
		summary.Notified, summary.Date, summary.OpenTotal, summary.DueToday)
	return nil
}

// newMirror connects to the configured calendar. It fails when no stored
// Google token exists; the remind command never starts the interactive
// browser flow.
func newMirror(ctx context.Context, loc *time.Location) (reminder.Mirror, error) {
	dir, err := auth.GetXdgHome()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, auth.TokenFile)); err != nil {
		return nil, fmt.Errorf("no Google token, run 'tasknotes auth' first: %w", err)
	}

	httpClient, err := auth.GetClient(ctx, dir, google.Scopes, log)
	if err != nil {
		return nil, err
	}
	idx, err := index.NewEventIndex("")
	if err != nil {
		return nil, err
	}
	mirror, err := google.NewClient(ctx, httpClient, cfg.Calendar, idx, loc, log)
	if err != nil {
		return nil, err
	}
	return mirror, nil
}
