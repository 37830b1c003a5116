package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/adranna/tasknotes/pkg/client"
	"github.com/adranna/tasknotes/pkg/model"
	"github.com/adranna/tasknotes/pkg/notion"
	"github.com/adranna/tasknotes/pkg/server"
	"github.com/adranna/tasknotes/pkg/tasks"
	"github.com/adranna/tasknotes/pkg/tasksync"
	"github.com/spf13/cobra"
)

var (
	listAll    bool
	listSort   string
	useRemote  bool
	doneUndo   bool
	doneAtFlag string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks and change their completion state",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open tasks by due date",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task done, or undone with --undo",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDone,
}

func init() {
	tasksCmd.PersistentFlags().BoolVar(&useRemote, "remote", false, "go through the task API at TASKNOTES_API_URL instead of Notion")

	tasksListCmd.Flags().BoolVar(&listAll, "all", false, "include done tasks")
	tasksListCmd.Flags().StringVar(&listSort, "sort", string(notion.Ascending), "due date order: ascending or descending")

	tasksDoneCmd.Flags().BoolVar(&doneUndo, "undo", false, "mark the task not done")
	tasksDoneCmd.Flags().StringVar(&doneAtFlag, "at", "", "completion time, RFC 3339 with offset (default now)")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksDoneCmd)
}

// taskBackend is either the record store or the task API.
type taskBackend interface {
	tasksync.Remote
	list(ctx context.Context, direction notion.SortDirection, openOnly bool) ([]model.Task, error)
}

type localBackend struct{ *tasks.Service }

type remoteBackend struct{ *client.Client }

func (r remoteBackend) list(ctx context.Context, direction notion.SortDirection, openOnly bool) ([]model.Task, error) {
	return r.ListTasks(ctx, direction, openOnly)
}

func (l localBackend) list(ctx context.Context, direction notion.SortDirection, openOnly bool) ([]model.Task, error) {
	if openOnly {
		return l.OpenTasks(ctx, direction)
	}
	return l.AllTasks(ctx, direction)
}

func newBackend(ctx context.Context) (taskBackend, error) {
	if !useRemote {
		svc, err := newTaskService(ctx)
		if err != nil {
			return nil, err
		}
		return localBackend{svc}, nil
	}

	token := cfg.APIToken
	if token == "" && cfg.SessionSecret != "" {
		var err error
		token, err = server.IssueToken([]byte(cfg.SessionSecret), "cli", 5*time.Minute)
		if err != nil {
			return nil, err
		}
	}
	c, err := client.New(ctx, cfg.APIURL, token)
	if err != nil {
		return nil, err
	}
	return remoteBackend{c}, nil
}

func runTasksList(cmd *cobra.Command, args []string) error {
	direction := notion.SortDirection(listSort)
	if direction != notion.Ascending && direction != notion.Descending {
		return fmt.Errorf("invalid --sort %q, want ascending or descending", listSort)
	}
	ctx := cmd.Context()
	backend, err := newBackend(ctx)
	if err != nil {
		return err
	}

	list, err := backend.list(ctx, direction, !listAll)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDUE\tDONE\tTASK")
	for _, t := range list {
		mark := ""
		if t.Done {
			mark = "x"
			if t.DoneAt != nil {
				mark = *t.DoneAt
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.DueDate, mark, t.Task)
	}
	return w.Flush()
}

func runTasksDone(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]
	done := !doneUndo

	backend, err := newBackend(ctx)
	if err != nil {
		return err
	}

	if doneAtFlag != "" {
		if !done {
			return errors.New("--at cannot be combined with --undo")
		}
		at, err := time.Parse(time.RFC3339, doneAtFlag)
		if err != nil {
			return fmt.Errorf("invalid --at %q: %w", doneAtFlag, err)
		}
		if err := backend.MarkTaskDone(ctx, id, true, &at); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked %s done at %s.\n", id, at.Format(time.RFC3339))
		return nil
	}

	ctrl := tasksync.New(backend, tasksync.WithLogger(log))
	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	if err := ctrl.SetDone(ctx, id, done); err != nil {
		if notice := ctrl.Notice(); notice != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), notice)
		}
		return err
	}

	state := "done"
	if !done {
		state = "not done"
	}
	name := id
	for _, t := range ctrl.Tasks() {
		if t.ID == id && t.Task != "" {
			name = t.Task
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Marked %s %s.\n", name, state)
	return nil
}
