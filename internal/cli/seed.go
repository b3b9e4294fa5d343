package cli

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tailscale/hujson"

	"github.com/TWRT/board-sync/internal/models"
	"github.com/TWRT/board-sync/internal/service"
)

//go:embed seed_tasks.jsonc
var builtinSeed []byte

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the task collection with sample tasks",
		Long: `Replace the task collection with sample tasks.

Without --file the built-in sample board is used. Files may contain comments
and trailing commas.

Examples:
  board-sync seed
  board-sync seed --file ./tasks.jsonc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := builtinSeed
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read seed file: %w", err)
				}
				raw = data
			}

			t, err := openTooling()
			if err != nil {
				return err
			}
			defer t.Close()

			tasks := service.NewTaskService(t.store, nil, t.logger)
			return record(cmd.Context(), t.runs, t.logger, "seed", func() (int, error) {
				return runSeed(cmd.Context(), cmd.OutOrStdout(), tasks, raw, time.Now())
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSONC file with a task array")

	return cmd
}

// parseSeed reads a JSONC task array. Missing ids are generated and missing
// created_at values are spread one day apart, ending yesterday.
func parseSeed(raw []byte, now time.Time) ([]models.Task, error) {
	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}

	var tasks []models.Task
	if err := json.Unmarshal(standardized, &tasks); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}

	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = models.NewTaskID(now)
		}
		if tasks[i].CreatedAt == "" {
			days := time.Duration(len(tasks)-i) * 24 * time.Hour
			tasks[i].CreatedAt = models.FormatTimestamp(now.Add(-days))
		}
		if tasks[i].Status == "" {
			tasks[i].Status = models.StatusTriage
		}
		if !tasks[i].Status.Valid() {
			return nil, fmt.Errorf("task %d: %w: %q", i, service.ErrInvalidStatus, tasks[i].Status)
		}
	}
	return tasks, nil
}

func runSeed(ctx context.Context, out io.Writer, tasks *service.TaskService, raw []byte, now time.Time) (int, error) {
	parsed, err := parseSeed(raw, now)
	if err != nil {
		return 0, err
	}

	fmt.Fprintf(out, "Pushing %d tasks...\n", len(parsed))
	if err := tasks.Replace(ctx, parsed); err != nil {
		return 0, fmt.Errorf("failed to push tasks: %w", err)
	}

	fmt.Fprintf(out, "Pushed %d tasks.\n", len(parsed))
	for _, col := range models.BoardColumns {
		fmt.Fprintf(out, "  - %s: %d\n", col.ID, len(tasks.TasksByStatus(col.ID)))
	}
	return len(parsed), nil
}
