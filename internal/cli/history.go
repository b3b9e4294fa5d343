package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/TWRT/board-sync/internal/repository"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent maintenance runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openTooling()
			if err != nil {
				return err
			}
			defer t.Close()

			return printHistory(cmd.Context(), cmd.OutOrStdout(), t.runs, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to show")

	return cmd
}

func printHistory(ctx context.Context, out io.Writer, runs *repository.RunRepository, limit int) error {
	list, err := runs.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSTATUS\tAFFECTED\tSTARTED\tDETAIL")
	for _, run := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
			run.ID, run.Kind, run.Status, run.Affected,
			run.StartedAt.Local().Format(time.DateTime), run.Detail)
	}
	return w.Flush()
}
