package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/TWRT/board-sync/internal/models"
	"github.com/TWRT/board-sync/internal/service"
)

// defaultPhones are handed out round-robin to contacts without a number.
var defaultPhones = []string{
	"+49 151 1234567",
	"+49 152 2345678",
	"+49 160 3456789",
	"+49 170 4567890",
	"+49 171 5678901",
	"+49 172 6789012",
	"+49 173 7890123",
	"+49 174 8901234",
	"+49 175 9012345",
	"+49 176 0123456",
	"+49 177 1234560",
	"+49 178 2345670",
	"+49 179 3456780",
	"+49 180 4567891",
	"+49 181 5678902",
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Backfill fields that older records are missing",
	}
	cmd.AddCommand(migrateCreatorCmd())
	cmd.AddCommand(migratePhonesCmd())
	return cmd
}

func migrateCreatorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "creator",
		Short: "Set Guest User as creator on tasks that have none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openTooling()
			if err != nil {
				return err
			}
			defer t.Close()

			tasks := service.NewTaskService(t.store, nil, t.logger)
			return record(cmd.Context(), t.runs, t.logger, "migrate creator", func() (int, error) {
				return runMigrateCreator(cmd.Context(), cmd.OutOrStdout(), tasks)
			})
		},
	}
}

func runMigrateCreator(ctx context.Context, out io.Writer, tasks *service.TaskService) (int, error) {
	fmt.Fprintln(out, "Fetching tasks...")
	if len(tasks.Load(ctx)) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return 0, nil
	}

	guest := models.Creator{
		Name:  models.GuestUser.Name,
		Email: models.GuestUser.Email,
		Type:  models.CreatorInternal,
	}
	updated, err := tasks.BackfillCreators(ctx, guest)
	if err != nil {
		return 0, fmt.Errorf("failed to save tasks: %w", err)
	}
	if updated == 0 {
		fmt.Fprintln(out, "All tasks already have creator data. Nothing to migrate.")
		return 0, nil
	}
	fmt.Fprintf(out, "Migrated %d task(s).\n", updated)
	return updated, nil
}

func migratePhonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "phones",
		Short: "Give contacts without a phone number one from the default list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openTooling()
			if err != nil {
				return err
			}
			defer t.Close()

			contacts := service.NewContactService(t.store, nil, t.logger)
			return record(cmd.Context(), t.runs, t.logger, "migrate phones", func() (int, error) {
				return runMigratePhones(cmd.Context(), cmd.OutOrStdout(), contacts)
			})
		},
	}
}

func runMigratePhones(ctx context.Context, out io.Writer, contacts *service.ContactService) (int, error) {
	fmt.Fprintln(out, "Fetching contacts...")
	if len(contacts.Load(ctx)) == 0 {
		fmt.Fprintln(out, "No contacts found.")
		return 0, nil
	}

	updated, err := contacts.BackfillPhones(ctx, defaultPhones)
	if err != nil {
		return 0, fmt.Errorf("failed to save contacts: %w", err)
	}
	if updated == 0 {
		fmt.Fprintln(out, "All contacts already have phone numbers. Nothing to migrate.")
		return 0, nil
	}
	fmt.Fprintf(out, "Added phone numbers to %d contact(s).\n", updated)
	return updated, nil
}
