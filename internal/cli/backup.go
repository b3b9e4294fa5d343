package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TWRT/board-sync/internal/client"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var backupPaths = []string{"tasks", "contacts"}

func backupCmd() *cobra.Command {
	var (
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot tasks and contacts into a local file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openTooling()
			if err != nil {
				return err
			}
			defer t.Close()

			return record(cmd.Context(), t.runs, t.logger, "backup", func() (int, error) {
				return runBackup(cmd.Context(), cmd.OutOrStdout(), t.store, out, format)
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "board-backup.json", "output file")
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format (json, yaml)")

	return cmd
}

// snapshot keeps each collection exactly as stored, so a backup can be PUT
// back unchanged.
func snapshot(ctx context.Context, store client.DocumentStore) (map[string]json.RawMessage, error) {
	snap := make(map[string]json.RawMessage, len(backupPaths))
	for _, path := range backupPaths {
		raw := store.Load(ctx, path)
		if raw == nil {
			return nil, fmt.Errorf("failed to read %s", path)
		}
		snap[path] = raw
	}
	return snap, nil
}

func encodeSnapshot(snap map[string]json.RawMessage, format string) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}

	switch format {
	case formatJSON:
		return append(data, '\n'), nil
	case formatYAML:
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// runBackup reports the number of collections written.
func runBackup(ctx context.Context, out io.Writer, store client.DocumentStore, path, format string) (int, error) {
	snap, err := snapshot(ctx, store)
	if err != nil {
		return 0, err
	}
	data, err := encodeSnapshot(snap, format)
	if err != nil {
		return 0, err
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return 0, fmt.Errorf("failed to write backup: %w", err)
	}
	fmt.Fprintf(out, "Wrote %s backup to %s.\n", format, path)
	return len(snap), nil
}
