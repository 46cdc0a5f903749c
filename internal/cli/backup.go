package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/village-api/internal/dto"
)

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupUploadCmd)
	backupCmd.AddCommand(backupDownloadCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Transfer class snapshots to and from the remote backup endpoint",
	Long: `Push or pull a whole class snapshot. BACKUP_URL must be set. A download
replaces the local class and is saved to the configured store.`,
}

var backupUploadCmd = &cobra.Command{
	Use:   "upload CLASS_ID",
	Short: "Upload a class snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBackup(cmd, args[0], func(ctx context.Context, a *app, classID string) (*dto.BackupResult, error) {
			return a.backup.Upload(ctx, classID)
		})
	},
}

var backupDownloadCmd = &cobra.Command{
	Use:   "download CLASS_ID",
	Short: "Replace a class with its remote snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBackup(cmd, args[0], func(ctx context.Context, a *app, classID string) (*dto.BackupResult, error) {
			return a.backup.Download(ctx, classID)
		})
	},
}

type backupOp func(ctx context.Context, a *app, classID string) (*dto.BackupResult, error)

func runBackup(cmd *cobra.Command, classID string, op backupOp) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		result, err := op(ctx, a, classID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d bytes (updated %s)\n",
			result.Operation, result.ClassID, result.Bytes, result.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	})
}

// withApp wires the app for a one-shot command and flushes pending saves
// before returning.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) (err error) {
	cfg, logr, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, logr)
	if err != nil {
		return err
	}
	a.start(context.Background())
	defer func() {
		closeCtx, cancel := shutdownContext()
		defer cancel()
		if closeErr := a.close(closeCtx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(ctx, a)
}
