package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/acode/internal/wire"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Manage background sync with the remote store",
	Long:  "Run the sync engine, trigger immediate cycles, inspect backlog and replay dead letters",
}

var syncStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the sync engine in the foreground until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc := wire.SyncService()

		if err := svc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start sync engine: %w", err)
		}
		fmt.Println("Sync engine running. Press Ctrl+C to stop.")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		fmt.Println("Stopping...")
		return svc.Stop(ctx)
	},
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Run one sync cycle immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.SyncAdapter().Now(context.Background())
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine state and backlog",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := wire.SyncAdapter().Status(context.Background())
		return err
	},
}

var syncFailedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List dead-letter entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := wire.SyncAdapter().Failed(context.Background())
		return err
	},
}

var syncReplayCmd = &cobra.Command{
	Use:   "replay [entry-id]",
	Short: "Requeue a dead-letter entry for delivery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.SyncAdapter().Replay(context.Background(), args[0])
	},
}

func init() {
	syncCmd.AddCommand(syncStartCmd)
	syncCmd.AddCommand(syncNowCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncFailedCmd)
	syncCmd.AddCommand(syncReplayCmd)
}

// SyncCmd returns the sync command
func SyncCmd() *cobra.Command {
	return syncCmd
}
