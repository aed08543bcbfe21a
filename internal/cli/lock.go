package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/acode/internal/config"
	"github.com/example/acode/internal/wire"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect and administer worktree locks",
	Long:  "Show lock holders, force-unlock wedged worktrees, and sweep stale lock files",
}

var lockStatusCmd = &cobra.Command{
	Use:   "status [worktree-id]",
	Short: "Show the lock state for a worktree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := wire.LockAdapter().Status(context.Background(), args[0])
		return err
	},
}

var lockForceUnlockCmd = &cobra.Command{
	Use:   "force-unlock [worktree-id]",
	Short: "Unconditionally remove a worktree lock",
	Long:  "Administrative override for a wedged lock. The holder, if alive, loses its claim.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.LockAdapter().ForceUnlock(context.Background(), args[0])
	},
}

var lockSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove all stale lock files",
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, _ := cmd.Flags().GetInt("older-than")
		threshold := time.Duration(seconds) * time.Second
		if seconds <= 0 {
			threshold = config.DefaultStaleLockThreshold
		}
		return wire.LockAdapter().Sweep(context.Background(), threshold)
	},
}

func init() {
	lockSweepCmd.Flags().Int("older-than", 0, "Stale threshold in seconds (default: config value)")

	lockCmd.AddCommand(lockStatusCmd)
	lockCmd.AddCommand(lockForceUnlockCmd)
	lockCmd.AddCommand(lockSweepCmd)
}

// LockCmd returns the lock command
func LockCmd() *cobra.Command {
	return lockCmd
}
