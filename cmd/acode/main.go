package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/acode/internal/cli"
	"github.com/example/acode/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "acode",
		Short:   "acode - local-first coding agent session manager",
		Version: version.String(),
		Long: `acode manages chats, runs and messages for coding agent sessions across git worktrees.
It binds each worktree to a chat, serializes access with file locks, and syncs state to a remote store.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.ChatCmd())
	rootCmd.AddCommand(cli.BindCmd())
	rootCmd.AddCommand(cli.ContextCmd())
	rootCmd.AddCommand(cli.LockCmd())
	rootCmd.AddCommand(cli.SyncCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
