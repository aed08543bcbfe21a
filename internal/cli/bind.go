package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/acode/internal/wire"
)

var bindCmd = &cobra.Command{
	Use:   "bind",
	Short: "Manage worktree-to-chat bindings",
	Long:  "Create, delete and list the one-to-one bindings between worktrees and chats",
}

var bindCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Bind a worktree to a chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		worktreeID, _ := cmd.Flags().GetString("worktree")
		chatID, _ := cmd.Flags().GetString("chat")

		if chatID == "" {
			return fmt.Errorf("--chat is required")
		}
		if worktreeID == "" {
			// Default to the enclosing worktree.
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			info, found, err := wire.ContextService().DetectWorktree(ctx, cwd)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("not inside a git worktree; pass --worktree explicitly")
			}
			worktreeID = info.ID
		}

		return wire.BindingAdapter().Create(ctx, worktreeID, chatID)
	},
}

var bindDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove a binding by worktree or by chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		worktreeID, _ := cmd.Flags().GetString("worktree")
		chatID, _ := cmd.Flags().GetString("chat")

		switch {
		case worktreeID != "":
			return wire.BindingAdapter().DeleteByWorktree(ctx, worktreeID)
		case chatID != "":
			return wire.BindingAdapter().DeleteByChat(ctx, chatID)
		default:
			return fmt.Errorf("pass --worktree or --chat")
		}
	},
}

var bindShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List all bindings",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := wire.BindingAdapter().List(context.Background())
		return err
	},
}

func init() {
	bindCreateCmd.Flags().String("worktree", "", "Worktree ID (defaults to the enclosing worktree)")
	bindCreateCmd.Flags().String("chat", "", "Chat ID to bind")

	bindDeleteCmd.Flags().String("worktree", "", "Unbind by worktree ID")
	bindDeleteCmd.Flags().String("chat", "", "Unbind by chat ID")

	bindCmd.AddCommand(bindCreateCmd)
	bindCmd.AddCommand(bindDeleteCmd)
	bindCmd.AddCommand(bindShowCmd)
}

// BindCmd returns the bind command
func BindCmd() *cobra.Command {
	return bindCmd
}
