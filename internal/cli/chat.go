package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/acode/internal/ports/primary"
	"github.com/example/acode/internal/wire"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Manage chats (conversation sessions)",
	Long:  "Create, list, show, rename, tag, delete, restore and purge chats",
}

var chatNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a new chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		tags, _ := cmd.Flags().GetStringSlice("tag")
		bind, _ := cmd.Flags().GetBool("bind")

		worktreeID := ""
		if bind {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			info, found, err := wire.ContextService().DetectWorktree(ctx, cwd)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("--bind requires running inside a git worktree")
			}
			worktreeID = info.ID
		}

		_, err := wire.ChatAdapter().Create(ctx, args[0], worktreeID, tags)
		return err
	},
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chats",
	RunE: func(cmd *cobra.Command, args []string) error {
		includeDeleted, _ := cmd.Flags().GetBool("all")
		worktreeID, _ := cmd.Flags().GetString("worktree")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		_, err := wire.ChatAdapter().List(context.Background(), primary.ListChatsRequest{
			WorktreeID:     worktreeID,
			IncludeDeleted: includeDeleted,
			Limit:          limit,
			Offset:         offset,
		})
		return err
	},
}

var chatShowCmd = &cobra.Command{
	Use:   "show [chat-id]",
	Short: "Show chat details and runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := wire.ChatAdapter().Show(context.Background(), args[0])
		return err
	},
}

var chatTitleCmd = &cobra.Command{
	Use:   "title [chat-id] [new-title]",
	Short: "Rename a chat",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.ChatAdapter().Rename(context.Background(), args[0], args[1])
	},
}

var chatTagCmd = &cobra.Command{
	Use:   "tag [chat-id] [tag]",
	Short: "Add a tag to a chat",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.ChatAdapter().Tag(context.Background(), args[0], args[1])
	},
}

var chatDeleteCmd = &cobra.Command{
	Use:   "delete [chat-id]",
	Short: "Soft-delete a chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.ChatAdapter().Delete(context.Background(), args[0])
	},
}

var chatRestoreCmd = &cobra.Command{
	Use:   "restore [chat-id]",
	Short: "Restore a soft-deleted chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.ChatAdapter().Restore(context.Background(), args[0])
	},
}

var chatPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Physically remove chats deleted longer ago than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("older-than")
		return wire.ChatAdapter().Purge(context.Background(), time.Duration(days)*24*time.Hour)
	},
}

func init() {
	chatNewCmd.Flags().StringSlice("tag", nil, "Tag to attach (repeatable)")
	chatNewCmd.Flags().Bool("bind", false, "Bind the new chat to the current worktree")

	chatListCmd.Flags().Bool("all", false, "Include soft-deleted chats")
	chatListCmd.Flags().String("worktree", "", "Only chats bound to this worktree")
	chatListCmd.Flags().Int("limit", 0, "Page size (0 = unlimited)")
	chatListCmd.Flags().Int("offset", 0, "Page offset")

	chatPurgeCmd.Flags().Int("older-than", 30, "Retention window in days")

	chatCmd.AddCommand(chatNewCmd)
	chatCmd.AddCommand(chatListCmd)
	chatCmd.AddCommand(chatShowCmd)
	chatCmd.AddCommand(chatTitleCmd)
	chatCmd.AddCommand(chatTagCmd)
	chatCmd.AddCommand(chatDeleteCmd)
	chatCmd.AddCommand(chatRestoreCmd)
	chatCmd.AddCommand(chatPurgeCmd)
}

// ChatCmd returns the chat command
func ChatCmd() *cobra.Command {
	return chatCmd
}
