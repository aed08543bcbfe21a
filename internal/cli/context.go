package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/acode/internal/wire"
)

// ContextCmd returns the context command
func ContextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context [path]",
		Short: "Show the active chat for a path",
		Long:  "Detect the enclosing git worktree for a path (default: current directory) and show its bound chat.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get working directory: %w", err)
				}
				path = cwd
			}

			_, err := wire.ContextAdapter().Show(context.Background(), path)
			return err
		},
	}
}
