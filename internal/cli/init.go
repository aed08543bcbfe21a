package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/acode/internal/config"
	"github.com/example/acode/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the acode state directory",
		Long:  `Initialize the acode database at ~/.acode/acode.db with the required schema, plus the lock directory and default config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := db.GetDBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}

			fmt.Printf("Initializing acode database at %s\n", dbPath)

			if err := db.InitSchema(); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}
			fmt.Println("✓ Database initialized successfully")

			locksDir, err := config.LocksDir()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(locksDir, 0o700); err != nil {
				return fmt.Errorf("failed to create locks directory: %w", err)
			}
			fmt.Println("✓ Lock directory created at", locksDir)

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if err := config.SaveConfig(cfg); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Println("✓ Config written to ~/.acode/config.json")
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  acode chat new \"My first chat\"")
			fmt.Println("  acode context")

			return nil
		},
	}
}
