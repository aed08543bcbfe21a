package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/acode/internal/config"
	"github.com/example/acode/internal/db"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the acode environment",
		Long: `Environment health check for acode.

Validates:
- Directory structure (~/.acode/, ~/.acode/locks/)
- Database file and schema
- Config file syntax
- Binary installation and PATH

Examples:
  acode doctor              # Run full health check
  acode doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := []CheckResult{}
			hasErrors := false

			results = append(results, checkDirectories())
			results = append(results, checkDatabase())
			results = append(results, checkConfig())
			results = append(results, checkBinary())

			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println("Check              Status")
				fmt.Println("─────────────────────────")
				for _, r := range results {
					fmt.Printf("%-18s %s\n", r.Name, r.Status)
				}
				fmt.Println()

				hasDetails := false
				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						if !hasDetails {
							fmt.Println("Details:")
							hasDetails = true
						}
						fmt.Printf("\n%s:\n%s\n", r.Name, r.Details)
					}
				}

				if hasErrors {
					fmt.Println("\n⚠ Issues found. Run 'acode init' to repair the state directory.")
				} else {
					fmt.Println("All checks passed.")
				}
			}

			if hasErrors {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

// checkDirectories validates required directory structure
func checkDirectories() CheckResult {
	homeDir, err := config.HomeDir()
	if err != nil {
		return CheckResult{Name: "Directories", Status: "✗", Details: "  Cannot resolve home directory"}
	}

	missing := []string{}

	if _, err := os.Stat(homeDir); os.IsNotExist(err) {
		missing = append(missing, "~/.acode/")
	}

	locksDir := filepath.Join(homeDir, "locks")
	if _, err := os.Stat(locksDir); os.IsNotExist(err) {
		missing = append(missing, "~/.acode/locks/")
	}

	if len(missing) > 0 {
		return CheckResult{
			Name:    "Directories",
			Status:  "✗",
			Details: "  Missing: " + strings.Join(missing, ", "),
		}
	}

	return CheckResult{Name: "Directories", Status: "✓"}
}

// checkDatabase verifies the database file exists and is reachable
func checkDatabase() CheckResult {
	dbPath, err := db.GetDBPath()
	if err != nil {
		return CheckResult{Name: "Database", Status: "✗", Details: "  Cannot resolve database path"}
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: "  ~/.acode/acode.db not found\n  Run: acode init",
		}
	}

	database, err := db.GetDB()
	if err != nil {
		return CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: fmt.Sprintf("  Cannot open database: %v", err),
		}
	}

	var count int
	row := database.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'outbox'`)
	if err := row.Scan(&count); err != nil || count == 0 {
		return CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: "  Schema missing or incomplete\n  Run: acode init",
		}
	}

	return CheckResult{Name: "Database", Status: "✓"}
}

// checkConfig validates config.json syntax if present
func checkConfig() CheckResult {
	homeDir, err := config.HomeDir()
	if err != nil {
		return CheckResult{Name: "Config", Status: "✗", Details: "  Cannot resolve home directory"}
	}

	configPath := filepath.Join(homeDir, "config.json")
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		// Missing config is fine, defaults apply.
		return CheckResult{Name: "Config", Status: "✓"}
	}
	if err != nil {
		return CheckResult{
			Name:    "Config",
			Status:  "✗",
			Details: fmt.Sprintf("  Cannot read config.json: %v", err),
		}
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return CheckResult{
			Name:    "Config",
			Status:  "✗",
			Details: "  Invalid JSON in ~/.acode/config.json",
		}
	}

	return CheckResult{Name: "Config", Status: "✓"}
}

// checkBinary validates acode binary installation
func checkBinary() CheckResult {
	binPath, err := exec.LookPath("acode")
	if err != nil {
		return CheckResult{
			Name:    "Binary",
			Status:  "⚠",
			Details: "  'acode' not found in PATH\n  Run: make install",
		}
	}

	return CheckResult{Name: "Binary", Status: "✓", Details: fmt.Sprintf("  %s", binPath)}
}
