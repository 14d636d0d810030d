package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/panvault-dev/panvault/internal/config"
)

func newInitCommand() *cobra.Command {
	var label string
	var signingKey string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new panvault site",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, label, signingKey)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "site label embedded in exports (required)")
	_ = cmd.MarkFlagRequired("label")
	cmd.Flags().StringVar(&signingKey, "signing-key", "", "shared key for export signatures (required)")
	_ = cmd.MarkFlagRequired("signing-key")

	return cmd
}

func runInit(dir, label, signingKey string) error {
	cfg := config.Default(label, signingKey)

	dirs := []string{
		cfg.Exchange.DocumentsDir,
		filepath.Dir(cfg.Storage.SnapshotPath),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Initialized panvault site %q at %s\n", label, dir)
	return nil
}
