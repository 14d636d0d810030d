package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/panvault-dev/panvault/internal/buildinfo"
	"github.com/panvault-dev/panvault/internal/config"
	"github.com/panvault-dev/panvault/internal/exchange"
	"github.com/panvault-dev/panvault/internal/store"
	"github.com/panvault-dev/panvault/internal/txlog"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dir string

	rootCmd := &cobra.Command{
		Use:     "panvault",
		Short:   "Citizen registry and banking store with signed cross-site exchange",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dir, "dir", ".", "project directory holding "+config.FileName)

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newCitizenCommand(&dir))
	rootCmd.AddCommand(newAccountCommand(&dir))
	rootCmd.AddCommand(newDepositCommand(&dir))
	rootCmd.AddCommand(newWithdrawCommand(&dir))
	rootCmd.AddCommand(newExportCommand(&dir))
	rootCmd.AddCommand(newValidateCommand(&dir))
	rootCmd.AddCommand(newImportCommand(&dir))

	return rootCmd
}

// project bundles the opened store and configuration for one site directory.
type project struct {
	dir   string
	cfg   *config.Config
	store *store.Store
	log   *txlog.Log // nil when no transaction log is configured
}

func openProject(dir string) (*project, error) {
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, err
	}

	st, err := store.Open(filepath.Join(dir, cfg.Storage.SnapshotPath))
	if err != nil {
		return nil, err
	}

	p := &project{dir: dir, cfg: cfg, store: st}
	if cfg.Storage.TxLogPath != "" {
		p.log = txlog.New(filepath.Join(dir, cfg.Storage.TxLogPath))
	}
	return p, nil
}

func (p *project) signingKey() []byte {
	return []byte(p.cfg.Exchange.SigningKey)
}

func (p *project) scope() exchange.Scope {
	return exchange.Scope(p.cfg.Exchange.SignatureScope)
}

// documentPath resolves an interchange document name against the configured
// documents directory; absolute paths pass through.
func (p *project) documentPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.dir, p.cfg.Exchange.DocumentsDir, name)
}
