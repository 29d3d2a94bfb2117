package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"budgetly/internal/backend"
	"budgetly/internal/services"
	"budgetly/internal/storage"
)

func tickCmd() *cobra.Command {
	var (
		all bool
		at  string
	)
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Generate due recurring expenses",
		Long: `Runs the recurrence engine once. Every active template that is due
produces one expense dated today and is marked as generated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = t
			}

			var (
				res services.TickResult
				err error
			)
			if all {
				res, err = current.runtime.Engine.RunAll(cmd.Context(), now)
			} else {
				res, err = current.runtime.Engine.Run(cmd.Context(), current.owner, now)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Generated %d of %d checked templates, %d failed\n", len(res.Generated), res.Checked, len(res.Failures))
			for _, f := range res.Failures {
				fmt.Printf("  %s: %v\n", f.TemplateID, f.Err)
			}
			current.runtime.Service.Invalidate(current.owner)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "run for every owner in the store")
	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this instant (RFC 3339)")
	return cmd
}

func migrateCmd() *cobra.Command {
	var (
		to         string
		sqlitePath string
		dsn        string
		dir        string
		passphrase string
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy the owner's ledger into another backend",
		Example: `  ledger migrate --to sqlite --sqlite-path ./data/budgetly.db
  LEDGER_BACKEND=sqlite ledger migrate --to postgres --dsn postgres://...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dstCfg := backend.Config{
				Type:                backend.BackendType(to),
				SQLiteDBPath:        sqlitePath,
				PostgresDSN:         dsn,
				FileStoreDir:        dir,
				FileStorePassphrase: passphrase,
			}
			if dstCfg.Type == backend.BackendType(current.cfg.LedgerBackend) {
				return fmt.Errorf("source and destination are both %s", to)
			}
			dst, err := backend.NewFactory(current.logger.Logger).CreateBackend(cmd.Context(), dstCfg)
			if err != nil {
				return err
			}
			if dst.Cleanup != nil {
				defer dst.Cleanup()
			}

			res, err := storage.Migrate(cmd.Context(), current.store.Store, dst.Store, current.owner)
			if err != nil {
				return err
			}
			fmt.Printf("Copied %d expenses, %d budgets, %d templates (%d errors)\n",
				res.Expenses, res.Budgets, res.Templates, len(res.Errors))
			for _, e := range res.Errors {
				current.logger.Warn("Record not migrated", "error", e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "destination backend: "+joinTypes())
	cmd.Flags().StringVar(&sqlitePath, "sqlite-path", "", "destination SQLite file")
	cmd.Flags().StringVar(&dsn, "dsn", "", "destination Postgres DSN")
	cmd.Flags().StringVar(&dir, "dir", "", "destination directory for the file backend")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "encrypt file backend ledgers")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func joinTypes() string {
	return strings.Join(backend.GetBackendTypeStrings(), ", ")
}

