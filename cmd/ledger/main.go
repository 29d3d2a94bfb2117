package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"budgetly/internal/backend"
	"budgetly/internal/cli"
	"budgetly/internal/config"
	"budgetly/internal/log"
)

// app is the state shared by every subcommand once the root pre-run has
// opened the ledger.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	store   *backend.BackendResult
	runtime *cli.Runtime
	owner   string
	cancel  context.CancelFunc
}

var (
	owner   string
	current *app
	rootCmd = &cobra.Command{
		Use:   "ledger",
		Short: "Personal expense ledger",
		Long: `ledger records expenses, tracks budgets and recurring bills,
and summarizes spending for one owner at a time.`,
		SilenceUsage:       true,
		PersistentPreRunE:  openApp,
		PersistentPostRunE: closeApp,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&owner, "owner", "", "ledger owner (default: $LEDGER_OWNER)")

	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(quickAddCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(restoreCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(insightsCmd())
	rootCmd.AddCommand(budgetsCmd())
	rootCmd.AddCommand(templatesCmd())
	rootCmd.AddCommand(tickCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(categoriesCmd())
}

func main() {
	cli.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openApp(cmd *cobra.Command, _ []string) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg, log.ComponentCLI)

	ctx, cancel := context.WithCancel(cmd.Context())
	store, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		cancel()
		return err
	}
	rt, err := cli.NewRuntime(ctx, cfg, store)
	if err != nil {
		cancel()
		if store.Cleanup != nil {
			_ = store.Cleanup()
		}
		return err
	}

	a := &app{cfg: cfg, logger: logger, store: store, runtime: rt, owner: owner, cancel: cancel}
	if a.owner == "" {
		a.owner = cfg.DefaultOwner
	}
	cmd.SetContext(log.WithLogger(ctx, logger))
	current = a
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if current == nil {
		return nil
	}
	current.runtime.Close()
	current.cancel()
	current.runtime.Caches.Wait()
	err := current.logger.Close()
	current = nil
	return err
}
