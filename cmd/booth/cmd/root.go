package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lugondev/exchange-booth/internal/common"
	"github.com/lugondev/exchange-booth/internal/config"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/metrics"
	"github.com/lugondev/exchange-booth/internal/processor"
	"github.com/lugondev/exchange-booth/internal/runtime"
	"github.com/lugondev/exchange-booth/internal/storage"
	_ "github.com/lugondev/exchange-booth/internal/storage/memory"
	_ "github.com/lugondev/exchange-booth/internal/storage/postgres"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "booth",
	Short: "Exchange booth - a two-asset exchange on a local ledger",
	Long: `booth runs the exchange booth program against a local ledger.

It provides commands for:
- Deriving booth, oracle and vault addresses
- Quoting conversions off-ledger
- Simulating booth lifecycles from YAML scenarios
- Inspecting persisted accounts and receipts
- Wallet management`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadWith(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(common.NewLogger(cfg.Log))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.booth.yaml or $HOME/.booth.yaml)")
	rootCmd.PersistentFlags().String("program-id", config.DefaultProgramID, "booth program address")
	rootCmd.PersistentFlags().String("storage", "memory", "storage backend (memory, postgres)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	bindings := map[string]string{
		"program.id":   "program-id",
		"storage.type": "storage",
		"log.level":    "log-level",
		"log.format":   "log-format",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding flag: %v\n", err)
		}
	}
}

// app is the wired stack shared by the ledger commands.
type app struct {
	logger    *slog.Logger
	programID solana.PublicKey
	conn      *storage.ConnectionManager
	repo      storage.Repository
	ledger    *ledger.Ledger
	runtime   *runtime.Runtime
	metrics   *metrics.LogMetrics
}

// newApp connects storage, loads the ledger from it and registers the booth.
func newApp(ctx context.Context) (*app, error) {
	logger := slog.Default()
	programID, err := cfg.Program.ProgramID()
	if err != nil {
		return nil, err
	}

	conn := storage.NewConnectionManager(&cfg.Storage)
	repo, err := conn.Connect(ctx)
	if err != nil {
		return nil, err
	}

	l := ledger.New(
		ledger.WithRent(ledger.Rent{
			LamportsPerByteYear: cfg.Rent.LamportsPerByteYear,
			ExemptionThreshold:  cfg.Rent.ExemptionThreshold,
		}),
		ledger.WithPersister(repo),
		ledger.WithLogger(logger),
	)
	if err := l.Load(ctx, repo.Accounts()); err != nil {
		_ = conn.Close()
		return nil, err
	}

	lm := metrics.NewLogMetrics(logger)
	booth := processor.NewBooth(programID,
		processor.WithRejectZeroOutput(cfg.Program.RejectZeroOutput),
		processor.WithLogger(logger),
	)
	rt := runtime.New(l,
		runtime.WithProgram(programID, booth),
		runtime.WithExecutionStore(repo.Executions()),
		runtime.WithMetrics(metrics.NewCollection(lm)),
		runtime.WithLogger(logger),
	)

	logger.Debug("booth ready",
		"program", programID.String(),
		"storage", cfg.Storage.Type,
		"accounts", l.Len(),
		"slot", l.Slot(),
	)
	return &app{
		logger:    logger,
		programID: programID,
		conn:      conn,
		repo:      repo,
		ledger:    l,
		runtime:   rt,
		metrics:   lm,
	}, nil
}

// Close flushes metrics and releases storage.
func (a *app) Close(ctx context.Context) error {
	_ = a.metrics.Flush(ctx)
	return a.conn.Close()
}
