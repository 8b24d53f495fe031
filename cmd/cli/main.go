package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"hypotest/adapters/db/migrations"
	"hypotest/adapters/postgres"
	"hypotest/app"
	"hypotest/domain/stats"
	"hypotest/internal"
	"hypotest/internal/config"
	"hypotest/ports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// logLevel overrides LOG_LEVEL for the comparison service when set
var logLevel string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hypotest-cli",
		Short:         "Compare group means in CSV and XLSX files with two-sample t-tests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: error|warn|info|debug (default from LOG_LEVEL)")

	rootCmd.AddCommand(
		newCompareCmd(),
		newRunCmd(),
		newGroupsCmd(),
		newMissingCmd(),
		newDescribeCmd(),
		newTopCmd(),
	)
	return rootCmd
}

// serviceFor builds a comparison service from the environment. The database
// is opened and migrated only when results are to be saved.
func serviceFor(ctx context.Context, save bool) (*app.ComparisonService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	method, err := stats.ParseMethod(cfg.Analysis.Method)
	if err != nil {
		return nil, nil, err
	}
	alternative, err := stats.ParseAlternative(cfg.Analysis.Alternative)
	if err != nil {
		return nil, nil, err
	}
	defaults := app.AnalysisDefaults{
		Alpha:       cfg.Analysis.Alpha,
		Method:      method,
		Alternative: alternative,
		Concurrency: cfg.Analysis.Concurrency,
	}

	if !save {
		return withLogLevel(app.NewComparisonService(nil, defaults)), func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.NewMigrator(db).Up(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	var repo ports.ComparisonRepository = postgres.NewComparisonRepository(db)
	return withLogLevel(app.NewComparisonService(repo, defaults)), func() { db.Close() }, nil
}

func withLogLevel(svc *app.ComparisonService) *app.ComparisonService {
	if level, ok := internal.ParseLogLevel(logLevel); ok {
		svc.SetLogger(internal.NewLogger(level))
	}
	return svc
}
