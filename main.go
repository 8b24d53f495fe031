package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"hypotest/adapters/db/migrations"
	"hypotest/adapters/postgres"
	"hypotest/app"
	"hypotest/domain/stats"
	"hypotest/internal/api"
	"hypotest/internal/config"
	"hypotest/internal/errors"
)

// initDatabase opens the configured database and brings its schema up to date
func initDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	db, err := postgres.Open(ctx, appConfig.Database.Driver, appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := migrations.NewMigrator(db).Up(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func analysisDefaults(appConfig *config.Config) (app.AnalysisDefaults, error) {
	method, err := stats.ParseMethod(appConfig.Analysis.Method)
	if err != nil {
		return app.AnalysisDefaults{}, errors.ConfigInvalid(err.Error())
	}
	alternative, err := stats.ParseAlternative(appConfig.Analysis.Alternative)
	if err != nil {
		return app.AnalysisDefaults{}, errors.ConfigInvalid(err.Error())
	}
	return app.AnalysisDefaults{
		Alpha:       appConfig.Analysis.Alpha,
		Method:      method,
		Alternative: alternative,
		Concurrency: appConfig.Analysis.Concurrency,
	}, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	defaults, err := analysisDefaults(appConfig)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	service := app.NewComparisonService(postgres.NewComparisonRepository(db), defaults)

	var metrics *api.Metrics
	if appConfig.Metrics.Enabled {
		metrics = api.NewMetrics()
	}
	server := api.NewServer(service, metrics)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting hypotest server on port %s (%s database)", appConfig.Server.Port, appConfig.Database.Driver)
		errCh <- server.Start(":" + appConfig.Server.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
		}
	}
}
