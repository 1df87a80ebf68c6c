package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	postgresmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sk123/theyownwhat-sub000/config"
	"github.com/sk123/theyownwhat-sub000/internal/repositories/business"
	"github.com/sk123/theyownwhat-sub000/internal/repositories/network"
	"github.com/sk123/theyownwhat-sub000/internal/repositories/principal"
	"github.com/sk123/theyownwhat-sub000/internal/repositories/property"
	"github.com/sk123/theyownwhat-sub000/internal/repositories/rulestore"
	"github.com/sk123/theyownwhat-sub000/internal/repositories/run"
	"github.com/sk123/theyownwhat-sub000/pkg/database"
	"github.com/sk123/theyownwhat-sub000/pkg/events"
	"github.com/sk123/theyownwhat-sub000/pkg/graph"
	"github.com/sk123/theyownwhat-sub000/pkg/kafka"
	"github.com/sk123/theyownwhat-sub000/pkg/lock"
	"github.com/sk123/theyownwhat-sub000/pkg/logging"
	"github.com/sk123/theyownwhat-sub000/pkg/middleware"
	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/pipeline"
	"github.com/sk123/theyownwhat-sub000/pkg/publish"
	"github.com/sk123/theyownwhat-sub000/pkg/routes/health"
	"github.com/sk123/theyownwhat-sub000/pkg/routes/status"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read configuration: %v\n", err)
		os.Exit(1)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, flush := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	defer flush()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))
	defer tp.Shutdown(context.Background()) //nolint:errcheck

	rootCmd := &cobra.Command{
		Use:          "theyownwhat",
		Short:        "Ownership network discovery over property records",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(createRebuildCmd(&cfg, logger))
	rootCmd.AddCommand(createMigrateCmd(&cfg, logger))
	rootCmd.AddCommand(createServeCmd(&cfg, logger))
	rootCmd.AddCommand(createPingCmd(&cfg, logger))

	if err := rootCmd.Execute(); err != nil {
		flush()
		os.Exit(1)
	}
}

func connectConfig(cfg *config.Config) database.ConnectConfig {
	return database.ConnectConfig{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
		RetryCount:      cfg.DatabaseReconnectRetryCount,
	}
}

// createRebuildCmd creates the command that runs one full resolution cycle:
// dedupe, link, build the graph, discover networks, publish.
func createRebuildCmd(cfg *config.Config, logger ectologger.Logger) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Run one resolution cycle and publish the network snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := database.Connect(ctx, connectConfig(cfg), logger)
			if err != nil {
				return err
			}
			defer db.Close()

			runs := run.NewRepository(db, logger)
			locker := lock.NewLocker(db, logger)

			held, err := locker.Acquire(ctx, cfg.RebuildLockKey)
			if errors.Is(err, lock.ErrLockNotAcquired) {
				// A concurrent trigger is not a failure. Record the
				// skip so operators can see the collision.
				logger.WithContext(ctx).Warn("Another rebuild holds the lock; skipping this trigger")
				now := time.Now().UTC()
				skipped := &models.PipelineRun{
					RunID:      uuid.New().String(),
					Status:     "skipped",
					Forced:     force,
					StartedAt:  now,
					FinishedAt: &now,
				}
				if saveErr := runs.Save(ctx, skipped); saveErr != nil {
					logger.WithContext(ctx).WithError(saveErr).Warn("Failed to record skipped run")
				}
				return nil
			}
			if err != nil {
				return err
			}
			defer held.Release(ctx) //nolint:errcheck

			var notifier pipeline.RunNotifier
			if cfg.KafkaEnabled {
				producer := kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaOutputTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, logger)
				defer producer.Close() //nolint:errcheck
				notifier = events.NewEmitter(producer, logger)
			}

			var sink pipeline.SnapshotSink
			if cfg.GraphProjectionEnabled {
				projector, gerr := graph.Connect(ctx, graph.Config{
					Host:     cfg.GraphDBHost,
					Port:     cfg.GraphDBPort,
					Username: cfg.GraphDBUser,
					Password: cfg.GraphDBPassword,
				}, logger)
				if gerr != nil {
					return gerr
				}
				defer projector.Close(ctx) //nolint:errcheck
				sink = projector
			}

			networks := network.NewRepository(db, logger)
			p := pipeline.New(
				cfg,
				business.NewRepository(db, logger),
				principal.NewRepository(db, logger),
				property.NewRepository(db, logger),
				rulestore.NewRepository(db, logger),
				runs,
				publish.NewPublisher(networks, cfg.PublishDeltaWarnRatio, logger),
				sink,
				notifier,
				logger,
			)

			summary, err := p.Run(ctx, force)
			if err != nil {
				return err
			}

			logger.WithFields(map[string]any{
				"run_id":       summary.RunID,
				"networks":     summary.NetworkCount,
				"memberships":  summary.MembershipCount,
				"linked":       summary.PropertiesLinked,
				"unlinked":     summary.PropertiesUnlinked,
				"warnings":     summary.WarningCount,
				"duration_sec": summary.FinishedAt.Sub(summary.StartedAt).Seconds(),
			}).Info("Rebuild finished")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "re-link every property instead of only the unlinked ones")
	return cmd
}

// createMigrateCmd creates the command that applies database migrations.
func createMigrateCmd(cfg *config.Config, logger ectologger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := database.Connect(ctx, connectConfig(cfg), logger)
			if err != nil {
				return err
			}
			defer db.Close()

			driver, err := postgresmigrate.WithInstance(db.Unsafe().DB, &postgresmigrate.Config{})
			if err != nil {
				logger.WithError(err).Error("Failed to create migration driver")
				return err
			}

			return database.RunMigrations(logger, database.MigrationConfig{
				FolderPath: cfg.DatabaseMigrationFolderPath,
				Version:    uint(cfg.DatabaseMigrationVersion),
				Force:      cfg.DatabaseMigrationForce,
			}, cfg.DatabaseName, driver)
		},
	}
}

// createServeCmd creates the command that serves the status API.
func createServeCmd(cfg *config.Config, logger ectologger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the health and status API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := database.Connect(ctx, connectConfig(cfg), logger)
			if err != nil {
				return err
			}
			defer db.Close()

			e := echo.New()
			e.HideBanner = true
			e.Use(echomiddleware.Recover())
			e.Use(otelecho.Middleware(cfg.AppName))
			e.Use(middleware.Logger(logger))
			e.HTTPErrorHandler = middleware.ErrorHandler(logger)

			checker := health.NewChecker(db, version)
			checker.RegisterRoutes(e)

			handler := status.NewHandler(
				run.NewRepository(db, logger),
				network.NewRepository(db, logger),
				lock.NewLocker(db, logger),
				cfg.RebuildLockKey,
			)
			handler.RegisterRoutes(e)

			checker.SetReady(true)

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Port),
				ReadTimeout:  time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
				WriteTimeout: time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
			}

			logger.WithFields(map[string]any{"port": cfg.Port}).Info("Starting status server")
			if err := e.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

// createPingCmd creates a command to test database connectivity.
func createPingCmd(cfg *config.Config, logger ectologger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := database.Connect(ctx, connectConfig(cfg), logger)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Println("Database connection successful!")

			counts := []struct {
				label string
				query string
			}{
				{"businesses", "SELECT COUNT(*) FROM businesses"},
				{"raw principals", "SELECT COUNT(*) FROM raw_principals"},
				{"properties", "SELECT COUNT(*) FROM properties"},
				{"published networks", "SELECT COUNT(*) FROM networks"},
			}
			for _, c := range counts {
				var n int
				if err := db.GetContext(ctx, &n, c.query); err != nil {
					logger.WithError(err).Warnf("Failed to count %s", c.label)
					continue
				}
				fmt.Printf("%s: %d\n", c.label, n)
			}
			return nil
		},
	}
}
