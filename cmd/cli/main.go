package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/cmd/cli/commands"
	"github.com/jakechorley/watchtower/internal/config"
	"github.com/jakechorley/watchtower/pkg/core/registry"
	"github.com/jakechorley/watchtower/pkg/metrics"
	"github.com/jakechorley/watchtower/pkg/sqlstore"
	"github.com/jakechorley/watchtower/pkg/utils/logging"
)

const lockPrefix = "watchtower:generation:"

var (
	env         string
	metricsAddr string
	app         *commands.AppContext

	redisClient   *redis.Client
	metricsServer *metrics.Server
)

func main() {
	// app is populated by initApp before any RunE executes
	app = &commands.AppContext{}

	rootCmd := &cobra.Command{
		Use:   "watchtower",
		Short: "Watchtower - police roster generation and EBA compliance",
		Long: `A CLI tool for generating station rosters, checking them against the
Enterprise Bargaining Agreement, and tracking member fatigue and corro rotation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	_ = rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the command runs")

	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ImportShiftsCmd(app))
	rootCmd.AddCommand(commands.ComplianceCmd(app))
	rootCmd.AddCommand(commands.FatigueCmd(app))
	rootCmd.AddCommand(commands.FatigueReportCmd(app))
	rootCmd.AddCommand(commands.CorroCmd(app))
	rootCmd.AddCommand(commands.GenerateCmd(app))
	rootCmd.AddCommand(commands.RosterCmd(app))
	rootCmd.AddCommand(commands.RostersCmd(app))
	rootCmd.AddCommand(commands.PublishCmd(app))
	rootCmd.AddCommand(commands.ExportCmd(app))
	rootCmd.AddCommand(commands.PublicationAlertsCmd(app))
	rootCmd.AddCommand(commands.AckAlertCmd(app))
	rootCmd.AddCommand(commands.PublicationComplianceCmd(app))
	rootCmd.AddCommand(commands.PreferencesCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	err := rootCmd.Execute()
	if err != nil {
		shutdown()
		os.Exit(1)
	}
}

// initApp sets up config, logger, database, locks and metrics
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()
	app.Out = os.Stdout
	app.Now = time.Now

	// Load configuration (the log level lives in the environment)
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	environment := app.Cfg.Environment

	// Initialize logger
	app.Logger, err = logging.InitLogger(env, environment.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", env))
	app.Logger.Debug("Configuration loaded successfully", zap.Strings("stations", app.Cfg.Stations))

	// OAuth is only needed when publishing to the roster sheet
	app.OAuthCfg, err = config.LoadRosterSheetOAuth(env)
	switch {
	case errors.Is(err, config.ErrRosterSheetDisabled):
		app.Logger.Debug("No OAuth client file, roster sheet publishing disabled", zap.Error(err))
	case err != nil:
		return fmt.Errorf("failed to load roster sheet OAuth client: %w", err)
	}

	// Open database
	app.Logger.Info("Connecting to database", zap.String("dialect", environment.Database.Dialect))
	database, err := sqlstore.Open(app.Ctx, sqlstore.Dialect(environment.Database.Dialect), environment.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	app.Database = database
	app.Logger.Debug("Database connected")

	// Generation locks are shared through Redis when configured
	if environment.Redis.Addr != "" {
		app.Logger.Info("Using Redis generation locks", zap.String("addr", environment.Redis.Addr))
		redisClient = redis.NewClient(&redis.Options{
			Addr:     environment.Redis.Addr,
			Password: environment.Redis.Password,
		})
		ttl := time.Duration(environment.Redis.LockTTL) * time.Second
		app.Locker = registry.NewRedisLocker(redisClient, lockPrefix, ttl, app.Logger)
	} else {
		app.Locker = registry.NewMemoryLocker()
	}
	app.PublishLock = registry.NewKeyedMutex()

	// Metrics
	addr := metricsAddr
	if addr == "" {
		addr = environment.MetricsAddr
	}
	if addr != "" {
		reg := prometheus.NewRegistry()
		app.Metrics = metrics.NewPrometheus(reg, metrics.DefaultNamespace)
		metricsServer = metrics.NewServer(addr, reg, app.Logger)
		metricsServer.Start()
	} else {
		app.Metrics = metrics.NewNop()
	}

	return nil
}

// shutdown releases everything initApp opened. Safe to call more than once.
func shutdown() {
	if app.Logger == nil {
		return
	}

	app.Close()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			app.Logger.Warn("Failed to close redis client", zap.Error(err))
		}
		redisClient = nil
	}

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			app.Logger.Warn("Failed to stop metrics server", zap.Error(err))
		}
		metricsServer = nil
	}

	_ = app.Logger.Sync()
}
