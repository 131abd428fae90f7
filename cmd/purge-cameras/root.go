package main

import (
	"context"
	"fmt"
	"os"

	"github.com/edirooss/witness-console/internal/backend"
	"github.com/edirooss/witness-console/internal/config"
	"github.com/edirooss/witness-console/internal/metrics"
	"github.com/edirooss/witness-console/internal/repo"
	"github.com/edirooss/witness-console/internal/service"
	"github.com/edirooss/witness-console/pkg/fmtt"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "purge-cameras",
	Short: "Stop cameras on the AI backend and drop them from the persisted list",
	Long: `purge-cameras stops camera workers on the AI backend and rewrites the
persisted camera list through the same registry the console uses.

Stop specific cameras:
  purge-cameras labels Salon Cuisine

Stop every camera:
  purge-cameras all`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "witness-console.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "dump the full error chain on failure")
}

// env is what every subcommand needs: a logger and a registry loaded from Redis.
type env struct {
	log   *zap.Logger
	svc   *service.RegistryService
	close func()
}

func setup(ctx context.Context) (*env, error) {
	_ = godotenv.Load()
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := buildLogger().Named("main")
	rdb := repo.NewRedisClient(log, cfg.Redis.Addr, cfg.Redis.DB)
	store := repo.NewRepository(log, rdb, cfg.Redis.CameraListKey)

	svc := service.NewRegistryService(ctx, log, backend.NewClient(log, cfg.Backend, nil), store.Cameras, metrics.New(), cfg.Registry.DuplicateLabels)
	return &env{log: log, svc: svc, close: func() { _ = store.Close() }}, nil
}

// fail logs err and, under --debug, dumps its chain to stderr. The returned
// error makes cobra exit non-zero.
func (e *env) fail(msg string, err error, fields ...zap.Field) error {
	if debug {
		fmt.Fprintln(os.Stderr, "error chain:")
		fmtt.PrintErrChainDebug(os.Stderr, err)
	}
	e.log.Error(msg, append(fields, zap.Error(err))...)
	return err
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.DebugLevel)
	return zap.Must(logConfig.Build())
}
