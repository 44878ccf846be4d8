package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"birthday-app/internal/app"
	"birthday-app/internal/config"
	"birthday-app/internal/logger"
)

var (
	// Global flags
	configPath string
	envFile    string
	ephemeral  bool

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "birthday",
	Short: "Birthday celebration page",
	Long: `Serves the birthday page: photo albums, a wishes board, the countdown,
the memories timeline and the celebration effects.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(envFile)
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every stored album and wish",
	Long: `Deletes the persisted album list and wishes board. The next start seeds
the default wishes again. Uploaded files are not touched.`,
	RunE: runReset,
}

func init() {
	defaultConfig := os.Getenv("APP_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "config.yaml"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "path to the YAML config")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep state in memory only")

	rootCmd.AddCommand(serveCmd, resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if ephemeral {
		cfg.Storage.Driver = "memory"
	}

	log, err = logger.New(cfg.Log.Level)
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("init app", zap.Error(err))
		return err
	}
	defer a.Close()

	log.Info("starting",
		zap.String("env", cfg.Env),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("blobs", cfg.Blobs.Driver),
		zap.String("friend", cfg.Celebration.FriendName))

	if err := a.Run(ctx); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	kv, err := app.OpenKV(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer kv.Close()

	if err := app.Reset(ctx, kv); err != nil {
		return err
	}
	log.Info("stored albums and wishes removed", zap.String("storage", cfg.Storage.Driver))
	return nil
}
