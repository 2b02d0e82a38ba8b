package main

import (
	"context"
	"fmt"
	"os"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openmetro/transitdash"
	"github.com/openmetro/transitdash/config"
	"github.com/openmetro/transitdash/storage"
)

var rootCmd = &cobra.Command{
	Use:          "transitdash",
	Short:        "GTFS dashboard server",
	Long:         "Derives dashboard statistics from a GTFS feed and serves them over HTTP",
	SilenceUsage: true,
}

var (
	configPath string
	feedSource string
	storageDir string
	logLevel   string
)

var logLevels = map[string]logrus.Level{
	"debug": logrus.DebugLevel,
	"info":  logrus.InfoLevel,
	"warn":  logrus.WarnLevel,
	"error": logrus.ErrorLevel,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&feedSource, "feed", "f", "", "Feed archive URL or file path")
	rootCmd.PersistentFlags().StringVarP(&storageDir, "storage-dir", "", "", "Directory for the sqlite cache (empty for in-memory)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "", "Log level (debug, info, warn, error)")
}

func main() {
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05",
		LogFormat:       "[%time%] [%lvl%] %msg%\n",
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Flags override file and environment configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if feedSource != "" {
		cfg.FeedSource = feedSource
	}
	if storageDir != "" {
		cfg.StorageDir = storageDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	level, ok := logLevels[cfg.LogLevel]
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	logrus.SetLevel(level)

	if cfg.FeedSource == "" {
		return nil, fmt.Errorf("feed source is required (--feed, FEED_SOURCE or config file)")
	}

	return cfg, nil
}

func openStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.StorageDir == "" {
		return storage.NewMemoryStorage(), nil
	}
	return storage.NewSQLiteStorage(storage.SQLiteConfig{
		OnDisk:    true,
		Directory: cfg.StorageDir,
	})
}

func loadSnapshot(ctx context.Context, cfg *config.Config) (*transitdash.Snapshot, error) {
	store, err := openStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return transitdash.LoadSnapshot(ctx, cfg.FeedSource, store, nil)
}
