package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "roundtrip",
		Short:        "Atomic two-leg Jupiter round trips on Solana",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")

	root.AddCommand(newRunCmd(), newQuoteCmd(), newServeCmd(), newWatchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM, which also stops
// confirmation polling.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	// stdout carries command output
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

// setLevel applies the --log-level flag, falling back to fallback.
func setLevel(cmd *cobra.Command, logger *logrus.Logger, fallback string) {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = fallback
	}
	if level == "" {
		return
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("unknown log level, keeping info")
		return
	}
	logger.SetLevel(lvl)
}

// bootstrap loads the dotenv file and the configuration. Values already in
// the environment win over the file.
func bootstrap(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	logger := newLogger()
	loadEnv(cmd, logger)

	cfg, err := config.Load()
	if err != nil {
		return nil, logger, err
	}
	setLevel(cmd, logger, cfg.LogLevel)
	return cfg, logger, nil
}

func loadEnv(cmd *cobra.Command, logger *logrus.Logger) {
	envPath, _ := cmd.Flags().GetString("env-file")
	if envPath == "" {
		return
	}
	if err := config.LoadDotEnv(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Debugf("loaded .env from %s", envPath)
	}
}
