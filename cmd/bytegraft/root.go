package main

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

var cfg = viper.New()

var rootCmd = &cobra.Command{
	Use:   "bytegraft",
	Short: "Graft patch code into compiled JVM classes",
	Long: `bytegraft retargets the type, field and method references of compiled
classes so that code written against one class layout runs against another.

Settings come from flags, BYTEGRAFT_* environment variables and an optional
bytegraft.yaml in the working directory, in that order of precedence.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.SetVersionTemplate("bytegraft version {{.Version}}\n")
	rootCmd.PersistentFlags().String("config", "", "Settings file (default: ./bytegraft.yaml if present)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")
}

// setup loads settings and installs the logger for every command.
func setup(cmd *cobra.Command, _ []string) error {
	cfg.SetEnvPrefix("BYTEGRAFT")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	cfg.AutomaticEnv()

	if err := cfg.BindPFlags(cmd.Flags()); err != nil {
		return errors.Errorf("failed to bind flags: %w", err)
	}

	if file := cfg.GetString("config"); file != "" {
		cfg.SetConfigFile(file)
	} else {
		cfg.SetConfigName("bytegraft")
		cfg.SetConfigType("yaml")
		cfg.AddConfigPath(".")
	}

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Errorf("failed to read settings: %w", err)
		}
	}

	level := slog.LevelInfo
	if cfg.GetBool("verbose") {
		level = slog.LevelDebug
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})

	logger := slog.New(slogctx.NewHandler(handler, nil))
	slog.SetDefault(logger)
	cmd.SetContext(slogctx.NewCtx(cmd.Context(), logger))

	return nil
}
