package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vovakirdan/citychain-server/internal/app"
	"github.com/vovakirdan/citychain-server/internal/config"
	"github.com/vovakirdan/citychain-server/internal/log"
)

type flags struct {
	configPath  string
	addr        string
	rooms       int
	turnTimeout time.Duration
	logLevel    string
}

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "citychain-server",
		Short:         "Two-player city word-chain game server over WebSocket.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&f.configPath, "config", "c", "", "path to config file (env: CITYCHAIN_CONFIG_DEFAULT_PATH for the directory)")
	fs.StringVar(&f.addr, "addr", "", "HTTP listen address (env: CITYCHAIN_ADDR)")
	fs.IntVar(&f.rooms, "rooms", 0, "number of game rooms (env: CITYCHAIN_ROOMS)")
	fs.DurationVar(&f.turnTimeout, "turn-timeout", 0, "time a player has to name a city (env: CITYCHAIN_TURN_TIMEOUT)")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (env: CITYCHAIN_LOG_LEVEL)")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

func run(cmd *cobra.Command, f flags) error {
	bootLogger := log.New("info")

	cfg, configPath, err := config.Load(bootLogger, f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(config.Config{
		Addr:        f.addr,
		Rooms:       f.rooms,
		TurnTimeout: f.turnTimeout,
		LogLevel:    f.logLevel,
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().
		Str("config", configPath).
		Int("rooms", cfg.Rooms).
		Dur("turn_timeout", cfg.TurnTimeout).
		Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting citychain server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

