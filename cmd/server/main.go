package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/rtclobby/internal/app"
	"github.com/vovakirdan/rtclobby/internal/auth"
	"github.com/vovakirdan/rtclobby/internal/config"
	applog "github.com/vovakirdan/rtclobby/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	def := config.Default()
	var configPath string

	root := &cobra.Command{
		Use:           "rtclobby",
		Short:         "WebRTC signaling lobby",
		Long:          "Serve a small lobby where browsers discover each other and exchange WebRTC session descriptions.",
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, configPath)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flags.StringP("bind", "b", def.Bind, "ip:port to listen on")
	flags.StringP("static-path", "s", def.StaticPath, "directory with static resources")
	flags.Int("max-clients", def.MaxClients, "maximum number of clients in the lobby")
	flags.String("log-level", def.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newTokenCmd(&configPath))
	return root
}

func serve(cmd *cobra.Command, configPath string) error {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("read log-level flag: %w", err)
	}
	logger := applog.New(level)

	cfg, err := config.Load(logger, configPath, cmd.Flags())
	if err != nil {
		logger.Error().Err(err).Msg("failed to load config")
		return err
	}
	logger = applog.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		if errors.Is(err, app.ErrIndexMissing) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintln(os.Stderr, `Are static files present?  Do you need to use "--static-path=..."?`)
		}
		return err
	}

	logger.Info().
		Str("bind", cfg.Bind).
		Str("static_path", cfg.StaticPath).
		Int("max_clients", cfg.MaxClients).
		Bool("admission_tokens", cfg.Admission.Secret != "").
		Msg("starting rtclobby")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newTokenCmd(configPath *string) *cobra.Command {
	var (
		subject string
		label   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admission token for the configured secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(nil, *configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.Admission.Secret == "" {
				return errors.New("admission.secret is not configured (set it in the config file or RTCLOBBY_ADMISSION_SECRET)")
			}
			if ttl == 0 {
				ttl = cfg.Admission.TTL
			}

			token, err := auth.GenerateToken(&auth.JWTConfig{
				Secret:   []byte(cfg.Admission.Secret),
				Issuer:   cfg.Admission.Issuer,
				Audience: cfg.Admission.Audience,
				TTL:      ttl,
			}, subject, label)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "guest", "token subject")
	cmd.Flags().StringVar(&label, "label", "", "free-form label stored in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to admission.ttl)")
	return cmd
}
