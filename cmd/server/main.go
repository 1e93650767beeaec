package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/SignCall/internal/adapters/classifier"
	router "github.com/dkeye/SignCall/internal/adapters/http"
	"github.com/dkeye/SignCall/internal/adapters/presence"
	"github.com/dkeye/SignCall/internal/adapters/rtc"
	"github.com/dkeye/SignCall/internal/app"
	"github.com/dkeye/SignCall/internal/app/orch"
	"github.com/dkeye/SignCall/internal/app/sign"
	"github.com/dkeye/SignCall/internal/config"
	"github.com/dkeye/SignCall/internal/core"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "signcall",
		Short:         "WebRTC signaling and live caption relay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile == "" {
				cfgFile = config.FileName()
			}
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				log.Error().Err(err).Msg("failed to load config")
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default config/config.$CONFIG_ENV.yaml)")
	cmd.Flags().Int("port", 8080, "listen port")
	cmd.Flags().String("mode", "release", "gin mode: debug, release or test")
	_ = v.BindPFlag("port", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("mode", cmd.Flags().Lookup("mode"))
	return cmd
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	store, closeStore, err := openPresence(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	policy, err := app.PolicyFromString(cfg.Backpressure)
	if err != nil {
		return err
	}
	ice, err := rtc.ICEServers(cfg.ICEServers)
	if err != nil {
		return err
	}

	var detector sign.Detector = classifier.Disabled
	if cfg.Classifier.URL != "" {
		detector = classifier.NewHTTPDetector(cfg.Classifier.URL, cfg.Classifier.Timeout)
	} else {
		log.Warn().Str("module", "main").Msg("classifier.url not set, sign detection disabled")
	}

	reg := app.NewRegistry()
	o := &orch.Orchestrator{
		Registry: reg,
		Rooms:    app.NewRoomManager(),
		Policy:   policy,
		Presence: app.NewPresenceBroadcaster(store, reg),
		Signs:    sign.NewAdapter(detector, cfg.Sign.MaxFrameBytes),
		Repeats:  sign.NewRepeats(cfg.Sign.RepeatWindow),
		Check:    rtc.CheckSignal,
	}

	r := router.SetupRouter(ctx, cfg, o, ice)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("SignCall server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
		return err
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}

func openPresence(ctx context.Context, cfg *config.Config) (core.PresenceStore, func(), error) {
	if cfg.Presence.Store != "sqlite" {
		return presence.NewMemoryStore(), func() {}, nil
	}
	s, err := presence.OpenSQLite(ctx, cfg.Presence.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {
		if err := s.Close(); err != nil {
			log.Error().Err(err).Str("module", "main").Msg("close presence store")
		}
	}, nil
}

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
