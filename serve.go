package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tanpawarit/Chative-Travel-Intake/api"
	configx "github.com/tanpawarit/Chative-Travel-Intake/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg, err := configx.New[AppConfig]("APP")
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			appCfg.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx, *appCfg)
		if err != nil {
			return err
		}
		defer a.Close()

		handler, err := api.NewHandler(api.Options{
			Service:       a.service,
			Status:        a.status,
			Probe:         a.probe,
			Deliveries:    a.deliveries,
			CORSOrigins:   appCfg.CORSOrigins,
			ChatRateLimit: appCfg.ChatRateLimit,
		})
		if err != nil {
			return err
		}

		return serve(ctx, &http.Server{
			Addr:              appCfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}, appCfg.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides APP_ADDR)")
}

// serve runs srv until ctx is cancelled, then drains it within timeout.
func serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return err
		}
		return nil
	})

	return g.Wait()
}
