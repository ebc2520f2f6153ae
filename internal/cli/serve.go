package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/consorcio/backend/internal/controllers/v1"
	"github.com/consorcio/backend/internal/router"
	"github.com/consorcio/backend/internal/scheduler"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the overdue sweep schedule",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The router reads its settings from the environment
	if err := cfg.Export(); err != nil {
		return err
	}

	e, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase()

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	s, err := scheduler.New(ctx, e.Sweeper, cfg.Schedule.SweepCron, loc)
	if err != nil {
		return err
	}

	if cfg.Schedule.RunOnStart {
		// A failed sweep does not prevent the start, it is logged
		_, _ = s.RunNow()
	}

	s.Start()
	defer s.Stop()

	baseURL, err := url.Parse(cfg.Server.APIURL)
	if err != nil {
		return fmt.Errorf("server.api_url: %w", err)
	}

	r, teardown, err := router.Config(baseURL, e.Metrics().Collectors()...)
	defer teardown()
	if err != nil {
		return err
	}
	router.AttachRoutes(v1.New(e), r.Group("/"))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("address", server.Addr).Str("next_sweep", s.Next().String()).Msg("listening")
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(shutdown)
}
