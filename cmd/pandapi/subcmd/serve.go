package subcmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/pandapi/kernel/api"
	"github.com/openziti/pandapi/kernel/metrics"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func init() {
	RootCmd.AddCommand(NewServeCommand())
}

func NewServeCommand() *cobra.Command {
	serveCmd := &ServeCommand{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the pandapi HTTP server",
		RunE:  serveCmd.run,
	}

	cmd.Flags().StringVar(&serveCmd.Listen, "listen", "", "listen address (overrides config)")

	return cmd
}

type ServeCommand struct {
	Listen string
}

func (s *ServeCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if s.Listen != "" {
		cfg.Listen = s.Listen
	}

	m := metrics.NewMetrics()
	e, err := newEngine(cfg, m)
	if err != nil {
		return err
	}

	log := pfxlog.Logger().WithField("component", "serve")
	srv := api.NewServer(e,
		api.WithMetricsHandler(m.Handler()),
		api.WithLogger(pfxlog.Logger().WithField("component", "api")),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Listen)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = e.Shutdown(context.Background())
			return errors.Wrapf(err, "unable to serve on [%s]", cfg.Listen)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown incomplete")
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("lifecycle shutdown incomplete")
	}
	return nil
}
