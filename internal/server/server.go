package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/tanq16/pulldown/internal/controller"
	"github.com/tanq16/pulldown/internal/utils"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Serve applies ctrl's events and serves the control API on ln until ctx is
// cancelled. Every worker has stopped when it returns.
func Serve(ctx context.Context, ln net.Listener, ctrl *controller.Controller) error {
	log := utils.GetLogger("server")
	srv := &http.Server{
		Handler:           NewRouter(ctrl),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("control api listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error serving control api: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		for {
			select {
			case ev := <-ctrl.Events():
				if err := ctrl.Apply(ev); err != nil {
					return err
				}
			case <-gctx.Done():
				return nil
			}
		}
	})

	err := g.Wait()
	ctrl.Shutdown()
	log.Info().Int("downloads", len(ctrl.Records())).Msg("control api stopped")
	return err
}
