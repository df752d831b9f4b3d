package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/allears/helpdesk/pkg/hd/logger"
)

// Startable represents a component that can be started.
type Startable interface {
	Start(context.Context) error
}

// Stoppable represents a component that can be stopped.
type Stoppable interface {
	Stop(context.Context) error
}

// RouteRegistrar represents a component that registers HTTP routes.
type RouteRegistrar interface {
	RegisterRoutes(chi.Router)
}

// Lifecycle holds the start order of components and what to undo on shutdown.
type Lifecycle struct {
	comps      []any
	stops      []func(context.Context) error
	registrars []RouteRegistrar
	log        logger.Logger
}

// Setup inspects each component for RouteRegistrar, Startable and Stoppable, in order.
func Setup(log logger.Logger, comps ...any) *Lifecycle {
	lc := &Lifecycle{comps: comps, log: log}
	for _, c := range comps {
		if rr, ok := c.(RouteRegistrar); ok {
			lc.registrars = append(lc.registrars, rr)
		}
	}
	return lc
}

// Start starts components in order. If one fails, the components already started are
// stopped in reverse order and the error is returned. Routes are registered only after
// every component started.
func (lc *Lifecycle) Start(ctx context.Context, router chi.Router) error {
	for i, c := range lc.comps {
		if s, ok := c.(Startable); ok {
			if err := s.Start(ctx); err != nil {
				lc.log.Errorf("error starting component #%d: %v", i, err)
				lc.Stop(context.Background())
				return err
			}
		}
		if st, ok := c.(Stoppable); ok {
			lc.stops = append(lc.stops, st.Stop)
		}
	}

	for _, rr := range lc.registrars {
		rr.RegisterRoutes(router)
	}
	return nil
}

// Stop stops started components in reverse order (LIFO).
func (lc *Lifecycle) Stop(ctx context.Context) {
	for i := len(lc.stops) - 1; i >= 0; i-- {
		if err := lc.stops[i](ctx); err != nil {
			lc.log.Errorf("error stopping component #%d: %v", i, err)
		}
	}
	lc.stops = nil
}

// NewServer builds the HTTP server with conservative timeouts for a public form.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}

// Serve starts the HTTP server and blocks until it's shut down.
func Serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown performs graceful shutdown of the HTTP server and all components.
func (lc *Lifecycle) Shutdown(srv *http.Server) {
	lc.log.Info("Shutting down gracefully, press Ctrl+C again to force")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lc.log.Errorf("server shutdown failed: %v", err)
	}

	lc.Stop(shutdownCtx)
}
