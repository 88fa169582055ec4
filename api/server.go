// Package api exposes the channel table and the event log over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kilianp07/benchpsu/api/channels"
	"github.com/kilianp07/benchpsu/api/events"
	"github.com/kilianp07/benchpsu/infra/eventlog"
	"github.com/kilianp07/benchpsu/infra/logger"
)

// Config enables the HTTP API when Addr is set.
type Config struct {
	Addr  string `json:"addr"`
	Token string `json:"token"`
}

// NewMux routes the API. A nil store leaves /api/events unrouted.
func NewMux(src channels.StatusSource, store eventlog.Store, token string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/channels/status", channels.NewStatusHandler(src))
	if store != nil {
		mux.Handle("/api/events", events.NewHandler(store, token))
	}
	return mux
}

// Serve runs handler on addr until ctx is canceled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	log := logger.New("api")
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api shutdown: %v", err)
		}
	}()
	log.Infof("serving api on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
