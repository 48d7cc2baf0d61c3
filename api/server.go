// Package api serves exported style sheets and live applied styles over
// HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Api is the HTTP surface: /styles.css, /ws and optional static files.
type Api struct {
	log    *zap.Logger
	sheet  *Sheet
	hub    *Hub
	static string
	server *http.Server
}

// NewApi creates an Api listening on addr. Static files are served from
// dir when it is not empty.
func NewApi(addr, dir string, sheet *Sheet, hub *Hub, log *zap.Logger) *Api {
	if log == nil {
		log = zap.NewNop()
	}
	a := new(Api)
	a.log = log.Named("api")
	a.sheet = sheet
	a.hub = hub
	a.static = dir
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a
}

// Handler returns the routes.
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/styles.css", a.sheet)
	mux.Handle("/ws", a.hub)
	if a.static != "" {
		mux.Handle("/", http.FileServer(http.Dir(a.static)))
	}
	return mux
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (a *Api) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		a.log.Info("Listening", zap.String("addr", a.server.Addr))
		errc <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.server.Shutdown(shutdownCtx)
	if lerr := <-errc; !errors.Is(lerr, http.ErrServerClosed) && err == nil {
		err = lerr
	}
	return err
}
