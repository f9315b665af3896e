package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const AppName = "ghost-coach"

type StatusHooks struct {
	Warnings      func() []string
	SpeechEnabled bool
}

type Options struct {
	// Static holds the dashboard assets served under /dashboard/.
	Static  fs.FS
	Metrics http.Handler
	Hooks   StatusHooks
}

func Handler(coach Coach, hub *Hub, opts Options) (http.Handler, error) {
	if coach == nil {
		return nil, errors.New("server: coach is required")
	}
	if hub == nil {
		hub = NewHub()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "app": AppName})
	})

	registerWSRoute(mux, hub)
	registerWebhookRoutes(mux, coach)
	registerAudioRoutes(mux, coach)
	registerAPIRoutes(mux, coach, opts.Hooks)

	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	if opts.Static != nil {
		fileServer := http.StripPrefix("/dashboard", http.FileServer(http.FS(opts.Static)))
		mux.HandleFunc("GET /dashboard/", serveDashboard(fileServer))
		mux.Handle("GET /dashboard", http.RedirectHandler("/dashboard/", http.StatusMovedPermanently))
	}

	return mux, nil
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func serveDashboard(fileServer http.Handler) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		cleanPath := path.Clean(strings.TrimPrefix(r.URL.Path, "/dashboard/"))
		if cleanPath == "." || cleanPath == "" || !strings.Contains(cleanPath, ".") {
			r.URL.Path = "/dashboard/"
		} else {
			r.URL.Path = "/dashboard/" + cleanPath
		}
		fileServer.ServeHTTP(w, r)
	}
}
