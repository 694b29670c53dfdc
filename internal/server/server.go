package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/internal/utils"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/messaging"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/storage"
)

// Server exposes the background message contract over HTTP so a side panel
// running elsewhere can reach the configured platforms.
type Server struct {
	Dispatcher *messaging.Dispatcher
	Registry   *platforms.Registry
	DB         *storage.DB // optional; enables /api/history and /api/stats
	Username   string
	Password   string
}

func New(registry *platforms.Registry, db *storage.DB, user, pass string) *Server {
	return &Server{
		Dispatcher: messaging.NewDispatcher(registry, utils.Log),
		Registry:   registry,
		DB:         db,
		Username:   user,
		Password:   pass,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/message", s.basicAuth(s.handleMessage))
	mux.HandleFunc("GET /api/platforms", s.basicAuth(s.handlePlatforms))
	mux.HandleFunc("GET /api/history", s.basicAuth(s.handleHistory))
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))

	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Log.Infof("Starting bridge on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
