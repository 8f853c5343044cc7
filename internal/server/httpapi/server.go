// Package httpapi exposes the catalog over HTTP: session-cookie auth,
// HTML form endpoints, uploads and downloads.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"filevault/internal/logging"
	"filevault/internal/server/services"
)

// Server holds the HTTP surface and its collaborators.
type Server struct {
	address       string
	logger        logging.Logger
	users         *services.UserService
	catalog       *services.CatalogService
	sessionSecret []byte
	sessionTTL    time.Duration
}

func NewServer(address string, l logging.Logger, us *services.UserService, cs *services.CatalogService, sessionSecret string, sessionTTL time.Duration) (*Server, error) {
	return &Server{
		address:       address,
		logger:        l.With("module", "http_server"),
		users:         us,
		catalog:       cs,
		sessionSecret: []byte(sessionSecret),
		sessionTTL:    sessionTTL,
	}, nil
}

// Handler builds the route table. Split out from Run so tests can drive the
// mux through httptest without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)

	mux.HandleFunc("GET /register", s.handleRegisterForm)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.requireAuth(s.handleLogout))

	mux.HandleFunc("POST /create-folder", s.requireAuth(s.handleCreateFolder))
	mux.HandleFunc("GET /folders", s.requireAuth(s.handleListFolders))
	mux.HandleFunc("GET /folders/{id}", s.requireAuth(s.handleGetFolder))
	mux.HandleFunc("PUT /folders/{id}", s.requireAuth(s.handleRenameFolder))
	mux.HandleFunc("DELETE /folders/{id}", s.requireAuth(s.handleDeleteFolder))

	mux.HandleFunc("GET /upload-form", s.requireAuth(s.handleUploadForm))
	mux.HandleFunc("POST /upload", s.requireAuth(s.handleUpload))
	mux.HandleFunc("GET /files/{id}", s.requireAuth(s.handleGetFile))
	mux.HandleFunc("GET /download/{id}", s.requireAuth(s.handleDownload))
	mux.HandleFunc("DELETE /files/{id}", s.requireAuth(s.handleDeleteFile))

	return s.methodOverride(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.address, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
