package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gametag/assassin/pkg/api/handlers"
	"github.com/gametag/assassin/pkg/api/middleware"
	authproviders "github.com/gametag/assassin/pkg/auth/providers"
	"github.com/gametag/assassin/pkg/game"
	"github.com/gametag/assassin/pkg/log"
	"github.com/gametag/assassin/pkg/queue"
	"github.com/gametag/assassin/pkg/repositories"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port         int
	TLS          *TLSConfig
	AuthProvider authproviders.AuthProvider
	Repository   repositories.Repository
	Engine       *game.Engine
	EventQueue   queue.Queue
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	authMiddleware := middleware.NewAuthMiddleware(opts.AuthProvider)

	r := mux.NewRouter()
	r.Use(middleware.CORS)

	r.Handle("/games", authMiddleware(handlers.HandleListGames(opts.Repository))).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/games", authMiddleware(handlers.HandleCreateGame(opts.Engine))).Methods(http.MethodPost)
	r.Handle("/games/join", authMiddleware(handlers.HandleJoinGame(opts.Engine, opts.EventQueue))).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/games/code/{code}", authMiddleware(handlers.HandleGetGameByCode(opts.Repository))).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/games/{gameID}", authMiddleware(handlers.HandleGetGame(opts.Repository))).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/games/{gameID}/start", authMiddleware(handlers.HandleStartGame(opts.Engine, opts.EventQueue))).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/games/{gameID}/surrender", authMiddleware(handlers.HandleSurrenderGame(opts.Engine, opts.EventQueue))).Methods(http.MethodPost, http.MethodOptions)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: r,
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
