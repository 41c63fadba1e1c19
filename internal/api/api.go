package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/IlyasAtabaev731/wallet/internal/config"
	"github.com/IlyasAtabaev731/wallet/internal/domain/models"
	"github.com/IlyasAtabaev731/wallet/internal/identity"
	"github.com/IlyasAtabaev731/wallet/internal/keepalive"
	"github.com/IlyasAtabaev731/wallet/internal/wallet"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
)

// UserDirectory is the read side of the user store.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]models.User, int, error)
}

type APIServer struct {
	config   *config.Config
	logger   *slog.Logger
	server   *http.Server
	provider identity.Provider
	syncer   *identity.Syncer
	users    UserDirectory
	wallet   *wallet.Service
	pinger   *keepalive.Pinger
}

// New builds the server. pinger may be nil when no API URL is configured.
func New(
	config *config.Config,
	logger *slog.Logger,
	provider identity.Provider,
	syncer *identity.Syncer,
	users UserDirectory,
	wallet *wallet.Service,
	pinger *keepalive.Pinger,
) *APIServer {
	s := &APIServer{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr: config.ApiHost + ":" + strconv.Itoa(config.ApiPort),
		},
		provider: provider,
		syncer:   syncer,
		users:    users,
		wallet:   wallet,
		pinger:   pinger,
	}
	s.configureRouter()
	return s
}

func (s *APIServer) Start() error {
	s.logger.Info("Starting server", slog.String("port", strconv.Itoa(s.config.ApiPort)))

	return s.server.ListenAndServe()
}

func (s *APIServer) MustStart() {
	err := s.Start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("Failed to start server: " + err.Error())
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	defer s.logger.Info("Server successfully stopped")
	return s.server.Shutdown(ctx)
}

// Handler exposes the configured router, mainly for tests.
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *APIServer) configureRouter() {
	router := mux.NewRouter()

	router.HandleFunc("/v1/health", s.healthHandler()).Methods("GET")
	router.HandleFunc("/cron/health", s.cronHandler()).Methods("GET")

	router.HandleFunc("/auth/signup", s.signUpHandler()).Methods("POST")
	router.HandleFunc("/auth/confirm", s.confirmSignUpHandler()).Methods("POST")
	router.HandleFunc("/auth/signin", s.signInHandler()).Methods("POST")
	router.HandleFunc("/auth/forgot-password", s.forgotPasswordHandler()).Methods("POST")
	router.HandleFunc("/auth/confirm-forgot-password", s.confirmForgotPasswordHandler()).Methods("POST")
	router.HandleFunc("/auth/signout", s.authenticate(s.signOutHandler())).Methods("POST")
	router.HandleFunc("/auth/me", s.authenticate(s.meHandler())).Methods("GET")

	router.HandleFunc("/users", s.authenticate(s.createUserHandler())).Methods("POST")
	router.HandleFunc("/users", s.authenticate(s.listUsersHandler())).Methods("GET")
	router.HandleFunc("/users/email/{email}", s.authenticate(s.userByEmailHandler())).Methods("GET")
	router.HandleFunc("/users/{id}", s.authenticate(s.userHandler())).Methods("GET")

	router.HandleFunc("/wallet/deposit", s.authenticate(s.depositHandler())).Methods("POST")
	router.HandleFunc("/wallet/transfer", s.authenticate(s.transferHandler())).Methods("POST")
	router.HandleFunc("/wallet/revert", s.authenticate(s.revertHandler())).Methods("POST")
	router.HandleFunc("/wallet/balance", s.authenticate(s.balanceHandler())).Methods("GET")
	router.HandleFunc("/wallet/transactions", s.authenticate(s.transactionsHandler())).Methods("GET")

	router.Use(s.logRequests)

	s.server.Handler = cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Cors.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(router)
}
