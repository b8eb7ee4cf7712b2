package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/codtracker/internal/dashboard"
	"github.com/tournevent/codtracker/pkg/tracking"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxLoginBody = 4 << 10

// Server is the HTTP server for the dashboard API.
type Server struct {
	config   Config
	resolver *dashboard.Resolver
	gatherer prometheus.Gatherer
	logger   *otelzap.Logger
	validate *validator.Validate
	limiter  *limiter.Limiter
}

// Config holds server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	LoginRateLimit string // ulule formatted rate, e.g. "20-M"
	Username       string
	Password       string
}

// New creates a new server instance. Metrics are served from gatherer.
func New(cfg Config, resolver *dashboard.Resolver, gatherer prometheus.Gatherer, logger *otelzap.Logger) (*Server, error) {
	if cfg.LoginRateLimit == "" {
		cfg.LoginRateLimit = "20-M"
	}
	rate, err := limiter.NewRateFromFormatted(cfg.LoginRateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid login rate limit %q: %w", cfg.LoginRateLimit, err)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		config:   cfg,
		resolver: resolver,
		gatherer: gatherer,
		logger:   logger,
		validate: validator.New(),
		limiter:  limiter.New(memory.NewStore(), rate),
	}, nil
}

// Handler returns the full middleware chain and routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Liveness
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// Dashboard API
	loginLimit := stdlib.NewMiddleware(s.limiter, stdlib.WithLimitReachedHandler(s.handleLimitReached))
	mux.Handle("POST /api/login", loginLimit.Handler(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("GET /api/orders", s.handleOrders)
	mux.HandleFunc("GET /api/test-connections", s.handleTestConnections)

	var handler http.Handler = mux
	handler = s.accessLog(handler)
	handler = requestID(handler)
	handler = cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})(handler)
	return otelhttp.NewHandler(handler, "codtracker")
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// An order aggregation performs one carrier lookup per order and
		// has no overall bound, so responses are not write-limited.
		WriteTimeout: 0,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.config.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("COD Tracker backend is running!"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=256"`
	Password string `json:"password" validate:"required,max=256"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxLoginBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, loginResponse{Success: false, Message: "Invalid request body"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, loginResponse{Success: false, Message: "Username and password are required"})
		return
	}

	if !s.checkCredentials(req.Username, req.Password) {
		s.logger.Ctx(r.Context()).Warn("Rejected dashboard login", zap.String("username", req.Username))
		writeJSON(w, http.StatusUnauthorized, loginResponse{Success: false, Message: "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Message: "Login successful"})
}

// checkCredentials compares against the configured pair in constant time.
// An empty configured password never matches.
func (s *Server) checkCredentials(username, password string) bool {
	if s.config.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.config.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.config.Password)) == 1
	return userOK && passOK
}

func (s *Server) handleLimitReached(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, loginResponse{Success: false, Message: "Too many login attempts, try again later"})
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	// The aggregation runs to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	q := r.URL.Query()

	records, err := s.resolver.Orders(ctx, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to fetch order data",
			Details: tracking.ErrorMessage(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleTestConnections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.resolver.TestConnections(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
