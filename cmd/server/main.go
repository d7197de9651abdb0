package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	jsonschema "github.com/lychee-technology/jsonschema"
	"github.com/lychee-technology/jsonschema/factory"
	"go.uber.org/zap"
)

// Server exposes schema loading and validation over HTTP. Loaded schemas
// are kept in memory under a generated handle.
type Server struct {
	engine *factory.Engine
	router *mux.Router

	mu      sync.RWMutex
	schemas map[uuid.UUID]*jsonschema.Schema
}

// NewServer creates a new Server instance
func NewServer(engine *factory.Engine) *Server {
	return &Server{
		engine:  engine,
		router:  mux.NewRouter(),
		schemas: make(map[uuid.UUID]*jsonschema.Schema),
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.router.Use(requestLogger)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/schemas", s.handleLoadSchema).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/schemas/{id}", s.handleGetSchema).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/schemas/{id}/validate", s.handleValidateStored).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/validate", s.handleValidateInline).Methods(http.MethodPost)
}

// Start starts the HTTP server on the given port
func (s *Server) Start(port string) error {
	zap.S().Infow("starting server", "port", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func main() {
	config := jsonschema.DefaultConfig()
	if path := os.Getenv("JSONSCHEMA_CONFIG"); path != "" {
		loaded, err := jsonschema.LoadConfigFile(path)
		if err != nil {
			panic(err)
		}
		config = loaded
	}

	logger, err := newLogger(config.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if dir := os.Getenv("SCHEMA_DIR"); dir != "" {
		config.Fetch.Directory.Enabled = true
		config.Fetch.Directory.Root = dir
		config.Fetch.Directory.BaseURI = getEnv("SCHEMA_BASE_URI", "file:///schemas/")
	}
	if dsn := os.Getenv("SCHEMA_DB_DSN"); dsn != "" {
		config.Fetch.Postgres.Enabled = true
		config.Fetch.Postgres.DSN = dsn
	}
	if secs := getEnvInt("FETCH_TIMEOUT_SECONDS", 0); secs > 0 {
		config.Fetch.Timeout = time.Duration(secs) * time.Second
	}

	engine, err := factory.NewEngine(context.Background(), config)
	if err != nil {
		sugar.Fatalf("failed to create schema engine: %v", err)
	}
	defer engine.Close()

	server := NewServer(engine)
	server.RegisterRoutes()

	port := getEnv("PORT", "8080")
	if err := server.Start(port); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}

func newLogger(cfg jsonschema.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}
	return zc.Build()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
