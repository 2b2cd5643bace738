package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cyberai/server/internal/api"
	"github.com/cyberai/server/internal/config"
	"github.com/cyberai/server/internal/llm"
	"github.com/cyberai/server/internal/store"
)

func main() {
	// A missing .env is fine; the real environment wins either way.
	_ = godotenv.Load()

	cfg := config.FromEnv()

	var logger *zap.Logger
	var err error
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// DATABASE_URL selects the persistent store; without it everything
	// lives in memory for the process lifetime.
	var st store.Store
	if cfg.DatabaseURL != "" {
		sqlite, err := store.NewSQLite(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to open database",
				zap.Error(err),
				zap.String("database_url", cfg.DatabaseURL))
		}
		defer sqlite.Close()
		st = sqlite
		logger.Info("using sqlite store", zap.String("database_url", cfg.DatabaseURL))
	} else {
		st = store.NewMemory()
		logger.Info("using in-memory store")
	}

	generator, err := llm.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize LLM service", zap.Error(err))
	}

	handler := api.NewHandler(st, generator, logger, cfg.JWTSecret)

	mux := handler.Routes()
	mux.Handle("/", http.FileServer(http.Dir("web")))

	addr := ":" + cfg.Port
	logger.Info("starting server", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := http.ListenAndServe(addr, api.CORS(mux)); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
