// Package main is the entry point for the planbook API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planbook/internal/domain/access"
	"planbook/internal/domain/auth"
	"planbook/internal/domain/plan"
	"planbook/internal/domain/product"
	v1 "planbook/internal/infrastructure/http/v1"
	"planbook/internal/infrastructure/storage/postgres"
	"planbook/internal/infrastructure/storage/postgres/access_repo"
	"planbook/internal/infrastructure/storage/postgres/auth_repo"
	"planbook/internal/infrastructure/storage/postgres/plan_repo"
	"planbook/internal/infrastructure/storage/postgres/product_repo"
	"planbook/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting planbook server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	poolCfg := postgres.DefaultPoolConfig(dsn)
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Audit ---
	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit store", "error", err)
	}

	// --- JWT ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Repositories ---
	planRepo := plan_repo.NewPlanRepo(txManager)
	itemRepo := plan_repo.NewItemRepo(txManager)
	productRepo := product_repo.NewProductRepo(txManager)
	ledgerRepo := access_repo.NewLedgerRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	// --- Services ---
	authService := auth.NewService(userRepo, jwtService)
	accessService := access.NewService(ledgerRepo, planRepo, txManager, auditStore)
	planService := plan.NewService(planRepo, itemRepo, productRepo, ledgerRepo, txManager, auditStore)
	productService := product.NewService(productRepo, txManager)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		TokenValidator: jwtService,
		AuthService:    authService,
		PlanService:    planService,
		ProductService: productService,
		AccessService:  accessService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
