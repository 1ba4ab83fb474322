package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/velesk/marketplace-api/internal/auth"
	"github.com/velesk/marketplace-api/internal/config"
	"github.com/velesk/marketplace-api/internal/delivery/events"
	httpDelivery "github.com/velesk/marketplace-api/internal/delivery/http"
	"github.com/velesk/marketplace-api/internal/delivery/http/handler"
	"github.com/velesk/marketplace-api/internal/pkg/cache"
	"github.com/velesk/marketplace-api/internal/pkg/database"
	"github.com/velesk/marketplace-api/internal/pkg/logger"
	cacheRepo "github.com/velesk/marketplace-api/internal/repository/cache"
	"github.com/velesk/marketplace-api/internal/repository/postgres"
	"github.com/velesk/marketplace-api/internal/usecase/category"
	"github.com/velesk/marketplace-api/internal/usecase/product"
	"github.com/velesk/marketplace-api/internal/usecase/review"
	"github.com/velesk/marketplace-api/internal/usecase/user"

	_ "github.com/velesk/marketplace-api/docs"
)

// @title Marketplace API
// @version 1.0
// @description A marketplace backend with users, categories, products and product reviews.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/velesk/marketplace-api
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

// @tag.name Auth
// @tag.description Registration and login endpoints

// @tag.name Categories
// @tag.description Category management endpoints

// @tag.name Products
// @tag.description Product management endpoints

// @tag.name Reviews
// @tag.description Review management endpoints

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	appLogger.Info("Starting Marketplace API...")

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL successfully")

	if err := database.RunMigrations(db); err != nil {
		appLogger.Fatal("Failed to run migrations", err)
	}
	appLogger.Info("Database migrations applied")

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis successfully")

	appLogger.Info("Connecting to NATS...")
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS publisher", err)
	}
	defer publisher.Close()

	userRepo := postgres.NewUserRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	productRepo := postgres.NewProductRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	redisCache := cacheRepo.NewRedisCache(redisClient, cfg.Cache.ReviewsListTTL)

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTTL)

	userService := user.NewService(userRepo, jwtManager, appLogger)
	categoryService := category.NewService(categoryRepo, appLogger)
	productService := product.NewService(productRepo, categoryRepo, appLogger)
	reviewService := review.NewService(reviewRepo, productRepo, redisCache, publisher, appLogger)

	authHandler := handler.NewAuthHandler(userService, appLogger)
	categoryHandler := handler.NewCategoryHandler(categoryService, appLogger)
	productHandler := handler.NewProductHandler(productService, appLogger)
	reviewHandler := handler.NewReviewHandler(reviewService, appLogger)

	router := httpDelivery.NewRouter(
		authHandler,
		categoryHandler,
		productHandler,
		reviewHandler,
		jwtManager,
		cfg,
		appLogger,
	)
	httpHandler := router.Setup()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	appLogger.Info("Server stopped gracefully")
}
