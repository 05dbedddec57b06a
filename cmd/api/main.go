package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/duka-pos/internal/application/service"
	"github.com/sangkips/duka-pos/internal/application/session"
	"github.com/sangkips/duka-pos/internal/config"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/internal/infrastructure/cache"
	"github.com/sangkips/duka-pos/internal/infrastructure/database"
	"github.com/sangkips/duka-pos/internal/infrastructure/repository"
	"github.com/sangkips/duka-pos/internal/presentation/http/handler"
	"github.com/sangkips/duka-pos/internal/presentation/http/middleware"
	"github.com/sangkips/duka-pos/internal/presentation/http/routes"
	"github.com/sangkips/duka-pos/pkg/printer"
	"github.com/sangkips/duka-pos/pkg/utils"
)

func main() {
	cfg := config.Load()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(&cfg.Database, cfg.App.Debug)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database handle: %v", err)
	}
	closers := []func() error{sqlDB.Close}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.SeedDefaultData(db, cfg.Admin); err != nil {
		log.Printf("Warning: Failed to seed default data: %v", err)
	}

	// The rate cache only serves display reads, so Redis is optional
	var rateCache cache.RateCache = cache.NoopRateCache{}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisRateCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := redisCache.Ping(ctx)
		cancel()
		if err != nil {
			log.Printf("Warning: Redis unavailable, rate cache disabled: %v", err)
			_ = redisCache.Close()
		} else {
			rateCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("Rate cache: redis")
		}
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	sessions := session.NewManager(cfg.Session.IdleTimeout)

	// Repositories
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	rateRepo := repository.NewExchangeRateRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	saleItemRepo := repository.NewSaleItemRepository(db)
	stockMovementRepo := repository.NewStockMovementRepository(db)
	cashRepo := repository.NewCashMovementRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, sessions, jwtManager)
	customerService := service.NewCustomerService(customerRepo)
	productService := service.NewProductService(productRepo, stockMovementRepo, tx)
	rateService := service.NewExchangeRateService(rateRepo, rateCache, cfg.Redis.RateTTL)
	saleService := service.NewSaleService(tx, service.SaleRepositories{
		Sales:     saleRepo,
		SaleItems: saleItemRepo,
		Products:  productRepo,
		Customers: customerRepo,
		Users:     userRepo,
		Movements: stockMovementRepo,
		Cash:      cashRepo,
	}, rateService, productService, enum.NewPaymentMethodSet(cfg.Currency.EnabledPaymentMethods), service.ReceiptOptions{
		StoreName:      cfg.Printer.StoreName,
		BaseCurrency:   cfg.Currency.Base,
		QuotedCurrency: cfg.Currency.Quoted,
	})
	checkoutService := service.NewCheckoutService(saleService, productService, customerService, rateService, sessions)
	cashLedgerService := service.NewCashLedgerService(cashRepo)

	thermalPrinter, err := printer.New(cfg.Printer.Type, cfg.Printer.USBPath, cfg.Printer.Address)
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = &printer.Discard{}
	}
	printerService := service.NewPrinterService(thermalPrinter, saleService, cfg.Printer.Type, cfg.Printer.Width)

	handlers := &routes.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Product:      handler.NewProductHandler(productService),
		Customer:     handler.NewCustomerHandler(customerService),
		ExchangeRate: handler.NewExchangeRateHandler(rateService),
		Checkout:     handler.NewCheckoutHandler(checkoutService),
		Sale:         handler.NewSaleHandler(saleService),
		Printer:      handler.NewPrinterHandler(printerService),
		CashLedger:   handler.NewCashLedgerHandler(cashLedgerService),
	}

	rateLimiter := middleware.NewOperatorRateLimiter(
		middleware.RateLimiterConfigFor(cfg.RateLimit.Requests, cfg.RateLimit.Duration),
	)

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Sessions:        sessions,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
		Ping:            sqlDB.PingContext,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on port %s (env: %s, db: %s)", cfg.App.Name, cfg.App.Port, cfg.App.Env, cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	checkoutService.Close()
	sessions.Close()
	rateLimiter.Close()
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("Close error: %v", err)
		}
	}

	log.Println("Server stopped")
}
