package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/duka-pos/internal/application/session"
	"github.com/sangkips/duka-pos/internal/config"
	domainRepo "github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/internal/presentation/http/handler"
	"github.com/sangkips/duka-pos/internal/presentation/http/middleware"
	"github.com/sangkips/duka-pos/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Customer     *handler.CustomerHandler
	ExchangeRate *handler.ExchangeRateHandler
	Checkout     *handler.CheckoutHandler
	Sale         *handler.SaleHandler
	Printer      *handler.PrinterHandler
	CashLedger   *handler.CashLedgerHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Sessions        *session.Manager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.OperatorRateLimiter
	// Ping reports database health; nil skips the check
	Ping func(ctx context.Context) error
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", healthHandler(deps))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", h.Auth.Login)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager, deps.Sessions))
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func healthHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":          status,
			"service":         deps.Cfg.App.Name,
			"active_sessions": deps.Sessions.Count(),
		})
	}
}

func registerProtectedRoutes(rg *gin.RouterGroup, h *Handlers, deps *Deps) {
	adminOnly := middleware.RequireRole(enum.RoleAdmin)
	idempotent := middleware.Idempotency(middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo})

	auth := rg.Group("/auth")
	{
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", h.Auth.Me)
	}

	rg.POST("/users", adminOnly, h.Auth.CreateUser)

	products := rg.Group("/products")
	{
		products.GET("", h.Product.List)
		products.POST("", adminOnly, h.Product.Create)
		products.GET("/:id", h.Product.Get)
		products.PUT("/:id", adminOnly, h.Product.Update)
		products.POST("/:id/stock", adminOnly, h.Product.AdjustStock)
		products.GET("/:id/movements", h.Product.Movements)
		products.GET("/:id/stock-check", h.Product.CheckStock)
	}

	customers := rg.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/resolve", h.Customer.Resolve)
		customers.GET("/:id", h.Customer.Get)
	}

	rates := rg.Group("/exchange-rates")
	{
		rates.GET("/current", h.ExchangeRate.Current)
		rates.GET("", h.ExchangeRate.List)
		rates.POST("", adminOnly, h.ExchangeRate.Create)
	}

	checkout := rg.Group("/checkout")
	{
		checkout.GET("", h.Checkout.View)
		checkout.DELETE("", h.Checkout.Clear)
		checkout.POST("/items", h.Checkout.AddItem)
		checkout.PUT("/items/:product_id/quantity", h.Checkout.SetQuantity)
		checkout.PUT("/items/:product_id/price", h.Checkout.SetUnitPrice)
		checkout.DELETE("/items/:product_id", h.Checkout.RemoveItem)
		checkout.PUT("/customer", h.Checkout.SetCustomer)
		checkout.PUT("/payment", h.Checkout.SetPayment)
		checkout.POST("/submit", idempotent, h.Checkout.Submit)
	}

	sales := rg.Group("/sales")
	{
		sales.GET("", h.Sale.List)
		sales.GET("/:id", h.Sale.Get)
		sales.GET("/:id/edit", h.Sale.EditView)
		sales.PUT("/:id/items", idempotent, h.Sale.SaveEdit)
		sales.DELETE("/:id", adminOnly, h.Sale.Delete)
		sales.POST("/:id/print", h.Printer.PrintSale)
	}

	rg.GET("/printer/status", h.Printer.GetStatus)

	cash := rg.Group("/cash-ledger")
	{
		cash.GET("", h.CashLedger.List)
		cash.POST("", h.CashLedger.Record)
	}
}
