package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
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
	"github.com/sangkips/duka-pos/pkg/printer"
	"github.com/sangkips/duka-pos/pkg/utils"
	"github.com/shopspring/decimal"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newRouter(t *testing.T) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewSQLiteDB("file:"+name+"?mode=memory&cache=shared", false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.SeedDefaultData(db, config.AdminConfig{Email: adminEmail, Password: adminPassword}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	jwtManager := utils.NewJWTManager("test-secret", time.Hour)
	sessions := session.NewManager(time.Hour)
	t.Cleanup(sessions.Close)

	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockMovementRepository(db)
	cashRepo := repository.NewCashMovementRepository(db)

	products := service.NewProductService(productRepo, stockRepo, tx)
	customers := service.NewCustomerService(customerRepo)
	rates := service.NewExchangeRateService(repository.NewExchangeRateRepository(db), cache.NoopRateCache{}, 0)
	sales := service.NewSaleService(tx, service.SaleRepositories{
		Sales:     repository.NewSaleRepository(db),
		SaleItems: repository.NewSaleItemRepository(db),
		Products:  productRepo,
		Customers: customerRepo,
		Users:     userRepo,
		Movements: stockRepo,
		Cash:      cashRepo,
	}, rates, products, enum.NewPaymentMethodSet([]string{"cash"}), service.ReceiptOptions{
		StoreName:      "Test Store",
		BaseCurrency:   "USD",
		QuotedCurrency: "VES",
	})
	checkout := service.NewCheckoutService(sales, products, customers, rates, sessions)
	t.Cleanup(checkout.Close)

	router := Setup(&Handlers{
		Auth:         handler.NewAuthHandler(service.NewAuthService(userRepo, sessions, jwtManager)),
		Product:      handler.NewProductHandler(products),
		Customer:     handler.NewCustomerHandler(customers),
		ExchangeRate: handler.NewExchangeRateHandler(rates),
		Checkout:     handler.NewCheckoutHandler(checkout),
		Sale:         handler.NewSaleHandler(sales),
		Printer:      handler.NewPrinterHandler(service.NewPrinterService(&printer.Discard{}, sales, "none", 32)),
		CashLedger:   handler.NewCashLedgerHandler(service.NewCashLedgerService(cashRepo)),
	}, &Deps{
		JWTManager:      jwtManager,
		Sessions:        sessions,
		Cfg:             &config.Config{App: config.AppConfig{Name: "duka-pos"}},
		IdempotencyRepo: repository.NewIdempotencyRepository(db),
		Ping:            sqlDB.PingContext,
	})
	return router, sessions
}

func do(t *testing.T, r http.Handler, method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": adminEmail, "password": adminPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, env.Data, &out)
	return out.AccessToken
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health %d %s", w.Code, w.Body.String())
	}
}

func TestCheckoutOverHTTP(t *testing.T) {
	r, _ := newRouter(t)
	token := login(t, r)

	if w, _ := do(t, r, http.MethodGet, "/api/v1/checkout", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	// Pricing needs a rate
	w, env := do(t, r, http.MethodPost, "/api/v1/products", token, gin.H{
		"name": "Soap", "code": "SOAP", "quantity": 5, "selling_price": "0.5",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create product: %d %s", w.Code, w.Body.String())
	}
	var product struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	}
	decode(t, env.Data, &product)

	if w, _ := do(t, r, http.MethodPost, "/api/v1/checkout/items", token, gin.H{"product_id": product.ID}); w.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412 without a rate, got %d", w.Code)
	}

	if w, _ := do(t, r, http.MethodPost, "/api/v1/exchange-rates", token, gin.H{"rate": "2000"}); w.Code != http.StatusCreated {
		t.Fatalf("create rate: %d %s", w.Code, w.Body.String())
	}

	w, env = do(t, r, http.MethodPost, "/api/v1/checkout/items", token, gin.H{"product_id": product.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("add item: %d %s", w.Code, w.Body.String())
	}
	var view struct {
		State string `json:"state"`
		Total string `json:"total"`
	}
	decode(t, env.Data, &view)
	if view.State != "ITEMS_SELECTED" || !decimal.RequireFromString(view.Total).Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected checkout %+v", view)
	}

	if w, _ := do(t, r, http.MethodPut, "/api/v1/checkout/customer", token, nil); w.Code != http.StatusOK {
		t.Fatalf("resolve customer: %d %s", w.Code, w.Body.String())
	}
	if w, _ := do(t, r, http.MethodPut, "/api/v1/checkout/payment", token, gin.H{"payment_method": "bitcoin"}); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown payment, got %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodPut, "/api/v1/checkout/payment", token, gin.H{"payment_method": "cash"}); w.Code != http.StatusOK {
		t.Fatalf("select payment: %d %s", w.Code, w.Body.String())
	}

	first, env := do(t, r, http.MethodPost, "/api/v1/checkout/submit", token, nil, middleware.IdempotencyKeyHeader, "submit-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", first.Code, first.Body.String())
	}
	var result struct {
		Sale struct {
			ID    string `json:"id"`
			Total string `json:"total"`
		} `json:"sale"`
	}
	decode(t, env.Data, &result)
	if !decimal.RequireFromString(result.Sale.Total).Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected base total 0.5, got %s", result.Sale.Total)
	}

	replay, _ := do(t, r, http.MethodPost, "/api/v1/checkout/submit", token, nil, middleware.IdempotencyKeyHeader, "submit-1")
	if replay.Header().Get("X-Idempotency-Replayed") != "true" || replay.Body.String() != first.Body.String() {
		t.Fatalf("expected replay of the first submit, got %d %s", replay.Code, replay.Body.String())
	}

	_, env = do(t, r, http.MethodGet, "/api/v1/products/"+product.ID, token, nil)
	decode(t, env.Data, &product)
	if product.Quantity != 4 {
		t.Fatalf("expected one unit sold once, stock %d", product.Quantity)
	}

	if w, _ := do(t, r, http.MethodGet, "/api/v1/sales/"+result.Sale.ID, token, nil); w.Code != http.StatusOK {
		t.Fatalf("get sale: %d %s", w.Code, w.Body.String())
	}
	if w, _ := do(t, r, http.MethodPost, "/api/v1/sales/"+result.Sale.ID+"/print", token, nil); w.Code != http.StatusOK {
		t.Fatalf("print sale: %d %s", w.Code, w.Body.String())
	}
}

func TestLogoutEndsSession(t *testing.T) {
	r, sessions := newRouter(t)
	token := login(t, r)
	if sessions.Count() != 1 {
		t.Fatalf("expected one session, got %d", sessions.Count())
	}

	if w, _ := do(t, r, http.MethodPost, "/api/v1/auth/logout", token, nil); w.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", w.Code, w.Body.String())
	}
	if w, _ := do(t, r, http.MethodGet, "/api/v1/auth/me", token, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected token rejected after logout, got %d", w.Code)
	}
}

func TestCashierCannotManageProducts(t *testing.T) {
	r, _ := newRouter(t)
	admin := login(t, r)

	w, _ := do(t, r, http.MethodPost, "/api/v1/users", admin, gin.H{
		"name": "Cashier", "email": "cashier@example.com", "password": "cashier-pass", "role": "cashier",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create cashier: %d %s", w.Code, w.Body.String())
	}

	w, env := do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "cashier@example.com", "password": "cashier-pass"})
	if w.Code != http.StatusOK {
		t.Fatalf("cashier login: %d %s", w.Code, w.Body.String())
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, env.Data, &out)

	if w, _ := do(t, r, http.MethodPost, "/api/v1/products", out.AccessToken, gin.H{"name": "Soap", "selling_price": "1"}); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier, got %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, "/api/v1/products", out.AccessToken, nil); w.Code != http.StatusOK {
		t.Fatalf("cashier list products: %d", w.Code)
	}
}
