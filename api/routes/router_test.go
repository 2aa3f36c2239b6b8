package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kasuwahq/kasuwa-backend/internal/catalog"
	"github.com/kasuwahq/kasuwa-backend/internal/ledger"
	"github.com/kasuwahq/kasuwa-backend/internal/orders"
	"github.com/kasuwahq/kasuwa-backend/internal/reviews"
	"github.com/kasuwahq/kasuwa-backend/internal/users"
	pkgauth "github.com/kasuwahq/kasuwa-backend/pkg/auth"
	"github.com/kasuwahq/kasuwa-backend/pkg/config"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
	"github.com/kasuwahq/kasuwa-backend/pkg/pagination"
	pkgredis "github.com/kasuwahq/kasuwa-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

// memoryRedis backs the idempotency middleware and readiness probe in
// router tests.
type memoryRedis struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{entries: map[string]string{}}
}

func (m *memoryRedis) Ping(context.Context) error {
	return nil
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	if !ok {
		return "", pkgredis.Nil
	}
	return value, nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		return false, nil
	}
	m.entries[key] = fmt.Sprint(value)
	return true, nil
}

type stubUsersService struct{}

func (stubUsersService) Signup(context.Context, users.SignupInput) (*models.User, error) {
	panic("unimplemented")
}

func (stubUsersService) Get(context.Context, uuid.UUID) (*models.User, error) {
	panic("unimplemented")
}

func (stubUsersService) GetProfile(context.Context, uuid.UUID) (*models.Profile, error) {
	panic("unimplemented")
}

func (stubUsersService) UpdateProfile(context.Context, uuid.UUID, users.UpdateProfileInput) (*models.Profile, error) {
	panic("unimplemented")
}

func (stubUsersService) AddAddress(context.Context, uuid.UUID, users.AddressInput) (*models.Address, error) {
	panic("unimplemented")
}

func (stubUsersService) ListAddresses(context.Context, uuid.UUID) ([]models.Address, error) {
	panic("unimplemented")
}

func (stubUsersService) DeleteAddress(context.Context, uuid.UUID, uuid.UUID) error {
	panic("unimplemented")
}

type stubCatalogService struct{}

func (stubCatalogService) GetProduct(context.Context, uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubCatalogService) ListProducts(context.Context, catalog.ProductFilter, pagination.Params) (*catalog.ProductPage, error) {
	return &catalog.ProductPage{}, nil
}

func (stubCatalogService) ListCategories(context.Context) ([]models.Category, error) {
	return nil, nil
}

func (stubCatalogService) ListBrands(context.Context) ([]models.Brand, error) {
	return nil, nil
}

type stubCartService struct{}

func (stubCartService) Get(_ context.Context, userID uuid.UUID) (*models.ShoppingCart, error) {
	return &models.ShoppingCart{UserID: userID, Items: []models.CartItem{}}, nil
}

func (stubCartService) AddItem(context.Context, uuid.UUID, uuid.UUID, int) (*models.ShoppingCart, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateItem(context.Context, uuid.UUID, uuid.UUID, int) (*models.ShoppingCart, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(context.Context, uuid.UUID, uuid.UUID) (*models.ShoppingCart, error) {
	panic("unimplemented")
}

func (stubCartService) Clear(context.Context, uuid.UUID) error {
	return nil
}

type stubOrdersService struct {
	checkout func(ctx context.Context, userID uuid.UUID) (*orders.CheckoutResult, error)
	verify   func(ctx context.Context, userID uuid.UUID, reference string) (orders.VerifyOutcome, error)
}

func (s stubOrdersService) Checkout(ctx context.Context, userID uuid.UUID) (*orders.CheckoutResult, error) {
	if s.checkout != nil {
		return s.checkout(ctx, userID)
	}
	panic("unimplemented")
}

func (s stubOrdersService) VerifyPayment(ctx context.Context, userID uuid.UUID, reference string) (orders.VerifyOutcome, error) {
	if s.verify != nil {
		return s.verify(ctx, userID, reference)
	}
	panic("unimplemented")
}

func (stubOrdersService) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) List(context.Context, uuid.UUID, pagination.Params) (*orders.OrderPage, error) {
	panic("unimplemented")
}

type stubOTPService struct{}

func (stubOTPService) Request(context.Context, uuid.UUID, string) error {
	panic("unimplemented")
}

func (stubOTPService) Confirm(context.Context, uuid.UUID, string) error {
	panic("unimplemented")
}

type stubInviteService struct{}

func (stubInviteService) Create(context.Context, uuid.UUID, string) (*models.Invitation, error) {
	panic("unimplemented")
}

func (stubInviteService) List(context.Context, uuid.UUID) ([]models.Invitation, error) {
	return nil, nil
}

func (stubInviteService) MarkJoined(context.Context, string) error {
	panic("unimplemented")
}

type stubReviewsService struct{}

func (stubReviewsService) Create(context.Context, reviews.CreateInput) (*models.ProductReview, error) {
	panic("unimplemented")
}

func (stubReviewsService) ListByProduct(context.Context, uuid.UUID, pagination.Params) (*reviews.Page, error) {
	return &reviews.Page{}, nil
}

type stubLedgerService struct{}

func (stubLedgerService) Record(context.Context, ledger.RecordInput) (*models.Transaction, error) {
	panic("unimplemented")
}

func (stubLedgerService) History(context.Context, uuid.UUID, pagination.Params) (*ledger.History, error) {
	return &ledger.History{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "kasuwa-test",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, ordersSvc orders.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:  cfg,
		Logger:  logg,
		DB:      stubPinger{},
		Redis:   newMemoryRedis(),
		Users:   stubUsersService{},
		Catalog: stubCatalogService{},
		Cart:    stubCartService{},
		Orders:  ordersSvc,
		OTP:     stubOTPService{},
		Invites: stubInviteService{},
		Reviews: stubReviewsService{},
		Ledger:  stubLedgerService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), uuid.New(), "buyer@example.com")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live probe got %d", resp.Code)
	}
}

func TestHealthReady(t *testing.T) {
	router := newTestRouter(testConfig(), stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ready probe got %d", resp.Code)
	}
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig(), stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog got %d", resp.Code)
	}
}

func TestAuthedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAuthedGroupAcceptsJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestCheckoutReturnsCreated(t *testing.T) {
	cfg := testConfig()
	orderID := uuid.New()
	svc := stubOrdersService{
		checkout: func(context.Context, uuid.UUID) (*orders.CheckoutResult, error) {
			return &orders.CheckoutResult{OrderID: orderID, PaymentURL: "https://checkout.paystack.com/abc"}, nil
		},
	}
	router := newTestRouter(cfg, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	req.Header.Set("Idempotency-Key", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for checkout got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			OrderID    uuid.UUID `json:"order_id"`
			PaymentURL string    `json:"payment_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.OrderID != orderID {
		t.Fatalf("order id = %s, want %s", envelope.Data.OrderID, orderID)
	}
	if envelope.Data.PaymentURL == "" {
		t.Fatal("expected payment url in response")
	}
}

func TestVerifyPaymentFailedMapsToPaymentRequired(t *testing.T) {
	cfg := testConfig()
	svc := stubOrdersService{
		verify: func(context.Context, uuid.UUID, string) (orders.VerifyOutcome, error) {
			return orders.OutcomePaymentFailed, nil
		},
	}
	router := newTestRouter(cfg, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/payment/verify?reference="+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 for failed payment got %d", resp.Code)
	}
}

func TestVerifyPaymentSucceeded(t *testing.T) {
	cfg := testConfig()
	svc := stubOrdersService{
		verify: func(context.Context, uuid.UUID, string) (orders.VerifyOutcome, error) {
			return orders.OutcomeSucceeded, nil
		},
	}
	router := newTestRouter(cfg, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/payment/verify?reference="+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for verified payment got %d", resp.Code)
	}
}
