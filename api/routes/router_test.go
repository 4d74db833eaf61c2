package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	cartsvc "github.com/shopora/shopora-backend/internal/cart"
	walletsvc "github.com/shopora/shopora-backend/internal/wallet"
	"github.com/shopora/shopora-backend/pkg/config"
	"github.com/shopora/shopora-backend/pkg/db/models"
	"github.com/shopora/shopora-backend/pkg/enums"
	"github.com/shopora/shopora-backend/pkg/logger"
	"github.com/shopora/shopora-backend/pkg/pagination"
	"github.com/shopora/shopora-backend/pkg/redis"
	"github.com/shopora/shopora-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct {
	getFn func(ctx context.Context, owner cartsvc.Owner) (*models.ShoppingCart, error)
}

func (s stubCartService) Get(ctx context.Context, owner cartsvc.Owner) (*models.ShoppingCart, error) {
	if s.getFn != nil {
		return s.getFn(ctx, owner)
	}
	return emptyCart(), nil
}

func (s stubCartService) AddItem(ctx context.Context, owner cartsvc.Owner, input cartsvc.AddItemInput) (*models.ShoppingCart, error) {
	return emptyCart(), nil
}

func (s stubCartService) SetItemQuantity(ctx context.Context, owner cartsvc.Owner, key cartsvc.ItemKeyInput, quantity int) (*models.ShoppingCart, error) {
	return emptyCart(), nil
}

func (s stubCartService) RemoveItem(ctx context.Context, owner cartsvc.Owner, key cartsvc.ItemKeyInput) (*models.ShoppingCart, bool, error) {
	return emptyCart(), true, nil
}

func (s stubCartService) ClearItems(ctx context.Context, owner cartsvc.Owner) (*models.ShoppingCart, error) {
	return emptyCart(), nil
}

func (s stubCartService) ApplyDiscount(ctx context.Context, owner cartsvc.Owner, code string) (*models.ShoppingCart, error) {
	return emptyCart(), nil
}

func (s stubCartService) ClearDiscount(ctx context.Context, owner cartsvc.Owner) (*models.ShoppingCart, error) {
	return emptyCart(), nil
}

func (s stubCartService) MergeOnLogin(ctx context.Context, anonymousID, userID string) (*models.ShoppingCart, error) {
	return emptyCart(), nil
}

type stubDiscountService struct{}

func (stubDiscountService) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	return nil, nil
}

func (stubDiscountService) Preview(ctx context.Context, code string, subtotal decimal.Decimal, evaluatedAt time.Time, audienceKey *string) (types.DiscountSnapshot, error) {
	return types.DiscountSnapshot{Code: code, Subtotal: subtotal, EvaluatedAt: evaluatedAt}, nil
}

type stubWalletService struct {
	got string
}

func (s *stubWalletService) GetOrCreate(ctx context.Context, userID string) (*models.WalletAccount, error) {
	s.got = userID
	return &models.WalletAccount{UserID: userID, Currency: enums.CurrencyUSD}, nil
}

func (s *stubWalletService) Credit(ctx context.Context, userID string, input models.WalletEntryInput) (*models.WalletTransaction, error) {
	return &models.WalletTransaction{}, nil
}

func (s *stubWalletService) Debit(ctx context.Context, userID string, input models.WalletEntryInput) (*models.WalletTransaction, error) {
	return &models.WalletTransaction{}, nil
}

func (s *stubWalletService) Lock(ctx context.Context, userID string) (*models.WalletAccount, error) {
	return &models.WalletAccount{UserID: userID}, nil
}

func (s *stubWalletService) Unlock(ctx context.Context, userID string) (*models.WalletAccount, error) {
	return &models.WalletAccount{UserID: userID}, nil
}

func (s *stubWalletService) ListTransactions(ctx context.Context, userID string, params pagination.Params) (*walletsvc.TransactionPage, error) {
	return &walletsvc.TransactionPage{}, nil
}

func emptyCart() *models.ShoppingCart {
	cart, _ := models.NewUserCart("user-1", enums.CurrencyUSD, time.Now().UTC())
	return cart
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
	}
}

func newTestRouter(cfg *config.Config, wallets *stubWalletService) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:    cfg,
		Logger:    logg,
		DB:        stubPinger{},
		Redis:     (*redis.Client)(nil),
		Carts:     stubCartService{},
		Discounts: stubDiscountService{},
		Wallets:   wallets,
	})
}

func buildToken(t *testing.T, cfg *config.Config, userID string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Issuer:    cfg.JWT.Issuer,
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.JWT.Expiration())),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), &stubWalletService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-Shopora-Env"); env != "test" {
		t.Fatalf("expected env header, got %q", env)
	}
}

func TestWalletRequiresBearer(t *testing.T) {
	router := newTestRouter(testConfig(), &stubWalletService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestWalletFetchWithToken(t *testing.T) {
	cfg := testConfig()
	wallets := &stubWalletService{}
	router := newTestRouter(cfg, wallets)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "user-42"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if wallets.got != "user-42" {
		t.Fatalf("expected the token subject to reach the service, got %q", wallets.got)
	}
}

func TestCartRejectsMissingIdentity(t *testing.T) {
	router := newTestRouter(testConfig(), &stubWalletService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity got %d", resp.Code)
	}
}

func TestCartFetchWithAnonymousToken(t *testing.T) {
	var captured cartsvc.Owner
	carts := stubCartService{getFn: func(ctx context.Context, owner cartsvc.Owner) (*models.ShoppingCart, error) {
		captured = owner
		return emptyCart(), nil
	}}

	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	router := NewRouter(Deps{
		Config:    testConfig(),
		Logger:    logg,
		DB:        stubPinger{},
		Redis:     (*redis.Client)(nil),
		Carts:     carts,
		Discounts: stubDiscountService{},
		Wallets:   &stubWalletService{},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set("X-Cart-Token", "anon-abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.AnonymousID == nil || *captured.AnonymousID != "anon-abc" {
		t.Fatalf("expected anonymous owner, got %+v", captured)
	}

	var payload struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Success {
		t.Fatal("expected success envelope")
	}
}

func TestCartMergeRequiresAuth(t *testing.T) {
	router := newTestRouter(testConfig(), &stubWalletService{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", nil)
	req.Header.Set("X-Cart-Token", "anon-abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("merge must require a bearer token, got %d", resp.Code)
	}
}
