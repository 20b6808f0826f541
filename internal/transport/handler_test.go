package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/middleware"
	"bike-bazaar/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "handler-test-secret"

// Stubs embed the service interface so only the methods a test needs are implemented.

type stubCartService struct {
	service.CartService
	addToCart func(userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	checkout  func(userID uuid.UUID) (*domain.Order, error)
}

func (s *stubCartService) AddToCart(_ context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	return s.addToCart(userID, productID, quantity)
}

func (s *stubCartService) Checkout(_ context.Context, userID uuid.UUID) (*domain.Order, error) {
	return s.checkout(userID)
}

type stubOrderService struct {
	service.OrderService
	updateStatus func(identity domain.Identity, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

func (s *stubOrderService) UpdateOrderStatus(_ context.Context, identity domain.Identity, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	return s.updateStatus(identity, orderID, status)
}

type stubUserService struct {
	service.UserService
	login    func(email, password string) (*service.AuthResult, error)
	identity *domain.Identity
}

func (s *stubUserService) Login(_ context.Context, email, password string) (*service.AuthResult, error) {
	return s.login(email, password)
}

func (s *stubUserService) ResolveIdentity(_ context.Context, userID uuid.UUID) (*domain.Identity, error) {
	if s.identity == nil || s.identity.UserID != userID {
		return nil, domain.NotFound("user not found")
	}
	return s.identity, nil
}

type stubCatalogService struct {
	service.CatalogService
	lastFilter domain.ProductFilter
}

func (s *stubCatalogService) ListProducts(_ context.Context, filter domain.ProductFilter) (domain.Page[*domain.Product], error) {
	s.lastFilter = filter
	return domain.NewPage[*domain.Product](nil, 0, 1, 20), nil
}

type stubInspectionService struct {
	service.InspectionService
}

func (s *stubInspectionService) ListAvailableInspections(context.Context, domain.Identity) ([]*domain.InspectionView, error) {
	return []*domain.InspectionView{}, nil
}

type errorBody struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

// asIdentity stands in for the auth chain by placing a fixed identity on the request.
func asIdentity(identity domain.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), identity)))
		})
	}
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func orderRouter(identity domain.Identity, carts *stubCartService, orders *stubOrderService) http.Handler {
	router := chi.NewRouter()
	NewOrderHandler(carts, orders, zap.NewNop()).RegisterRoutes(router, asIdentity(identity))
	return router
}

func TestServiceErrorStatusMapping(t *testing.T) {
	buyer := domain.Identity{UserID: uuid.New()}

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{name: "not found", err: domain.NotFound("product not found"), wantStatus: http.StatusNotFound, wantMessage: "product not found"},
		{name: "forbidden", err: domain.Forbidden("nope"), wantStatus: http.StatusForbidden, wantMessage: "nope"},
		{name: "invalid", err: domain.Invalid("quantity must be at least 1"), wantStatus: http.StatusBadRequest, wantMessage: "quantity must be at least 1"},
		{name: "bad request", err: domain.BadRequest("cart is empty"), wantStatus: http.StatusBadRequest, wantMessage: "cart is empty"},
		{name: "conflict", err: domain.Conflict("product is already sold"), wantStatus: http.StatusConflict, wantMessage: "product is already sold"},
		{name: "unexpected", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantMessage: "failed to checkout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carts := &stubCartService{checkout: func(uuid.UUID) (*domain.Order, error) { return nil, tt.err }}
			rec := do(t, orderRouter(buyer, carts, nil), http.MethodPost, "/api/orders/checkout", nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMessage, decodeError(t, rec).Error.Message)
		})
	}
}

func TestProperty_ErrorEnvelopeCarriesStatusText(t *testing.T) {
	properties := gopter.NewProperties(nil)
	buyer := domain.Identity{UserID: uuid.New()}

	properties.Property("every domain error kind produces an envelope with matching code", prop.ForAll(
		func(kind string, message string) bool {
			var err error
			switch domain.ErrorKind(kind) {
			case domain.KindNotFound:
				err = domain.NotFound("%s", message)
			case domain.KindForbidden:
				err = domain.Forbidden("%s", message)
			case domain.KindInvalid:
				err = domain.Invalid("%s", message)
			case domain.KindBadRequest:
				err = domain.BadRequest("%s", message)
			default:
				err = domain.Conflict("%s", message)
			}

			carts := &stubCartService{checkout: func(uuid.UUID) (*domain.Order, error) { return nil, err }}
			rec := do(t, orderRouter(buyer, carts, nil), http.MethodPost, "/api/orders/checkout", nil)

			var body errorBody
			if json.Unmarshal(rec.Body.Bytes(), &body) != nil {
				return false
			}
			return body.Error.Code == http.StatusText(rec.Code) && body.Error.Message == message
		},
		gen.OneConstOf(string(domain.KindNotFound), string(domain.KindForbidden), string(domain.KindInvalid), string(domain.KindBadRequest), string(domain.KindConflict)),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCheckoutCreated(t *testing.T) {
	buyer := domain.Identity{UserID: uuid.New()}
	orderID := uuid.New()
	carts := &stubCartService{checkout: func(userID uuid.UUID) (*domain.Order, error) {
		return &domain.Order{ID: orderID, BuyerID: userID, Status: domain.OrderStatusPaid, TotalAmount: decimal.NewFromInt(86500)}, nil
	}}

	rec := do(t, orderRouter(buyer, carts, nil), http.MethodPost, "/api/orders/checkout", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Message string `json:"message"`
		Order   struct {
			ID          uuid.UUID `json:"id"`
			BuyerID     uuid.UUID `json:"buyer_id"`
			Status      string    `json:"status"`
			TotalAmount string    `json:"total_amount"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "order placed successfully", body.Message)
	assert.Equal(t, orderID, body.Order.ID)
	assert.Equal(t, buyer.UserID, body.Order.BuyerID)
	assert.Equal(t, "PAID", body.Order.Status)
	assert.Equal(t, "86500", body.Order.TotalAmount)
}

func TestAddToCartRequestValidation(t *testing.T) {
	buyer := domain.Identity{UserID: uuid.New()}
	productID := uuid.New()

	var gotQuantity int
	carts := &stubCartService{addToCart: func(userID, pid uuid.UUID, quantity int) (*domain.CartItem, error) {
		gotQuantity = quantity
		return &domain.CartItem{ID: uuid.New(), UserID: userID, ProductID: pid, Quantity: quantity}, nil
	}}
	router := orderRouter(buyer, carts, nil)

	rec := do(t, router, http.MethodPost, "/api/orders/cart", map[string]interface{}{"quantity": 2})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "validation failed", body.Error.Message)
	assert.Contains(t, rec.Body.String(), `"field":"product_id"`)

	rec = do(t, router, http.MethodPost, "/api/orders/cart", `{"product_id": `)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeError(t, rec).Error.Message)

	rec = do(t, router, http.MethodPost, "/api/orders/cart", map[string]interface{}{"product_id": productID, "quantity": 3})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 3, gotQuantity)
}

func TestOrderStatusRoute(t *testing.T) {
	buyer := domain.Identity{UserID: uuid.New()}
	orders := &stubOrderService{updateStatus: func(identity domain.Identity, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
		if status != domain.OrderStatusCancelled {
			return nil, domain.Forbidden("buyers can only cancel orders")
		}
		return &domain.Order{ID: orderID, BuyerID: identity.UserID, Status: status}, nil
	}}
	router := orderRouter(buyer, nil, orders)

	rec := do(t, router, http.MethodPut, "/api/orders/not-a-uuid/status", map[string]string{"status": "CANCELLED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid id", decodeError(t, rec).Error.Message)

	rec = do(t, router, http.MethodPut, "/api/orders/"+uuid.NewString()+"/status", map[string]string{"status": "SHIPPED"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodPut, "/api/orders/"+uuid.NewString()+"/status", map[string]string{"status": "CANCELLED"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CANCELLED"`)
}

func TestRoleGatedRoutes(t *testing.T) {
	inspections := &stubInspectionService{}

	tests := []struct {
		name       string
		identity   domain.Identity
		wantStatus int
	}{
		{name: "plain user", identity: domain.Identity{UserID: uuid.New()}, wantStatus: http.StatusForbidden},
		{name: "seller", identity: domain.Identity{UserID: uuid.New(), SellerID: uuid.NullUUID{UUID: uuid.New(), Valid: true}}, wantStatus: http.StatusForbidden},
		{name: "mechanic", identity: domain.Identity{UserID: uuid.New(), MechanicID: uuid.NullUUID{UUID: uuid.New(), Valid: true}}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			NewInspectionHandler(inspections, zap.NewNop()).RegisterRoutes(router, asIdentity(tt.identity))

			rec := do(t, router, http.MethodGet, "/api/inspections/available", nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestProtectedRoutesUseAuthChain(t *testing.T) {
	userID := uuid.New()
	users := &stubUserService{identity: &domain.Identity{UserID: userID, Email: "rider@example.com"}}
	carts := &stubCartService{checkout: func(id uuid.UUID) (*domain.Order, error) {
		return &domain.Order{ID: uuid.New(), BuyerID: id, Status: domain.OrderStatusPaid}, nil
	}}

	auth := middleware.AuthMiddleware(testSecret, zap.NewNop())
	identity := middleware.IdentityMiddleware(users, zap.NewNop())
	router := chi.NewRouter()
	NewOrderHandler(carts, nil, zap.NewNop()).RegisterRoutes(router, func(next http.Handler) http.Handler {
		return auth(identity(next))
	})

	sign := func(id uuid.UUID) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": id.String(),
			"email":   "rider@example.com",
			"exp":     time.Now().Add(time.Minute).Unix(),
		})
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)
		return signed
	}

	rec := do(t, router, http.MethodPost, "/api/orders/checkout", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/orders/checkout", nil, "Authorization", "Bearer "+sign(uuid.New()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "deleted users are rejected")

	rec = do(t, router, http.MethodPost, "/api/orders/checkout", nil, "Authorization", "Bearer "+sign(userID))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "rider@example.com", Name: "Rider"}
	users := &stubUserService{login: func(email, password string) (*service.AuthResult, error) {
		if password != "password1" {
			return nil, service.ErrInvalidCredentials
		}
		return &service.AuthResult{AccessToken: "access", RefreshToken: "refresh", User: user, Roles: domain.Roles{IsSeller: true}}, nil
	}}

	router := chi.NewRouter()
	NewUserHandler(users, nil, zap.NewNop()).RegisterRoutes(router, asIdentity(domain.Identity{}))

	rec := do(t, router, http.MethodPost, "/api/auth/login", LoginRequest{Email: "rider@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/auth/login", LoginRequest{Email: "not-an-email", Password: "password1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/auth/login", LoginRequest{Email: "rider@example.com", Password: "password1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "access", body.AccessToken)
	assert.Equal(t, user.ID, body.User.ID)
	assert.True(t, body.Roles.IsSeller)
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestListProductsQueryParsing(t *testing.T) {
	catalog := &stubCatalogService{}
	router := chi.NewRouter()
	NewProductHandler(catalog, zap.NewNop()).RegisterRoutes(router, asIdentity(domain.Identity{}))

	rec := do(t, router, http.MethodGet, "/api/products/?type=bike&brand=Honda&min_price=50000&max_price=90000.50&page=2&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ProductTypeBike, catalog.lastFilter.Type)
	assert.Equal(t, "Honda", catalog.lastFilter.Brand)
	require.NotNil(t, catalog.lastFilter.MaxPrice)
	assert.Equal(t, "90000.5", catalog.lastFilter.MaxPrice.String())
	assert.Equal(t, 2, catalog.lastFilter.Page)
	assert.Equal(t, 10, catalog.lastFilter.PageSize)

	rec = do(t, router, http.MethodGet, "/api/products/?type=car", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/products/?min_price=cheap", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid min_price", decodeError(t, rec).Error.Message)
}
