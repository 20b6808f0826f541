package transport

import (
	"net/http"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/middleware"
	"bike-bazaar/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

type UpdateOrderStatusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
}

type CheckoutResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

// OrderHandler serves the cart, checkout and order history
type OrderHandler struct {
	cartService  service.CartService
	orderService service.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(cartService service.CartService, orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{cartService: cartService, orderService: orderService, logger: logger}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router, protected func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(protected)

		r.Get("/cart", h.GetCart)
		r.Post("/cart", h.AddToCart)
		r.Put("/cart/{id}", h.UpdateCartItem)
		r.Delete("/cart/{id}", h.RemoveCartItem)
		r.Post("/checkout", h.Checkout)

		r.Get("/my-orders", h.ListMyOrders)
		r.With(middleware.RequireSeller(h.logger)).Get("/seller-orders", h.ListSellerOrders)
		r.Get("/product/{productId}", h.ListProductSales)
		r.Get("/{id}", h.GetOrder)
		r.Put("/{id}/status", h.UpdateStatus)
	})
}

func (h *OrderHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	lines, err := h.cartService.GetCart(r.Context(), identity.UserID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "get cart", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, lines)
}

func (h *OrderHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	item, err := h.cartService.AddToCart(r.Context(), identity.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "add to cart", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

func (h *OrderHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	item, err := h.cartService.UpdateCartItem(r.Context(), identity.UserID, id, req.Quantity)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "update cart item", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

func (h *OrderHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.cartService.RemoveCartItem(r.Context(), identity.UserID, id); err != nil {
		respondWithServiceError(w, r, h.logger, "remove cart item", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	order, err := h.cartService.Checkout(r.Context(), identity.UserID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "checkout", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, CheckoutResponse{
		Message: "order placed successfully",
		Order:   order,
	})
}

func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	orders, err := h.orderService.ListMyOrders(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "list orders", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListSellerOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	sales, err := h.orderService.ListSellerOrders(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "list seller orders", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, sales)
}

func (h *OrderHandler) ListProductSales(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productId")
	if !ok {
		return
	}

	sales, err := h.orderService.ListProductSales(r.Context(), identity, productID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "list product sales", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, sales)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), identity, id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "get order", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	order, err := h.orderService.UpdateOrderStatus(r.Context(), identity, id, req.Status)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "update order status", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}
