// Package rest provides the HTTP surface consumed by the storefront screens.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/phajay/storefront/internal/catalog"
	"github.com/phajay/storefront/internal/order"
	"github.com/phajay/storefront/internal/payment"
	"github.com/phajay/storefront/pkg/currency"
	"github.com/phajay/storefront/pkg/web"
)

type Handler struct {
	service  order.Service
	catalog  *catalog.Provider
	links    *payment.LinkBuilder
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the storefront API with the provided service.
func NewHandler(service order.Service, catalog *catalog.Provider, links *payment.LinkBuilder, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		catalog:  catalog,
		links:    links,
		validate: validator.New(),

		logger: logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the storefront.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/{id}", h.GetProduct)
		})
		r.Get("/categories", h.ListCategories)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Route("/items/{id}", func(r chi.Router) {
				r.Put("/", h.SetQuantity)
				r.Delete("/", h.RemoveItem)
			})
		})
		r.Post("/checkout", h.Checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetOrder)
				r.Put("/status", h.UpdateStatus)
			})
		})
	})
	r.Get("/payment/return", h.PaymentReturn)
	r.Get("/healthz", h.HealthCheck)
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type setQuantityRequest struct {
	// Zero and negative quantities remove the line, so no floor here.
	Quantity *int `json:"quantity" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

// cartView is the cart as rendered by the cart screen. An absent cart renders
// the same as an empty one.
type cartView struct {
	ID           string       `json:"id,omitempty"`
	Items        []order.Line `json:"items"`
	Total        int64        `json:"total"`
	TotalDisplay string       `json:"total_display"`
}

func toCartView(o *order.Order) cartView {
	if o == nil {
		return cartView{Items: []order.Line{}, TotalDisplay: currency.FormatKip(0)}
	}
	return cartView{
		ID:           o.ID,
		Items:        o.Items,
		Total:        o.Total,
		TotalDisplay: currency.FormatKip(o.Total),
	}
}

type checkoutResponse struct {
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
	PaymentURL string `json:"payment_url"`
}

// ListProducts returns the catalog, optionally filtered by category or search query.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	var list []catalog.Product
	if q := r.URL.Query().Get("q"); q != "" {
		list = h.catalog.Search(q)
	} else {
		list = h.catalog.FindByCategory(r.URL.Query().Get("category"))
	}
	mLogger.DebugContext(r.Context(), "Successfully listed products", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// GetProduct retrieves a single catalog product by its ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	product, err := h.catalog.FindByID(id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, product)
}

// ListCategories returns the category filter list.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.loggerWithReqID(r), http.StatusOK, h.catalog.Categories())
}

// GetCart returns the current cart, rendered empty when none exists.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cart := h.service.CurrentCart(r.Context())
	web.RespondJSON(w, mLogger, http.StatusOK, toCartView(cart))
}

// AddItem adds a catalog product to the current cart, creating the cart if needed.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, req) {
		return
	}

	product, err := h.catalog.FindByID(req.ProductID)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Product not found for cart add", "ID", req.ProductID)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", req.ProductID))
		return
	}

	cart, err := h.service.AddItem(r.Context(), *product, req.Quantity)
	if err != nil {
		if errors.Is(err, order.ErrInvalidQuantity) {
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error adding item to cart", "ID", req.ProductID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to add item to cart")
		return
	}
	mLogger.InfoContext(r.Context(), "Item added to cart", "cart_id", cart.ID, "product_id", req.ProductID, "quantity", req.Quantity)
	web.RespondJSON(w, mLogger, http.StatusOK, toCartView(cart))
}

// SetQuantity overwrites a cart line's quantity. Zero or less removes the line.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, req) {
		return
	}

	cart := h.service.SetQuantity(r.Context(), id, *req.Quantity)
	web.RespondJSON(w, mLogger, http.StatusOK, toCartView(cart))
}

// RemoveItem deletes a line from the current cart. Unknown lines are a no-op.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	cart := h.service.RemoveItem(r.Context(), id)
	web.RespondJSON(w, mLogger, http.StatusOK, toCartView(cart))
}

// ClearCart deletes the cart order entirely.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	h.service.ClearCart(r.Context())
	web.RespondJSON(w, mLogger, http.StatusOK, toCartView(nil))
}

// Checkout builds the payment link for the current cart.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	cart := h.service.CurrentCart(r.Context())
	if cart == nil || len(cart.Items) == 0 {
		web.RespondError(w, mLogger, http.StatusBadRequest, "No items in cart")
		return
	}

	description := fmt.Sprintf("Storefront order %s", cart.ID)
	resp := checkoutResponse{
		OrderID:    cart.ID,
		Amount:     cart.Total,
		PaymentURL: h.links.PayURL(cart.ID, cart.Total, description),
	}
	mLogger.InfoContext(r.Context(), "Checkout link created", "ID", cart.ID, "amount", cart.Total)
	web.RespondJSON(w, mLogger, http.StatusOK, resp)
}

// ListOrders returns order history, or orders in a single status when the
// status query parameter is present.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := order.Status(raw)
		if !status.Valid() {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Unknown status: %s", raw))
			return
		}
		web.RespondJSON(w, mLogger, http.StatusOK, h.service.OrdersByStatus(r.Context(), status))
		return
	}

	list := h.service.History(r.Context())
	mLogger.DebugContext(r.Context(), "Successfully retrieved order history", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// GetOrder retrieves an order by its ID.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	found, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			mLogger.WarnContext(r.Context(), "Order not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Order with ID %s not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving order", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve order with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// UpdateStatus replaces an order's status. The cart status cannot be re-entered.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, req) {
		return
	}

	updated := h.service.UpdateStatus(r.Context(), id, order.Status(req.Status))
	if updated == nil {
		mLogger.WarnContext(r.Context(), "Order not found for status update", "ID", id)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Order with ID %s not found", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Order status updated", "ID", id, "status", req.Status)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// PaymentReturn consumes the gateway redirect and reconciles the result
// against the order collection.
func (h *Handler) PaymentReturn(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	params, err := payment.ParseReturn(r.URL.Query())
	if err != nil {
		mLogger.WarnContext(r.Context(), "Invalid payment return parameters", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		return
	}

	completed := h.service.CompletePayment(r.Context(), params.OrderNo, params.Amount, params.Description)
	mLogger.InfoContext(r.Context(), "Payment return processed", "ID", completed.ID, "link_code", params.LinkCode)
	web.RespondJSON(w, mLogger, http.StatusOK, completed)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// validateStruct runs the validator and writes field errors to the response.
// Returns false if validation failed.
func (h *Handler) validateStruct(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, v any) bool {
	if err := h.validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
