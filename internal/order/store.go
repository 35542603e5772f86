package order

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/phajay/storefront/internal/catalog"
	"github.com/phajay/storefront/internal/storage"
	"github.com/phajay/storefront/pkg/messaging"
	"github.com/phajay/storefront/pkg/messaging/events"
)

// Service defines the operations the order store exposes to consumers.
// It abstracts the underlying state manager, allowing handlers to be tested
// against alternative implementations.
type Service interface {
	// AddItem resolves or creates the current cart order and adds quantity of
	// product to it, merging with an existing line for the same product.
	// Returns ErrInvalidQuantity if quantity is not positive.
	AddItem(ctx context.Context, product catalog.Product, quantity int) (*Order, error)

	// RemoveItem deletes the matching line from the current cart.
	// A missing cart or line is a silent no-op. Returns the cart, or nil if none exists.
	RemoveItem(ctx context.Context, productID string) *Order

	// SetQuantity overwrites the matching line's quantity. A quantity of zero
	// or less behaves as RemoveItem. It never inserts a new line.
	SetQuantity(ctx context.Context, productID string, quantity int) *Order

	// ClearCart deletes the current cart order entirely from the collection.
	ClearCart(ctx context.Context)

	// CurrentCart returns the unique in-cart order, or nil if none exists.
	CurrentCart(ctx context.Context) *Order

	// GetOrder looks an order up by id, falling back to the persisted
	// collection when it is absent from memory.
	// Returns ErrOrderNotFound if it exists in neither.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// UpdateStatus replaces the status of the identified order.
	// Returns the updated order, or nil if the id is unknown or the status invalid.
	UpdateStatus(ctx context.Context, id string, status Status) *Order

	// History returns all orders that have left the cart, in collection order.
	History(ctx context.Context) []Order

	// OrdersByStatus returns the orders with exactly the given status.
	OrdersByStatus(ctx context.Context, status Status) []Order

	// CompletePayment reconciles a payment-gateway return. It always yields an
	// order for the confirmation view, synthesizing one when no match exists.
	CompletePayment(ctx context.Context, orderNo string, amount int64, description string) *Order
}

var _ Service = (*Store)(nil)

// Store owns the in-memory order collection and the identity of the current
// cart order. The persistence medium is a durability mirror: it is fully
// replaced by memory on every committed mutation and only read on startup or
// as a lookup fallback. One Store instance serves the whole session.
type Store struct {
	mu        sync.Mutex
	storage   storage.Store
	publisher messaging.Publisher
	logger    *slog.Logger

	orders []Order
	// cartID caches the id of the unique in-cart order. The collection scan is
	// authoritative; the cache is corrected on read whenever they disagree.
	cartID string
}

// NewStore creates a Store bootstrapped from the persistence medium.
// Malformed persisted state is treated as empty; construction never fails.
func NewStore(ctx context.Context, st storage.Store, publisher messaging.Publisher, logger *slog.Logger) *Store {
	s := &Store{
		storage:   st,
		publisher: publisher,
		logger:    logger.With("component", "order_store"),
	}
	s.load(ctx)
	return s
}

// load reads the persisted order collection and cart id into memory.
func (s *Store) load(ctx context.Context) {
	raw, ok, err := s.storage.Get(ctx, storage.KeyOrders)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read persisted orders, starting empty", "error", err)
	} else if ok {
		var orders []Order
		if err := json.Unmarshal(raw, &orders); err != nil {
			s.logger.WarnContext(ctx, "Malformed persisted orders, starting empty", "error", err)
		} else {
			s.orders = orders
		}
	}

	raw, ok, err = s.storage.Get(ctx, storage.KeyCartID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read persisted cart id", "error", err)
	} else if ok {
		s.cartID = string(raw)
	}
}

func (s *Store) AddItem(ctx context.Context, product catalog.Product, quantity int) (*Order, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.getOrCreateCart(ctx)
	cart := &s.orders[idx]

	merged := false
	for i := range cart.Items {
		if cart.Items[i].Product.ID == product.ID {
			cart.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, Line{Product: product, Quantity: quantity})
	}
	cart.recalcTotal()
	s.persistOrders(ctx)

	out := cart.clone()
	return &out, nil
}

func (s *Store) RemoveItem(ctx context.Context, productID string) *Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.cartIndex(ctx)
	if idx < 0 {
		return nil
	}
	cart := &s.orders[idx]

	for i := range cart.Items {
		if cart.Items[i].Product.ID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			cart.recalcTotal()
			s.persistOrders(ctx)
			break
		}
	}

	out := cart.clone()
	return &out
}

func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) *Order {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.cartIndex(ctx)
	if idx < 0 {
		return nil
	}
	cart := &s.orders[idx]

	for i := range cart.Items {
		if cart.Items[i].Product.ID == productID {
			cart.Items[i].Quantity = quantity
			cart.recalcTotal()
			s.persistOrders(ctx)
			break
		}
	}

	out := cart.clone()
	return &out
}

func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.cartIndex(ctx)
	if idx < 0 {
		if s.cartID != "" {
			s.cartID = ""
			s.persistCartID(ctx)
		}
		return
	}

	s.orders = append(s.orders[:idx], s.orders[idx+1:]...)
	s.cartID = ""
	s.persistOrders(ctx)
	s.persistCartID(ctx)
}

func (s *Store) CurrentCart(ctx context.Context) *Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.cartIndex(ctx)
	if idx < 0 {
		return nil
	}
	out := s.orders[idx].clone()
	return &out
}

func (s *Store) GetOrder(ctx context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.findIndex(id); i >= 0 {
		out := s.orders[i].clone()
		return &out, nil
	}

	// The persisted copy may hold orders written by another session that this
	// instance has not seen yet.
	if s.mergeFromStorage(ctx) {
		if i := s.findIndex(id); i >= 0 {
			out := s.orders[i].clone()
			return &out, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) *Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !status.Valid() {
		s.logger.WarnContext(ctx, "Ignoring unknown order status", "ID", id, "status", status)
		return nil
	}
	i := s.findIndex(id)
	if i < 0 {
		s.logger.WarnContext(ctx, "Order not found for status update", "ID", id)
		return nil
	}

	previous := s.orders[i].Status
	s.orders[i].Status = status
	s.persistOrders(ctx)

	// The cart-id cache is cleared only after the status change is committed,
	// so no reader observes a stale pointer to a non-cart order.
	if status != StatusInCart && s.cartID == id {
		s.cartID = ""
		s.persistCartID(ctx)
	}

	s.publish(ctx, events.OrderStatusChangedEvent{
		OrderID:   id,
		From:      string(previous),
		To:        string(status),
		ChangedAt: time.Now().UTC(),
	})

	out := s.orders[i].clone()
	return &out
}

func (s *Store) History(ctx context.Context) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Order, 0, len(s.orders))
	for i := range s.orders {
		if s.orders[i].Status != StatusInCart {
			list = append(list, s.orders[i].clone())
		}
	}
	return list
}

func (s *Store) OrdersByStatus(_ context.Context, status Status) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Order, 0)
	for i := range s.orders {
		if s.orders[i].Status == status {
			list = append(list, s.orders[i].clone())
		}
	}
	return list
}

func (s *Store) CompletePayment(ctx context.Context, orderNo string, amount int64, description string) *Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findIndex(orderNo)
	if i < 0 && s.mergeFromStorage(ctx) {
		i = s.findIndex(orderNo)
	}

	if i >= 0 {
		if s.orders[i].Status == StatusInCart {
			s.orders[i].Status = StatusDelivered
			s.orders[i].ShippingAddress = placeholderShippingAddress()
			s.orders[i].PaymentMethod = PaymentMethodLink
			s.persistOrders(ctx)
			if s.cartID == orderNo {
				s.cartID = ""
				s.persistCartID(ctx)
			}
			s.publish(ctx, events.OrderCheckedOutEvent{
				OrderID:     orderNo,
				Total:       s.orders[i].Total,
				CompletedAt: time.Now().UTC(),
			})
		} else {
			s.logger.InfoContext(ctx, "Payment return for already processed order", "ID", orderNo, "status", s.orders[i].Status)
		}
		out := s.orders[i].clone()
		return &out
	}

	// No matching order: synthesize a minimal delivered order from the
	// returned amount so the confirmation view always has something to render.
	// It is not added to the collection.
	s.logger.WarnContext(ctx, "Payment return for unknown order, synthesizing", "orderNo", orderNo, "amount", amount, "description", description)
	return &Order{
		ID:              orderNo,
		Items:           []Line{},
		Total:           amount,
		Status:          StatusDelivered,
		CreatedAt:       time.Now().UTC(),
		ShippingAddress: placeholderShippingAddress(),
		PaymentMethod:   PaymentMethodLink,
	}
}

// findIndex returns the position of the order with the given id, or -1.
// Callers must hold the mutex.
func (s *Store) findIndex(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// cartIndex scans the collection for the in-cart order and reconciles the
// cached cart id against what it finds. The scan is authoritative.
// Callers must hold the mutex.
func (s *Store) cartIndex(ctx context.Context) int {
	idx := -1
	for i := range s.orders {
		if s.orders[i].Status != StatusInCart {
			continue
		}
		if idx >= 0 {
			s.logger.WarnContext(ctx, "Multiple in-cart orders found, using the first",
				"canonical", s.orders[idx].ID, "duplicate", s.orders[i].ID)
			continue
		}
		idx = i
	}

	if idx < 0 {
		if s.cartID != "" {
			s.cartID = ""
			s.persistCartID(ctx)
		}
		return -1
	}
	if s.cartID != s.orders[idx].ID {
		s.cartID = s.orders[idx].ID
		s.persistCartID(ctx)
	}
	return idx
}

// getOrCreateCart returns the index of the current cart order, creating a new
// in-cart order lazily when none exists. Callers must hold the mutex.
func (s *Store) getOrCreateCart(ctx context.Context) int {
	if idx := s.cartIndex(ctx); idx >= 0 {
		return idx
	}

	cart := Order{
		ID:        newOrderID(),
		Items:     []Line{},
		Status:    StatusInCart,
		CreatedAt: time.Now().UTC(),
	}
	s.orders = append(s.orders, cart)
	s.cartID = cart.ID
	s.persistCartID(ctx)
	s.logger.DebugContext(ctx, "Created new cart order", "ID", cart.ID)
	return len(s.orders) - 1
}

// mergeFromStorage folds persisted orders this instance has not seen into the
// collection. In-memory orders are never overwritten: on conflict, memory
// wins. Reports whether anything was merged. Callers must hold the mutex.
func (s *Store) mergeFromStorage(ctx context.Context) bool {
	raw, ok, err := s.storage.Get(ctx, storage.KeyOrders)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read persisted orders for merge", "error", err)
		return false
	}
	if !ok {
		return false
	}
	var persisted []Order
	if err := json.Unmarshal(raw, &persisted); err != nil {
		s.logger.WarnContext(ctx, "Malformed persisted orders, skipping merge", "error", err)
		return false
	}

	merged := false
	for i := range persisted {
		if s.findIndex(persisted[i].ID) < 0 {
			s.orders = append(s.orders, persisted[i])
			merged = true
		}
	}
	if merged {
		s.persistOrders(ctx)
	}
	return merged
}

// persistOrders writes the full collection to the persistence medium. A write
// failure is reported to the log only; memory remains the source of truth for
// the rest of the session. Callers must hold the mutex.
func (s *Store) persistOrders(ctx context.Context) {
	raw, err := json.Marshal(s.orders)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode orders for persistence", "error", err)
		return
	}
	if err := s.storage.Set(ctx, storage.KeyOrders, raw); err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			s.logger.ErrorContext(ctx, "Storage quota exceeded, keeping in-memory state only", "bytes", len(raw))
			return
		}
		s.logger.ErrorContext(ctx, "Failed to persist orders", "error", err)
	}
}

// persistCartID mirrors the cart-id cache to the persistence medium.
// Callers must hold the mutex.
func (s *Store) persistCartID(ctx context.Context) {
	if s.cartID == "" {
		if err := s.storage.Remove(ctx, storage.KeyCartID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to remove persisted cart id", "error", err)
		}
		return
	}
	if err := s.storage.Set(ctx, storage.KeyCartID, []byte(s.cartID)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist cart id", "error", err)
	}
}

func (s *Store) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "subject", event.Subject(), "error", err)
	}
}
