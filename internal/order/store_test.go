package order

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"

	"github.com/phajay/storefront/internal/catalog"
	"github.com/phajay/storefront/internal/storage"
	"github.com/phajay/storefront/pkg/messaging"
	"github.com/phajay/storefront/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPublisher records published events for assertions.
type mockPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
}

func (m *mockPublisher) Publish(_ context.Context, event messaging.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) published() []messaging.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]messaging.Event(nil), m.events...)
}

var (
	phone  = catalog.Product{ID: "1", Name: "iPhone 15 Pro", Price: 25_900_000, Category: "Mobile Phones"}
	laptop = catalog.Product{ID: "2", Name: "MacBook Air M3", Price: 32_500_000, Category: "Computers"}
)

func newTestStore(t *testing.T) (*Store, storage.Store, *mockPublisher) {
	t.Helper()
	st := storage.NewMemoryStore(0)
	publisher := &mockPublisher{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewStore(context.Background(), st, publisher, logger), st, publisher
}

func persistedOrders(t *testing.T, st storage.Store) []Order {
	t.Helper()
	raw, ok, err := st.Get(context.Background(), storage.KeyOrders)
	require.NoError(t, err)
	require.True(t, ok, "orders should be persisted")
	var orders []Order
	require.NoError(t, json.Unmarshal(raw, &orders))
	return orders
}

func persistedCartID(t *testing.T, st storage.Store) (string, bool) {
	t.Helper()
	raw, ok, err := st.Get(context.Background(), storage.KeyCartID)
	require.NoError(t, err)
	return string(raw), ok
}

func Test_OrderStore_AddItem(t *testing.T) {
	t.Run("Success - creates cart lazily on first add", func(t *testing.T) {
		// given
		store, st, _ := newTestStore(t)
		// when
		cart, err := store.AddItem(context.Background(), phone, 2)
		// then
		require.NoError(t, err)
		require.NotNil(t, cart)
		assert.Equal(t, StatusInCart, cart.Status)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 2, cart.Items[0].Quantity)
		assert.Equal(t, phone.Price*2, cart.Total)

		persisted := persistedOrders(t, st)
		require.Len(t, persisted, 1)
		assert.Equal(t, cart.ID, persisted[0].ID)

		cartID, ok := persistedCartID(t, st)
		assert.True(t, ok)
		assert.Equal(t, cart.ID, cartID)
	})

	t.Run("Success - merges line for same product", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		_, err := store.AddItem(context.Background(), phone, 1)
		require.NoError(t, err)
		// when
		cart, err := store.AddItem(context.Background(), phone, 3)
		// then
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 4, cart.Items[0].Quantity)
		assert.Equal(t, phone.Price*4, cart.Total)
	})

	t.Run("Success - separate lines for different products", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		_, err := store.AddItem(context.Background(), phone, 1)
		require.NoError(t, err)
		// when
		cart, err := store.AddItem(context.Background(), laptop, 1)
		// then
		require.NoError(t, err)
		require.Len(t, cart.Items, 2)
		assert.Equal(t, phone.Price+laptop.Price, cart.Total)
	})

	t.Run("Error - non-positive quantity", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		// when
		cart, err := store.AddItem(context.Background(), phone, 0)
		// then
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Nil(t, cart)
		assert.Nil(t, store.CurrentCart(context.Background()), "no cart should be created")
	})
}

func Test_OrderStore_RemoveItem(t *testing.T) {
	t.Run("Success - removes matching line", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		_, err := store.AddItem(context.Background(), phone, 1)
		require.NoError(t, err)
		_, err = store.AddItem(context.Background(), laptop, 1)
		require.NoError(t, err)
		// when
		cart := store.RemoveItem(context.Background(), phone.ID)
		// then
		require.NotNil(t, cart)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, laptop.ID, cart.Items[0].Product.ID)
		assert.Equal(t, laptop.Price, cart.Total)
	})

	t.Run("Success - unknown product is a no-op", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		_, err := store.AddItem(context.Background(), phone, 2)
		require.NoError(t, err)
		// when
		cart := store.RemoveItem(context.Background(), "missing")
		// then
		require.NotNil(t, cart)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, phone.Price*2, cart.Total)
	})

	t.Run("Success - nil without a cart", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		// when
		cart := store.RemoveItem(context.Background(), phone.ID)
		// then
		assert.Nil(t, cart)
	})
}

func Test_OrderStore_SetQuantity(t *testing.T) {
	t.Run("Success - overwrites quantity", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		_, err := store.AddItem(context.Background(), phone, 2)
		require.NoError(t, err)
		// when
		cart := store.SetQuantity(context.Background(), phone.ID, 5)
		// then
		require.NotNil(t, cart)
		assert.Equal(t, 5, cart.Items[0].Quantity)
		assert.Equal(t, phone.Price*5, cart.Total)
	})

	t.Run("Success - zero removes the line", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		_, err := store.AddItem(context.Background(), phone, 2)
		require.NoError(t, err)
		// when
		cart := store.SetQuantity(context.Background(), phone.ID, 0)
		// then
		require.NotNil(t, cart)
		assert.Empty(t, cart.Items)
		assert.Zero(t, cart.Total)
	})

	t.Run("Success - never inserts a new line", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		_, err := store.AddItem(context.Background(), phone, 1)
		require.NoError(t, err)
		// when
		cart := store.SetQuantity(context.Background(), laptop.ID, 3)
		// then
		require.NotNil(t, cart)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, phone.ID, cart.Items[0].Product.ID)
	})
}

func Test_OrderStore_ClearCart(t *testing.T) {
	t.Run("Success - deletes the cart order entirely", func(t *testing.T) {
		// given
		store, st, _ := newTestStore(t)
		_, err := store.AddItem(context.Background(), phone, 1)
		require.NoError(t, err)
		// when
		store.ClearCart(context.Background())
		// then
		assert.Nil(t, store.CurrentCart(context.Background()))
		assert.Empty(t, persistedOrders(t, st))
		_, ok := persistedCartID(t, st)
		assert.False(t, ok, "cart id should be removed from storage")
	})

	t.Run("Success - no-op without a cart", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		// when
		store.ClearCart(context.Background())
		// then
		assert.Nil(t, store.CurrentCart(context.Background()))
	})
}

func Test_OrderStore_CurrentCart(t *testing.T) {
	t.Run("Success - nil when no cart exists", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		// when
		cart := store.CurrentCart(context.Background())
		// then
		assert.Nil(t, cart)
	})

	t.Run("Success - repairs stale cached cart id", func(t *testing.T) {
		// given: persisted state where the cached id points at a completed order
		st := storage.NewMemoryStore(0)
		orders := []Order{
			{ID: "ORD-1", Status: StatusDelivered, Items: []Line{}},
			{ID: "ORD-2", Status: StatusInCart, Items: []Line{{Product: phone, Quantity: 1}}, Total: phone.Price},
		}
		raw, err := json.Marshal(orders)
		require.NoError(t, err)
		require.NoError(t, st.Set(context.Background(), storage.KeyOrders, raw))
		require.NoError(t, st.Set(context.Background(), storage.KeyCartID, []byte("ORD-1")))
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		store := NewStore(context.Background(), st, &mockPublisher{}, logger)
		// when
		cart := store.CurrentCart(context.Background())
		// then
		require.NotNil(t, cart)
		assert.Equal(t, "ORD-2", cart.ID)
		cartID, ok := persistedCartID(t, st)
		assert.True(t, ok)
		assert.Equal(t, "ORD-2", cartID, "cache should be corrected in storage")
	})

	t.Run("Success - clears cached id when no in-cart order remains", func(t *testing.T) {
		// given
		st := storage.NewMemoryStore(0)
		require.NoError(t, st.Set(context.Background(), storage.KeyCartID, []byte("ORD-gone")))
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		store := NewStore(context.Background(), st, &mockPublisher{}, logger)
		// when
		cart := store.CurrentCart(context.Background())
		// then
		assert.Nil(t, cart)
		_, ok := persistedCartID(t, st)
		assert.False(t, ok)
	})

	t.Run("Success - first in-cart order wins over duplicates", func(t *testing.T) {
		// given
		st := storage.NewMemoryStore(0)
		orders := []Order{
			{ID: "ORD-A", Status: StatusInCart, Items: []Line{}},
			{ID: "ORD-B", Status: StatusInCart, Items: []Line{}},
		}
		raw, err := json.Marshal(orders)
		require.NoError(t, err)
		require.NoError(t, st.Set(context.Background(), storage.KeyOrders, raw))
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		store := NewStore(context.Background(), st, &mockPublisher{}, logger)
		// when
		cart := store.CurrentCart(context.Background())
		// then
		require.NotNil(t, cart)
		assert.Equal(t, "ORD-A", cart.ID)
	})
}

func Test_OrderStore_Load(t *testing.T) {
	t.Run("Success - state survives a restart", func(t *testing.T) {
		// given
		st := storage.NewMemoryStore(0)
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		first := NewStore(context.Background(), st, &mockPublisher{}, logger)
		cart, err := first.AddItem(context.Background(), phone, 2)
		require.NoError(t, err)
		// when
		second := NewStore(context.Background(), st, &mockPublisher{}, logger)
		// then
		reloaded := second.CurrentCart(context.Background())
		require.NotNil(t, reloaded)
		assert.Equal(t, cart.ID, reloaded.ID)
		assert.Equal(t, cart.Total, reloaded.Total)
		require.Len(t, reloaded.Items, 1)
		assert.Equal(t, phone.ID, reloaded.Items[0].Product.ID)
	})

	t.Run("Success - malformed persisted orders start empty", func(t *testing.T) {
		// given
		st := storage.NewMemoryStore(0)
		require.NoError(t, st.Set(context.Background(), storage.KeyOrders, []byte("{not json")))
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		// when
		store := NewStore(context.Background(), st, &mockPublisher{}, logger)
		// then
		assert.Nil(t, store.CurrentCart(context.Background()))
		assert.Empty(t, store.History(context.Background()))
	})
}

func Test_OrderStore_GetOrder(t *testing.T) {
	t.Run("Success - found in memory", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		cart, err := store.AddItem(context.Background(), phone, 1)
		require.NoError(t, err)
		// when
		found, err := store.GetOrder(context.Background(), cart.ID)
		// then
		require.NoError(t, err)
		assert.Equal(t, cart.ID, found.ID)
	})

	t.Run("Success - falls back to persisted collection", func(t *testing.T) {
		// given: another session wrote an order this instance has not seen
		store, st, _ := newTestStore(t)
		foreign := []Order{{ID: "ORD-foreign", Status: StatusDelivered, Items: []Line{}, Total: 100}}
		raw, err := json.Marshal(foreign)
		require.NoError(t, err)
		require.NoError(t, st.Set(context.Background(), storage.KeyOrders, raw))
		// when
		found, err := store.GetOrder(context.Background(), "ORD-foreign")
		// then
		require.NoError(t, err)
		assert.Equal(t, "ORD-foreign", found.ID)
		assert.Equal(t, StatusDelivered, found.Status)
	})

	t.Run("Success - merge never overwrites in-memory orders", func(t *testing.T) {
		// given
		store, st, _ := newTestStore(t)
		cart, err := store.AddItem(context.Background(), phone, 1)
		require.NoError(t, err)
		conflicting := []Order{{ID: cart.ID, Status: StatusCancelled, Items: []Line{}}}
		raw, err := json.Marshal(conflicting)
		require.NoError(t, err)
		require.NoError(t, st.Set(context.Background(), storage.KeyOrders, raw))
		// when
		_, err = store.GetOrder(context.Background(), "ORD-not-there")
		// then
		assert.ErrorIs(t, err, ErrOrderNotFound)
		kept, err := store.GetOrder(context.Background(), cart.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusInCart, kept.Status, "memory wins on conflict")
	})

	t.Run("Error - unknown order", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		// when
		found, err := store.GetOrder(context.Background(), "ORD-unknown")
		// then
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.Nil(t, found)
	})
}

func Test_OrderStore_UpdateStatus(t *testing.T) {
	t.Run("Success - checkout leaves the cart empty", func(t *testing.T) {
		// given
		store, st, publisher := newTestStore(t)
		cart, err := store.AddItem(context.Background(), phone, 1)
		require.NoError(t, err)
		// when
		updated := store.UpdateStatus(context.Background(), cart.ID, StatusPending)
		// then
		require.NotNil(t, updated)
		assert.Equal(t, StatusPending, updated.Status)
		assert.Nil(t, store.CurrentCart(context.Background()), "order left the cart")

		_, ok := persistedCartID(t, st)
		assert.False(t, ok, "cart id cache should be cleared")
		persisted := persistedOrders(t, st)
		require.Len(t, persisted, 1)
		assert.Equal(t, StatusPending, persisted[0].Status)

		published := publisher.published()
		require.Len(t, published, 1)
		event, isStatusChanged := published[0].(events.OrderStatusChangedEvent)
		require.True(t, isStatusChanged)
		assert.Equal(t, cart.ID, event.OrderID)
		assert.Equal(t, string(StatusInCart), event.From)
		assert.Equal(t, string(StatusPending), event.To)
	})

	t.Run("Success - non-cart status change keeps history", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		cart, err := store.AddItem(context.Background(), phone, 1)
		require.NoError(t, err)
		require.NotNil(t, store.UpdateStatus(context.Background(), cart.ID, StatusPending))
		// when
		updated := store.UpdateStatus(context.Background(), cart.ID, StatusShipped)
		// then
		require.NotNil(t, updated)
		assert.Equal(t, StatusShipped, updated.Status)
		history := store.History(context.Background())
		require.Len(t, history, 1)
		assert.Equal(t, StatusShipped, history[0].Status)
	})

	t.Run("Error - unknown status is rejected", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		cart, err := store.AddItem(context.Background(), phone, 1)
		require.NoError(t, err)
		// when
		updated := store.UpdateStatus(context.Background(), cart.ID, Status("teleported"))
		// then
		assert.Nil(t, updated)
		current := store.CurrentCart(context.Background())
		require.NotNil(t, current)
		assert.Equal(t, StatusInCart, current.Status, "state should be unchanged")
	})

	t.Run("Error - unknown order id", func(t *testing.T) {
		// given
		store, _, _ := newTestStore(t)
		// when
		updated := store.UpdateStatus(context.Background(), "ORD-unknown", StatusPending)
		// then
		assert.Nil(t, updated)
	})
}

func Test_OrderStore_History(t *testing.T) {
	// given
	store, _, _ := newTestStore(t)
	first, err := store.AddItem(context.Background(), phone, 1)
	require.NoError(t, err)
	require.NotNil(t, store.UpdateStatus(context.Background(), first.ID, StatusDelivered))
	second, err := store.AddItem(context.Background(), laptop, 1)
	require.NoError(t, err)
	// when
	history := store.History(context.Background())
	// then
	require.Len(t, history, 1, "in-cart order must not appear in history")
	assert.Equal(t, first.ID, history[0].ID)
	assert.NotEqual(t, second.ID, history[0].ID)
}

func Test_OrderStore_OrdersByStatus(t *testing.T) {
	// given
	store, _, _ := newTestStore(t)
	first, err := store.AddItem(context.Background(), phone, 1)
	require.NoError(t, err)
	require.NotNil(t, store.UpdateStatus(context.Background(), first.ID, StatusDelivered))
	second, err := store.AddItem(context.Background(), laptop, 1)
	require.NoError(t, err)
	require.NotNil(t, store.UpdateStatus(context.Background(), second.ID, StatusPending))
	// when
	delivered := store.OrdersByStatus(context.Background(), StatusDelivered)
	pending := store.OrdersByStatus(context.Background(), StatusPending)
	cancelled := store.OrdersByStatus(context.Background(), StatusCancelled)
	// then
	require.Len(t, delivered, 1)
	assert.Equal(t, first.ID, delivered[0].ID)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
	assert.Empty(t, cancelled)
}

func Test_OrderStore_CompletePayment(t *testing.T) {
	t.Run("Success - in-cart order is delivered with placeholder address", func(t *testing.T) {
		// given
		store, st, publisher := newTestStore(t)
		cart, err := store.AddItem(context.Background(), phone, 2)
		require.NoError(t, err)
		// when
		completed := store.CompletePayment(context.Background(), cart.ID, cart.Total, "order payment")
		// then
		require.NotNil(t, completed)
		assert.Equal(t, StatusDelivered, completed.Status)
		assert.Equal(t, PaymentMethodLink, completed.PaymentMethod)
		require.NotNil(t, completed.ShippingAddress)
		assert.Equal(t, "Customer", completed.ShippingAddress.FullName)
		assert.Equal(t, "Laos", completed.ShippingAddress.Country)
		assert.Nil(t, store.CurrentCart(context.Background()))
		_, ok := persistedCartID(t, st)
		assert.False(t, ok)

		published := publisher.published()
		require.Len(t, published, 1)
		event, isCheckedOut := published[0].(events.OrderCheckedOutEvent)
		require.True(t, isCheckedOut)
		assert.Equal(t, cart.ID, event.OrderID)
		assert.Equal(t, cart.Total, event.Total)
	})

	t.Run("Success - already processed order is returned untouched", func(t *testing.T) {
		// given
		store, _, publisher := newTestStore(t)
		cart, err := store.AddItem(context.Background(), phone, 1)
		require.NoError(t, err)
		first := store.CompletePayment(context.Background(), cart.ID, cart.Total, "order payment")
		require.NotNil(t, first)
		// when: the gateway redirect fires twice
		second := store.CompletePayment(context.Background(), cart.ID, cart.Total, "order payment")
		// then
		require.NotNil(t, second)
		assert.Equal(t, StatusDelivered, second.Status)
		assert.Len(t, publisher.published(), 1, "no duplicate checkout event")
	})

	t.Run("Success - unknown order is synthesized but not stored", func(t *testing.T) {
		// given
		store, _, publisher := newTestStore(t)
		// when
		completed := store.CompletePayment(context.Background(), "ORD-ghost", 1_500_000, "order payment")
		// then
		require.NotNil(t, completed)
		assert.Equal(t, "ORD-ghost", completed.ID)
		assert.Equal(t, int64(1_500_000), completed.Total)
		assert.Equal(t, StatusDelivered, completed.Status)
		assert.Empty(t, completed.Items)
		require.NotNil(t, completed.ShippingAddress)

		_, err := store.GetOrder(context.Background(), "ORD-ghost")
		assert.ErrorIs(t, err, ErrOrderNotFound, "synthesized order must not join the collection")
		assert.Empty(t, publisher.published())
	})
}

func Test_OrderStore_QuotaExceeded(t *testing.T) {
	// given: a quota too small for any order payload
	st := storage.NewMemoryStore(64)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := NewStore(context.Background(), st, &mockPublisher{}, logger)
	// when
	cart, err := store.AddItem(context.Background(), phone, 1)
	// then: memory remains the source of truth for the session
	require.NoError(t, err)
	require.NotNil(t, cart)
	current := store.CurrentCart(context.Background())
	require.NotNil(t, current)
	assert.Equal(t, cart.ID, current.ID)
	assert.Equal(t, phone.Price, current.Total)
}

func Test_newOrderID(t *testing.T) {
	// given
	pattern := regexp.MustCompile(`^ORD-\d{13}-[0-9a-f]{8}$`)
	seen := make(map[string]struct{})
	// when / then
	for range 100 {
		id := newOrderID()
		assert.Regexp(t, pattern, id)
		_, dup := seen[id]
		assert.False(t, dup, "ids should not repeat")
		seen[id] = struct{}{}
	}
}
