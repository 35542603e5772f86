// Package events contains the order lifecycle events published by the store.
package events

import (
	"encoding/json"
	"time"

	"github.com/phajay/storefront/pkg/messaging"
)

// OrderCheckedOutEvent is published when a cart order completes payment.
type OrderCheckedOutEvent struct {
	OrderID     string    `json:"order_id"`
	Total       int64     `json:"total"`
	CompletedAt time.Time `json:"completed_at"`
}

func (o OrderCheckedOutEvent) Subject() string {
	return messaging.OrdersCheckedOutSubject
}

func (o OrderCheckedOutEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}

// OrderStatusChangedEvent is published on every order status transition.
type OrderStatusChangedEvent struct {
	OrderID   string    `json:"order_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

func (o OrderStatusChangedEvent) Subject() string {
	return messaging.OrdersStatusChangedSubject
}

func (o OrderStatusChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}
