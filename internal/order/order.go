// Package order implements the storefront order collection and cart state manager.
package order

import (
	"time"

	"github.com/phajay/storefront/internal/catalog"
)

// Status is the lifecycle state of an order. An order starts in-cart and
// leaves that status exactly once; in-cart is never re-entered.
type Status string

const (
	StatusInCart     Status = "in-cart"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusInCart, StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Line is one product entry within an order. Quantity is always positive;
// a quantity change updates the existing line in place.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Address is the shipping record attached when an order completes payment.
type Address struct {
	FullName string `json:"fullName"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

// Order is the central entity. Total is derived from Items and recomputed on
// every mutation, never set independently.
type Order struct {
	ID              string    `json:"id"`
	Items           []Line    `json:"items"`
	Total           int64     `json:"total"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	ShippingAddress *Address  `json:"shippingAddress,omitempty"`
	PaymentMethod   string    `json:"paymentMethod,omitempty"`
}

// recalcTotal recomputes Total as the sum of price*quantity over all lines.
func (o *Order) recalcTotal() {
	var total int64
	for _, line := range o.Items {
		total += line.Product.Price * int64(line.Quantity)
	}
	o.Total = total
}

// clone returns a deep copy so callers never alias the store's backing slices.
func (o *Order) clone() Order {
	out := *o
	out.Items = make([]Line, len(o.Items))
	copy(out.Items, o.Items)
	if o.ShippingAddress != nil {
		addr := *o.ShippingAddress
		out.ShippingAddress = &addr
	}
	return out
}

// PaymentMethodLink is the payment method recorded for link-based checkouts.
const PaymentMethodLink = "Payment Link"

// placeholderShippingAddress is the fixed record attached on payment return.
// The gateway does not report a real shipping address.
func placeholderShippingAddress() *Address {
	return &Address{
		FullName: "Customer",
		Street:   "Payment completed via payment link",
		City:     "Online",
		State:    "Digital",
		ZipCode:  "00000",
		Country:  "Laos",
		Phone:    "-",
	}
}
