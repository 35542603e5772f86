package order

import "errors"

var ErrOrderNotFound = errors.New("order not found")
var ErrInvalidQuantity = errors.New("quantity must be positive")
