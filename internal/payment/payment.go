// Package payment builds checkout links for the external payment gateway and
// parses the parameters it sends back on redirect.
//
// The gateway is untrusted: nothing returned by it is verified beyond basic
// parsing, and the order store reconciles the result against its own state.
package payment

import (
	"fmt"
	"net/url"
	"strconv"
)

// LinkBuilder constructs gateway checkout URLs.
type LinkBuilder struct {
	baseURL string
	apiKey  string
}

func NewLinkBuilder(baseURL, apiKey string) *LinkBuilder {
	return &LinkBuilder{baseURL: baseURL, apiKey: apiKey}
}

// PayURL returns the link the shopper is redirected to for checkout.
func (b *LinkBuilder) PayURL(orderNo string, amount int64, description string) string {
	params := url.Values{}
	params.Set("orderNo", orderNo)
	params.Set("amount", strconv.FormatInt(amount, 10))
	params.Set("description", description)
	params.Set("key", b.apiKey)
	return fmt.Sprintf("%s/pay?%s", b.baseURL, params.Encode())
}

// ReturnParams are the query parameters the gateway appends when it redirects
// the shopper back after payment.
type ReturnParams struct {
	OrderNo     string
	Amount      int64
	LinkCode    string
	Description string
}

// ParseReturn extracts ReturnParams from a redirect query. OrderNo and a
// parseable amount are required; linkCode and description are passed through
// as-is.
func ParseReturn(query url.Values) (ReturnParams, error) {
	orderNo := query.Get("orderNo")
	if orderNo == "" {
		return ReturnParams{}, fmt.Errorf("missing orderNo parameter")
	}
	rawAmount := query.Get("amount")
	amount, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil {
		return ReturnParams{}, fmt.Errorf("invalid amount parameter %q: %w", rawAmount, err)
	}
	return ReturnParams{
		OrderNo:     orderNo,
		Amount:      amount,
		LinkCode:    query.Get("linkCode"),
		Description: query.Get("description"),
	}, nil
}
