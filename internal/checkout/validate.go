// Package checkout decides whether a cart may be turned into an order.
package checkout

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Skotchmaster/food_market/internal/cart"
)

var (
	ErrValidation     = errors.New("validation")
	ErrEmptyCart      = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrBelowMinimum   = fmt.Errorf("%w: subtotal below vendor minimum order", ErrValidation)
	ErrMissingPhone   = fmt.Errorf("%w: phone number is required", ErrValidation)
	ErrMissingAddress = fmt.Errorf("%w: delivery address is required", ErrValidation)
)

// VendorTerms are the vendor settings read at checkout time.
type VendorTerms struct {
	DeliveryFee int64
	MinOrder    int64
}

type Details struct {
	DeliveryAddress string
	Phone           string
	Notes           string
}

type Result struct {
	Details     Details
	Subtotal    int64
	DeliveryFee int64
	Total       int64
}

var policy = bluemonday.StrictPolicy()

// Sanitize strips markup and trims whitespace.
func Sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}

// Validate checks the cart against the vendor terms and the delivery
// details, in this order: empty cart, minimum order, phone, address.
// The returned details are sanitized.
func Validate(items []cart.Item, terms VendorTerms, d Details) (Result, error) {
	if len(items) == 0 {
		return Result{}, ErrEmptyCart
	}

	subtotal := cart.Total(items)
	if subtotal < terms.MinOrder {
		return Result{}, fmt.Errorf("%w: %d < %d", ErrBelowMinimum, subtotal, terms.MinOrder)
	}

	clean := Details{
		DeliveryAddress: Sanitize(d.DeliveryAddress),
		Phone:           Sanitize(d.Phone),
		Notes:           Sanitize(d.Notes),
	}
	if clean.Phone == "" {
		return Result{}, ErrMissingPhone
	}
	if clean.DeliveryAddress == "" {
		return Result{}, ErrMissingAddress
	}

	return Result{
		Details:     clean,
		Subtotal:    subtotal,
		DeliveryFee: terms.DeliveryFee,
		Total:       subtotal + terms.DeliveryFee,
	}, nil
}
