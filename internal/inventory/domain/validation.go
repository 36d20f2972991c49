package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const maxNameLength = 100

func ValidateProductName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if len(trimmed) > maxNameLength {
		return fmt.Errorf("%w: product name exceeds %d characters", ErrInvalidInput, maxNameLength)
	}
	return nil
}

func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return nil
}

func ValidateStockQuantity(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: stock quantity must not be negative", ErrInvalidInput)
	}
	return nil
}
