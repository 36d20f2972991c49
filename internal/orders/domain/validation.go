package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func ValidateCustomerName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}
	if len(trimmed) > 100 {
		return fmt.Errorf("%w: customer name must be at most 100 characters", ErrInvalidInput)
	}
	return nil
}

func ValidateItem(productID string, quantity int, unitPrice decimal.Decimal) error {
	if strings.TrimSpace(productID) == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if unitPrice.Sign() <= 0 {
		return fmt.Errorf("%w: unit price must be positive", ErrInvalidInput)
	}
	return nil
}
