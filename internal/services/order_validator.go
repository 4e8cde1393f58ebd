package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/snusnumrick/notalock-orders/internal/domain"
)

var (
	// ErrOrderValidation signals the caller provided invalid order data.
	ErrOrderValidation = errors.New("order: validation failed")
	// ErrOrderTransition indicates a status change outside the allowed transition table.
	ErrOrderTransition = errors.New("order: invalid status transition")
)

// moneyTolerance is the largest accepted divergence between the amount
// breakdown and the stated total.
var moneyTolerance = decimal.NewFromFloat(0.01)

// ValidateOrderCreate rejects create commands that violate field-level
// invariants. The first failing check determines the reported reason.
func ValidateOrderCreate(cmd CreateOrderCommand) error {
	email := strings.TrimSpace(cmd.Email)
	if email == "" {
		return fmt.Errorf("%w: customer email is required", ErrOrderValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: customer email %q is malformed", ErrOrderValidation, email)
	}
	if len(cmd.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrOrderValidation)
	}
	for i, item := range cmd.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return fmt.Errorf("%w: item %d is missing a product id", ErrOrderValidation, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrOrderValidation, i)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item %d unit price cannot be negative", ErrOrderValidation, i)
		}
	}
	if cmd.ShippingCost.IsNegative() {
		return fmt.Errorf("%w: shipping cost cannot be negative", ErrOrderValidation)
	}
	if cmd.TaxAmount.IsNegative() {
		return fmt.Errorf("%w: tax amount cannot be negative", ErrOrderValidation)
	}

	sum := cmd.SubtotalAmount.Add(cmd.ShippingCost).Add(cmd.TaxAmount)
	if sum.Sub(cmd.TotalAmount).Abs().GreaterThan(moneyTolerance) {
		return fmt.Errorf("%w: amounts do not add up: subtotal %s + shipping %s + tax %s != total %s",
			ErrOrderValidation, cmd.SubtotalAmount, cmd.ShippingCost, cmd.TaxAmount, cmd.TotalAmount)
	}
	return nil
}

// ValidateOrderUpdate rejects update commands that change both status axes at
// once or request a transition outside the allowed-next sets.
func ValidateOrderUpdate(cmd UpdateOrderCommand, currentStatus OrderStatus, currentPayment PaymentStatus) error {
	if cmd.Status != nil && cmd.PaymentStatus != nil {
		return fmt.Errorf("%w: order status and payment status cannot change in the same update", ErrOrderValidation)
	}

	if cmd.Status != nil {
		target := *cmd.Status
		if !target.Valid() {
			return fmt.Errorf("%w: unknown order status %q", ErrOrderValidation, target)
		}
		if !domain.CanTransitionOrderStatus(currentStatus, target) {
			return transitionError("order status", string(currentStatus), string(target), orderStatusNames(domain.AllowedNextOrderStatuses(currentStatus)))
		}
	}

	if cmd.PaymentStatus != nil {
		target := *cmd.PaymentStatus
		if !target.Valid() {
			return fmt.Errorf("%w: unknown payment status %q", ErrOrderValidation, target)
		}
		if !domain.CanTransitionPaymentStatus(currentPayment, target) {
			return transitionError("payment status", string(currentPayment), string(target), paymentStatusNames(domain.AllowedNextPaymentStatuses(currentPayment)))
		}
	}

	if cmd.ShippingCost != nil && cmd.ShippingCost.IsNegative() {
		return fmt.Errorf("%w: shipping cost cannot be negative", ErrOrderValidation)
	}
	if cmd.TaxAmount != nil && cmd.TaxAmount.IsNegative() {
		return fmt.Errorf("%w: tax amount cannot be negative", ErrOrderValidation)
	}
	return nil
}

func transitionError(axis, from, to string, allowed []string) error {
	return fmt.Errorf("%w: %s %s -> %s is not allowed (allowed: %s)",
		ErrOrderTransition, axis, from, to, strings.Join(allowed, ", "))
}

func orderStatusNames(statuses []domain.OrderStatus) []string {
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return names
}

func paymentStatusNames(statuses []domain.PaymentStatus) []string {
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return names
}
