package order

import "github.com/appetiteclub/pos/services/pos/internal/fault"

var (
	ErrEmptyCart           = fault.Validation("cart is empty")
	ErrMissingTable        = fault.Validation("table number is required for dine-in orders")
	ErrMissingDeliveryInfo = fault.Validation("contact info and platform are required for delivery orders")
	ErrInvalidOrderType    = fault.Validation("invalid order type")
	ErrInvalidQuantity     = fault.Validation("quantity must be a positive integer")
	ErrItemUnavailable     = fault.Validation("menu item is not available")
	ErrUnknownModifier     = fault.Validation("unknown modifier for menu item")
	ErrLineNotFound        = fault.Validation("cart line not found")
	ErrInvalidAmount       = fault.Validation("payment amount must be greater than zero")
	ErrInvalidMethod       = fault.Validation("invalid payment method")
	ErrOverpayment         = fault.Validation("only cash payments may exceed the balance")
	ErrMissingVoidNote     = fault.Validation("a note is required to void an order")

	ErrAlreadyPaid    = fault.State("order is already paid")
	ErrOrderCancelled = fault.State("order is cancelled")

	ErrOrderNotFound   = fault.NotFound("order not found")
	ErrPaymentNotFound = fault.NotFound("payment not found")
)
