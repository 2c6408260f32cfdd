package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON           = "INVALID_JSON"
	ErrCodeMissingField          = "MISSING_FIELD"
	ErrCodeInvalidParameter      = "INVALID_PARAMETER"
	ErrCodeInvalidQuantity       = "INVALID_QUANTITY"
	ErrCodeInvalidCouponCode     = "INVALID_COUPON_CODE"
	ErrCodeInvalidDeliveryFee    = "INVALID_DELIVERY_FEE"
	ErrCodeInvalidPaymentMethod  = "INVALID_PAYMENT_METHOD"
	ErrCodeEmptyCart             = "EMPTY_CART"
	ErrCodeProductNotFound       = "PRODUCT_NOT_FOUND"
	ErrCodeProductUnavailable    = "PRODUCT_UNAVAILABLE"
	ErrCodeOrderNotFound         = "ORDER_NOT_FOUND"
	ErrCodeOrderNotPayable       = "ORDER_NOT_PAYABLE"
	ErrCodeCartItemNotFound      = "CART_ITEM_NOT_FOUND"
	ErrCodeSessionRequired       = "SESSION_REQUIRED"
	ErrCodeAddressNotFound       = "ADDRESS_NOT_FOUND"
	ErrCodeInsufficientStock     = "INSUFFICIENT_STOCK"
	ErrCodeProviderNotConfigured = "PAYMENT_PROVIDER_NOT_CONFIGURED"
	ErrCodeProviderFailure       = "PAYMENT_PROVIDER_ERROR"
	ErrCodeUnsupportedProvider   = "UNSUPPORTED_PROVIDER"
	ErrCodeInvalidWebhook        = "INVALID_WEBHOOK"
	ErrCodeUnauthorised          = "UNAUTHORIZED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// ErrorKind classifies a DomainError for transport mapping.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindConfiguration
	KindExternal
	KindUnauthorised
)

// DomainError is a business error that is safe to show to the caller.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidQuantity       = NewDomainError(KindValidation, ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidCouponCode     = NewDomainError(KindValidation, ErrCodeInvalidCouponCode, "Coupon code must be 1 to 20 letters, digits, '-' or '_'")
	ErrInvalidDeliveryFee    = NewDomainError(KindValidation, ErrCodeInvalidDeliveryFee, "Delivery fee cannot be negative")
	ErrInvalidPaymentMethod  = NewDomainError(KindValidation, ErrCodeInvalidPaymentMethod, "Payment method is malformed")
	ErrEmptyCart             = NewDomainError(KindValidation, ErrCodeEmptyCart, "Cart is empty")
	ErrProductNotFound       = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrProductUnavailable    = NewDomainError(KindValidation, ErrCodeProductUnavailable, "Product is not available for purchase")
	ErrOrderNotFound         = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrOrderNotPayable       = NewDomainError(KindConflict, ErrCodeOrderNotPayable, "Order no longer accepts payment")
	ErrAddressNotFound       = NewDomainError(KindNotFound, ErrCodeAddressNotFound, "Address not found")
	ErrCartItemNotFound      = NewDomainError(KindNotFound, ErrCodeCartItemNotFound, "Product is not in the cart")
	ErrSessionRequired       = NewDomainError(KindValidation, ErrCodeSessionRequired, "A session key or bearer token is required")
	ErrInsufficientStock     = NewDomainError(KindConflict, ErrCodeInsufficientStock, "Insufficient stock")
	ErrProviderNotConfigured = NewDomainError(KindConfiguration, ErrCodeProviderNotConfigured, "Payment provider is not configured")
	ErrProviderFailure       = NewDomainError(KindExternal, ErrCodeProviderFailure, "Payment provider request failed")
	ErrUnsupportedProvider   = NewDomainError(KindValidation, ErrCodeUnsupportedProvider, "Unsupported payment provider")
	ErrInvalidWebhook        = NewDomainError(KindValidation, ErrCodeInvalidWebhook, "Invalid webhook")
	ErrUnauthorised          = NewDomainError(KindUnauthorised, ErrCodeUnauthorised, "Authentication required")
)

// NewInsufficientStockError names the product that could not be reserved.
func NewInsufficientStockError(productTitle string) *DomainError {
	return NewDomainError(KindConflict, ErrCodeInsufficientStock, productTitle+" is out of stock.")
}

// NewProviderNotConfiguredError reports missing credentials for a provider.
func NewProviderNotConfiguredError(provider Provider) *DomainError {
	return NewDomainError(KindConfiguration, ErrCodeProviderNotConfigured, provider.DisplayName()+" is not configured.")
}

// NewProviderError wraps a failed call to a payment provider. The cause is kept
// for logging but never rendered to clients.
func NewProviderError(provider Provider, err error) *DomainError {
	return &DomainError{
		Kind:    KindExternal,
		Code:    ErrCodeProviderFailure,
		Message: provider.DisplayName() + " request failed",
		Err:     err,
	}
}
