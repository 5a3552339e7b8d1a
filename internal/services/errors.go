package services

import "net/http"

// Flow error codes surfaced to API callers.
const (
	CodeValidationError     = "validation_error"
	CodeInvalidQuantity     = "invalid_quantity"
	CodeGatewayUnavailable  = "gateway_unavailable"
	CodeSignatureMismatch   = "signature_mismatch"
	CodeTransactionNotFound = "transaction_not_found"
	CodeSMSProviderError    = "sms_provider_error"
	CodeInvalidOrExpiredOTP = "invalid_or_expired_otp"
	CodeDuplicateIdentity   = "duplicate_identity"
)

// FlowError is a structured failure of one of the business flows. Retryable
// tells the client whether repeating the same call can ever succeed.
type FlowError struct {
	Code      string
	Message   string
	Status    int
	Retryable bool
}

func (e *FlowError) Error() string {
	return e.Message
}

// ErrValidation reports malformed input.
func ErrValidation(msg string) *FlowError {
	return &FlowError{Code: CodeValidationError, Message: msg, Status: http.StatusBadRequest}
}

// ErrInvalidQuantity reports a quantity outside the sellable range.
func ErrInvalidQuantity(msg string) *FlowError {
	return &FlowError{Code: CodeInvalidQuantity, Message: msg, Status: http.StatusBadRequest}
}

// ErrGatewayUnavailable reports a failed round-trip to the payment gateway.
func ErrGatewayUnavailable(msg string) *FlowError {
	return &FlowError{Code: CodeGatewayUnavailable, Message: msg, Status: http.StatusBadGateway, Retryable: true}
}

// ErrTransactionNotFound reports a stale or unknown transaction reference.
func ErrTransactionNotFound() *FlowError {
	return &FlowError{Code: CodeTransactionNotFound, Message: "transaction not found", Status: http.StatusNotFound}
}

// ErrSMSProvider reports that the SMS provider did not accept a dispatch.
func ErrSMSProvider(msg string) *FlowError {
	return &FlowError{Code: CodeSMSProviderError, Message: msg, Status: http.StatusBadGateway, Retryable: true}
}

// ErrInvalidOrExpiredOTP reports a code that does not match, has expired, or
// has been locked out.
func ErrInvalidOrExpiredOTP() *FlowError {
	return &FlowError{Code: CodeInvalidOrExpiredOTP, Message: "invalid or expired OTP", Status: http.StatusBadRequest, Retryable: true}
}

// ErrDuplicateIdentity reports an Aadhaar number that is already registered.
func ErrDuplicateIdentity() *FlowError {
	return &FlowError{Code: CodeDuplicateIdentity, Message: "aadhaar number already registered", Status: http.StatusConflict}
}
