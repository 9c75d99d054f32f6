package booking

import (
	"errors"
	"fmt"
)

// Finalization failure codes.
const (
	CodeValidation          = "validation"
	CodePaymentNotFound     = "paymentNotFound"
	CodePaymentNotCompleted = "paymentNotCompleted"
	CodeForbidden           = "forbidden"
	CodeInvalidPaymentType  = "invalidPaymentType"
	CodeServicesNotFound    = "servicesNotFound"
	CodeExternalService     = "externalService"
	// CodeBookingIncomplete means the payment is recorded as completed but
	// the booking could not be created; the client must never be asked to
	// pay again, and a retry of finalization repairs the state.
	CodeBookingIncomplete = "bookingIncomplete"
)

// FinalizeError is a typed finalization failure.
type FinalizeError struct {
	Code    string
	Message string
	Err     error
}

func (e *FinalizeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FinalizeError) Unwrap() error { return e.Err }

func newError(code, message string) *FinalizeError {
	return &FinalizeError{Code: code, Message: message}
}

func wrapError(code, message string, err error) *FinalizeError {
	return &FinalizeError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the finalization failure code, or empty for foreign errors.
func CodeOf(err error) string {
	var fe *FinalizeError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
