package errors

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure classifications surfaced by the library.
// Callers can match on Kind without string comparisons.
type Kind string

// Caller-supplied input is missing or inconsistent (empty address, missing
// to/value, purpose/script-type mismatch).
const Validation Kind = "ValidationError"

// The external data or broadcast service rejected the request or errored.
const Provider Kind = "ProviderError"

// The provider responded, but with malformed or missing data.
const Response Kind = "ResponseError"

// The signer rejected or cannot perform the requested signature.
const Signing Kind = "SigningError"

// A swap was requested between assets the swapper cannot service.
const UnsupportedPair Kind = "UnsupportedPairError"

// Neither offline-sign-then-broadcast nor combined sign-and-broadcast is
// available for the configured signer.
const SignAndBroadcastFailed Kind = "SignAndBroadcastFailedError"

// A trade quote pipeline failed for a reason not otherwise classified.
const TradeQuoteFailed Kind = "TradeQuoteFailedError"

// An allowance lookup failed for a reason not otherwise classified.
const AllowanceFailed Kind = "AllowanceFailedError"

// Granting an allowance failed for a reason not otherwise classified.
const GrantAllowanceFailed Kind = "GrantAllowanceFailedError"

// Building a trade transaction failed for a reason not otherwise classified.
const BuildTradeFailed Kind = "BuildTradeFailedError"

// No adapter or swapper is registered for the requested chain or pair.
const Configuration Kind = "ConfigurationError"

// The account balance cannot cover the requested amount plus fees.
const InsufficientFunds Kind = "InsufficientFundsError"

// Error tags a failure with its Kind.  The cause, if any, is preserved for
// errors.Is / errors.As.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

var _ error = &Error{}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func Validationf(format string, args ...interface{}) error {
	return Errorf(Validation, format, args...)
}

func Providerf(format string, args ...interface{}) error {
	return Errorf(Provider, format, args...)
}

func Responsef(format string, args ...interface{}) error {
	return Errorf(Response, format, args...)
}

func Signingf(format string, args ...interface{}) error {
	return Errorf(Signing, format, args...)
}

// Wrap tags err with kind.  An error that already carries a recognized Kind
// passes through unchanged, so failures are classified exactly once.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}
	return &Error{
		Kind:    kind,
		Message: message,
		cause:   err,
	}
}

// KindOf reports the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}
