package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for the request layer.
type Kind int

const (
	// KindValidation: the caller sent something wrong. Field names it.
	KindValidation Kind = iota + 1
	// KindConflict: the request is valid but the record's current state
	// forbids it.
	KindConflict
	// KindNotFound: a referenced id does not exist. Resource and ID name it.
	KindNotFound
	// KindIntegrity: a delete was blocked because other records reference
	// the target.
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindIntegrity:
		return "integrity"
	}
	return "unknown"
}

// Error is the error every service operation returns for a request-scoped
// failure. Anything that is not an *Error is an infrastructure failure.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Field is the offending input field for validation errors.
	Field string
	// Index is the 1-based position of the offending item in a batch, or 0.
	Index int
	// Resource and ID identify the missing record for not-found errors.
	Resource string
	ID        string
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Index > 0 {
		msg = fmt.Sprintf("item %d: %s", e.Index, msg)
	}
	if e.ID != "" {
		msg = fmt.Sprintf("%s (%s %s)", msg, e.Resource, e.ID)
	}
	return msg
}

// Is matches on Code, so errors.Is(err, ErrAlreadyAccepted) holds for any
// *Error carrying that code whatever its field, index or id.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is. Operations return copies with Field, Index or ID
// filled in.
var (
	ErrClientNotAuthorized    = &Error{Kind: KindValidation, Code: "CLIENT_NOT_AUTHORIZED", Field: "client_id", Message: "client is not authorized to submit samples"}
	ErrFutureDate             = &Error{Kind: KindValidation, Code: "FUTURE_DATE", Message: "date cannot be in the future"}
	ErrInvalidDateOrder       = &Error{Kind: KindValidation, Code: "INVALID_DATE_ORDER", Field: "shipped_at", Message: "shipping date cannot be before sampling date"}
	ErrNonPositiveQuantity    = &Error{Kind: KindValidation, Code: "NON_POSITIVE_QUANTITY", Field: "quantity", Message: "quantity must be greater than zero"}
	ErrQuantityTooLarge       = &Error{Kind: KindValidation, Code: "QUANTITY_TOO_LARGE", Field: "quantity", Message: "quantity cannot exceed 99999999.99"}
	ErrMissingField           = &Error{Kind: KindValidation, Code: "MISSING_FIELD", Message: "required field is missing"}
	ErrMissingResults         = &Error{Kind: KindValidation, Code: "MISSING_RESULTS", Field: "results", Message: "results are required"}
	ErrInvalidValue           = &Error{Kind: KindValidation, Code: "INVALID_VALUE", Message: "value is not allowed"}
	ErrPastDate               = &Error{Kind: KindValidation, Code: "PAST_DATE", Message: "date cannot be in the past"}
	ErrDuplicateTaxID         = &Error{Kind: KindValidation, Code: "DUPLICATE_TAX_ID", Field: "tax_id", Message: "a client with this tax id already exists"}
	ErrAlreadyAccepted        = &Error{Kind: KindConflict, Code: "ALREADY_ACCEPTED", Message: "sample was already accepted"}
	ErrUseAcceptEndpoint      = &Error{Kind: KindConflict, Code: "USE_ACCEPT_ENDPOINT", Message: "use the accept operation to accept samples"}
	ErrInvalidAssayTransition = &Error{Kind: KindConflict, Code: "INVALID_ASSAY_TRANSITION", Message: "assay cannot move to the requested status"}
	ErrNotFound               = &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "record not found"}
	ErrAnalystNotFound        = &Error{Kind: KindNotFound, Code: "ANALYST_NOT_FOUND", Resource: "analyst", Message: "analyst not found"}
	ErrClientReferenced       = &Error{Kind: KindIntegrity, Code: "CLIENT_REFERENCED", Message: "client has samples and cannot be deleted"}
)

// with returns a copy of e so sentinels are never mutated.
func (e *Error) with(fn func(c *Error)) *Error {
	c := *e
	fn(&c)
	return &c
}

func fieldErr(base *Error, field string) *Error {
	return base.with(func(c *Error) { c.Field = field })
}

func notFound(resource string, id fmt.Stringer) *Error {
	return ErrNotFound.with(func(c *Error) {
		c.Resource = resource
		c.ID = id.String()
		c.Message = resource + " not found"
	})
}

// missingField reports the first missing field of batch item index (1-based).
func missingField(index int, field string) *Error {
	return ErrMissingField.with(func(c *Error) {
		c.Index = index
		c.Field = field
		c.Message = fmt.Sprintf("field %q is required", field)
	})
}

func invalidValue(field, value string) *Error {
	return ErrInvalidValue.with(func(c *Error) {
		c.Field = field
		c.Message = fmt.Sprintf("%q is not an allowed value for %s", value, field)
	})
}

// KindOf reports the Kind of err, or 0 when err is not a service error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
