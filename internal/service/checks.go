package service

import (
	"time"

	"github.com/lalith-99/labintake/internal/models"
	"github.com/shopspring/decimal"
)

// The checks below are pure: they read their arguments and nothing else,
// and run before any unit of work opens.

// ValidateClientEligible fails with ErrClientNotAuthorized for an inactive
// client.
func ValidateClientEligible(c *models.Client) error {
	if !c.Active {
		return ErrClientNotAuthorized
	}
	return nil
}

// ValidateSampleDates checks the sampling and shipping timestamps against
// now and against each other. Shipping on the same instant as sampling is
// allowed; shipping before sampling is not.
func ValidateSampleDates(sampledAt, shippedAt, now time.Time) error {
	if sampledAt.After(now) {
		return fieldErr(ErrFutureDate, "sampled_at")
	}
	if shippedAt.After(now) {
		return fieldErr(ErrFutureDate, "shipped_at")
	}
	if shippedAt.Before(sampledAt) {
		return ErrInvalidDateOrder
	}
	return nil
}

// MaxQuantity is the largest quantity a sample column holds (10 digits, 2
// of them decimals).
var MaxQuantity = decimal.RequireFromString("99999999.99")

// ValidateQuantity checks q as it will be stored, rounded to two decimal
// places: it must be greater than zero and at most MaxQuantity.
func ValidateQuantity(q decimal.Decimal) error {
	if e := quantityError(q); e != nil {
		return e
	}
	return nil
}

func quantityError(q decimal.Decimal) *Error {
	q = q.Round(2)
	if !q.IsPositive() {
		return ErrNonPositiveQuantity
	}
	if q.GreaterThan(MaxQuantity) {
		return ErrQuantityTooLarge
	}
	return nil
}

// Sufficiency is the outcome of comparing a sample's received quantity with
// what an analysis needs.
type Sufficiency struct {
	Sufficient bool            `json:"sufficient"`
	Available  decimal.Decimal `json:"available"`
	Required   decimal.Decimal `json:"required"`
	Unit       string          `json:"unit"`
}

// CheckSufficiency compares the received quantity with required. It does not
// touch the sample.
func CheckSufficiency(s *models.Sample, required decimal.Decimal) Sufficiency {
	return Sufficiency{
		Sufficient: s.Quantity.GreaterThanOrEqual(required),
		Available:  s.Quantity,
		Required:   required,
		Unit:       s.Unit,
	}
}
