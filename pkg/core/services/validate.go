package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/worklog/pkg/core/dates"
	"github.com/jakechorley/worklog/pkg/db"
)

// ParseHours parses a decimal hours value. Empty input means 0.
// Non-numeric and negative values are validation errors.
func ParseHours(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	h, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &db.ValidationError{Field: field, Message: "hours must be a number, got " + s, Err: err}
	}
	if err := validateHours(field, h); err != nil {
		return decimal.Zero, err
	}
	return h, nil
}

func validateHours(field string, h decimal.Decimal) error {
	if h.IsNegative() {
		return db.NewValidationError(field, "hours must not be negative, got %s", h.String())
	}
	return nil
}

func validateDay(field, day string) error {
	if err := dates.ValidateDay(day); err != nil {
		return &db.ValidationError{Field: field, Message: err.Error(), Err: err}
	}
	return nil
}

func validateWindow(field string, start, end db.Optional[string]) error {
	if err := dates.ValidateWindow(start.Ptr(), end.Ptr()); err != nil {
		return &db.ValidationError{Field: field, Message: err.Error(), Err: err}
	}
	return nil
}

func validateRange(start, end string) error {
	if err := dates.ValidateRange(start, end); err != nil {
		field := "range"
		if errors.Is(err, dates.ErrInvalidDay) {
			field = "date"
		}
		return &db.ValidationError{Field: field, Message: err.Error(), Err: err}
	}
	return nil
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return db.NewValidationError(field, "is required")
	}
	return nil
}
