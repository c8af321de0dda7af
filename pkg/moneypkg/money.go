// Package moneypkg provides common money amount related functionality for apps.
package moneypkg

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places money amounts may carry.
const Scale = 2

// MaxIntegerDigits is the number of digits allowed before the decimal point (numeric(18,2)).
const MaxIntegerDigits = 16

// MaxAmount is the largest amount and balance the ledger stores.
var MaxAmount = decimal.RequireFromString("9999999999999999.99")

// IsValid returns true if the amount is strictly positive, carries at most Scale
// decimal places and does not exceed MaxAmount.
//
// Only the exponent and the coefficient length are inspected before any arithmetic,
// so an exponent such as 1e7000000 is rejected without being expanded.
func IsValid(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}

	if amount.Exponent() < -Scale {
		return false
	}

	if integerDigits(amount) > MaxIntegerDigits {
		return false
	}

	return !amount.GreaterThan(MaxAmount)
}

// Fits reports whether a balance can be stored: not negative and not above MaxAmount.
func Fits(balance decimal.Decimal) bool {
	if balance.IsNegative() {
		return false
	}

	if integerDigits(balance) > MaxIntegerDigits {
		return false
	}

	return !balance.GreaterThan(MaxAmount)
}

// integerDigits returns an upper bound of the digits before the decimal point.
func integerDigits(d decimal.Decimal) int64 {
	coefficient := d.Coefficient()
	digits := int64(len(coefficient.Abs(coefficient).String()))

	return digits + int64(d.Exponent())
}

// ValidAmount validates whether the string field holds a valid money amount.
var ValidAmount validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}

	return IsValid(amount)
}
