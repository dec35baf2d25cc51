// Package mathutil provides common mathematical utility functions for won
// amounts.
package mathutil

import (
	"github.com/iwvelando/installment-adjust/pkg/constants"
	"github.com/shopspring/decimal"
)

var (
	percent     = decimal.NewFromInt(constants.PercentageMultiplier)
	daysPerYear = decimal.NewFromInt(constants.DaysPerYear)
)

// Truncate drops the fractional part of d toward zero and returns whole won.
func Truncate(d decimal.Decimal) int64 {
	return d.Truncate(0).IntPart()
}

// DailyInterest returns principal × days × annualRate/100/365 without rounding.
func DailyInterest(principal int64, days int, annualRate float64) decimal.Decimal {
	return decimal.NewFromInt(principal).
		Mul(decimal.NewFromInt(int64(days))).
		Mul(decimal.NewFromFloat(annualRate)).
		Div(percent).
		Div(daysPerYear)
}

// ApplyRatio returns the whole-won share of total for the given fraction.
func ApplyRatio(total int64, ratio float64) int64 {
	return Truncate(decimal.NewFromInt(total).Mul(decimal.NewFromFloat(ratio)))
}

// Min returns the minimum of two int64 values
func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two int64 values
func Max(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Abs returns the absolute value of an int64
func Abs(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}
