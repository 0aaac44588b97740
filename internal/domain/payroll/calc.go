package payroll

import (
	"math"

	"github.com/shopspring/decimal"
)

// ComputePay derives gross and net from the entry amounts. Arithmetic runs on
// decimals so repeated edits never accumulate binary float noise; results are
// rounded to cents.
func ComputePay(baseSalary, allowances, deductions, tax float64) (gross, net float64) {
	grossD := decimal.NewFromFloat(baseSalary).
		Add(decimal.NewFromFloat(allowances)).
		Round(2)
	netD := grossD.
		Sub(decimal.NewFromFloat(deductions)).
		Sub(decimal.NewFromFloat(tax)).
		Round(2)
	gross, _ = grossD.Float64()
	net, _ = netD.Float64()
	return gross, net
}

// ValidAmount rejects NaN, infinities and negative values. Zero is fine.
func ValidAmount(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0) && value >= 0
}

// FormatAmount renders a money value with exactly two decimals for exports.
func FormatAmount(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2)
}
