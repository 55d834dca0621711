// ABOUTME: Decimal rounding helpers shared by the normalizer, statistics, and analyzer.
// ABOUTME: Rounds half away from zero on the decimal representation, not the binary one.
package models

import "github.com/shopspring/decimal"

// Round rounds v to the given number of decimal places.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// RoundPtr rounds a nullable value, keeping nil as nil.
func RoundPtr(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	r := Round(*v, places)
	return &r
}
