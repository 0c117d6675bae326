// Package pricing computes rental totals. It is a pure function of the
// product/accessory mix handed to it; callers own fetching that mix.
package pricing

import (
	"math"
	"time"
)

// Line is one camera unit on an order. Daily may carry a per-unit override.
type Line struct {
	ProductID int64
	Daily     float64
	Weekly    float64
	TwoWeeks  float64
}

type AccessoryLine struct {
	AccessoryID int64
	Price       float64
	Quantity    int
}

type Quote struct {
	Total           float64 `json:"total"`
	DiscountTotal   float64 `json:"discount_total"`
	InsuranceAmount float64 `json:"insurance_amount"`
	RentalDays      int     `json:"rental_days"`
}

// secondLineDiscount is taken off every product line after the first.
const secondLineDiscount = 0.25

// insuranceRate is added on top of the discounted running total.
const insuranceRate = 0.10

// RentalDays counts calendar days, both endpoints inclusive.
func RentalDays(start, end time.Time) int {
	d := int(end.Sub(start).Hours()/24) + 1
	if d < 1 {
		d = 1
	}
	return d
}

// lineRate prices one unit for the given rental length. 7 and 14 days hit
// flat weekly/two-week rates; longer stretches are billed pro rata from the
// nearest flat tier.
func lineRate(l Line, days int) float64 {
	switch {
	case days < 7:
		return l.Daily * float64(days)
	case days == 7:
		return l.Weekly
	case days < 14:
		return l.Weekly / 7 * float64(days)
	case days == 14:
		return l.TwoWeeks
	default:
		return l.TwoWeeks / 14 * float64(days)
	}
}

func Calculate(lines []Line, accessories []AccessoryLine, insurance bool, start, end time.Time) Quote {
	days := RentalDays(start, end)

	var total, discountTotal float64
	for i, l := range lines {
		rate := lineRate(l, days)
		if i > 0 {
			discount := rate * secondLineDiscount
			discountTotal += discount
			rate -= discount
		}
		total += rate
	}

	for _, a := range accessories {
		total += a.Price * float64(a.Quantity)
	}

	var insuranceAmount float64
	if insurance {
		insuranceAmount = total * insuranceRate
		total += insuranceAmount
	}

	return Quote{
		Total:           round2(total),
		DiscountTotal:   round2(discountTotal),
		InsuranceAmount: round2(insuranceAmount),
		RentalDays:      days,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
