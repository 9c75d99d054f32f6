// Package pricing is the single source of truth for the booking fee
// schedule. Both payment initiation and any display surface (checkout
// summary, terms text) must go through it; the fee rule is never duplicated
// elsewhere.
package pricing

import (
	"math"

	"servana/models"
)

const (
	// FlatFeeThreshold is the service total (major units) at or above which
	// the flat booking fee applies instead of the percentage.
	FlatFeeThreshold = 100.0
	// FlatFee is the booking fee charged at or above the threshold.
	FlatFee = 10.0
	// PercentFeeRate applies below the threshold, rounded to the nearest
	// whole major unit.
	PercentFeeRate = 0.10
)

// Quote is the priced breakdown of a cart of selected service types.
// All amounts are in major currency units.
type Quote struct {
	ServiceTotal float64 `json:"serviceTotal"`
	BookingFee   float64 `json:"bookingFee"`
	TotalPayable float64 `json:"totalPayable"`
}

// BookingFeeFor computes the booking fee for a service total.
func BookingFeeFor(serviceTotal float64) float64 {
	if serviceTotal <= 0 {
		return 0
	}
	if serviceTotal >= FlatFeeThreshold {
		return FlatFee
	}
	return math.Round(serviceTotal * PercentFeeRate)
}

// ComputeBookingTotal prices a cart of selected service types. An empty cart
// (or zero total) yields a zero quote; callers must block the booking
// upstream rather than charge a fee on nothing.
func ComputeBookingTotal(items []models.ServiceType) Quote {
	var serviceTotal float64
	for _, item := range items {
		serviceTotal += item.Price
	}
	serviceTotal = round2(serviceTotal)
	if serviceTotal <= 0 {
		return Quote{}
	}

	fee := BookingFeeFor(serviceTotal)
	return Quote{
		ServiceTotal: serviceTotal,
		BookingFee:   fee,
		TotalPayable: round2(serviceTotal + fee),
	}
}

// ToMinorUnits converts a major-unit amount to minor units. Conversion
// happens only at the payment-session boundary to avoid compounding
// rounding error.
func ToMinorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}

// round2 keeps amounts at two decimal places, the maximum precision the
// currency supports.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
