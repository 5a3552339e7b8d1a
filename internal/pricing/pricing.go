// Package pricing computes order totals and delivery fees. Everything here is
// pure so displayed line items always match what gets charged.
package pricing

import (
	"errors"
	"math"
)

// ErrInvalidQuantity is returned for a quantity that is not positive or
// exceeds the available stock.
var ErrInvalidQuantity = errors.New("invalid quantity")

// Quote is the priced breakdown of one cart line.
type Quote struct {
	Subtotal    float64
	DeliveryFee float64
	Total       float64
}

// NewQuote prices one product line. The delivery fee rounds to the nearest
// whole rupee before summation so the displayed fee and displayed total never
// disagree by a floating residue.
func NewQuote(unitPrice float64, quantity, stock int, distanceKm, ratePerKm float64) (Quote, error) {
	if quantity <= 0 || quantity > stock {
		return Quote{}, ErrInvalidQuantity
	}

	fee := math.Round(distanceKm * ratePerKm)
	subtotal := unitPrice * float64(quantity)

	return Quote{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal + fee,
	}, nil
}

const earthRadiusKm = 6371.0

// DistanceKm returns the haversine great-circle distance between two
// coordinates in kilometers.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
