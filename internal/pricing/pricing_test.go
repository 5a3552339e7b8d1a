package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuote(t *testing.T) {
	t.Run("price 40 x3 with 5km at 5/km", func(t *testing.T) {
		q, err := NewQuote(40, 3, 10, 5, 5)
		require.NoError(t, err)
		assert.Equal(t, 120.0, q.Subtotal)
		assert.Equal(t, 25.0, q.DeliveryFee)
		assert.Equal(t, 145.0, q.Total)
	})

	t.Run("fee rounds to nearest rupee", func(t *testing.T) {
		q, err := NewQuote(10, 1, 5, 3.3, 7)
		require.NoError(t, err)
		assert.Equal(t, 23.0, q.DeliveryFee)
		assert.Equal(t, 33.0, q.Total)
	})

	t.Run("zero distance has no fee", func(t *testing.T) {
		q, err := NewQuote(55.5, 2, 2, 0, 12)
		require.NoError(t, err)
		assert.Equal(t, 0.0, q.DeliveryFee)
		assert.Equal(t, 111.0, q.Total)
	})

	t.Run("total equals subtotal plus fee", func(t *testing.T) {
		for _, tc := range []struct {
			price    float64
			qty      int
			distance float64
			rate     float64
		}{
			{12.5, 4, 1.2, 9},
			{0, 1, 100, 3.5},
			{999.99, 7, 0.4, 0},
			{40, 3, 5, 5},
		} {
			q, err := NewQuote(tc.price, tc.qty, tc.qty, tc.distance, tc.rate)
			require.NoError(t, err)
			assert.Equal(t, q.Subtotal+q.DeliveryFee, q.Total)
			assert.Equal(t, math.Round(tc.distance*tc.rate), q.DeliveryFee)
		}
	})

	t.Run("rejects zero or negative quantity", func(t *testing.T) {
		_, err := NewQuote(40, 0, 10, 5, 5)
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = NewQuote(40, -2, 10, 5, 5)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("rejects quantity above stock", func(t *testing.T) {
		_, err := NewQuote(40, 11, 10, 5, 5)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestDistanceKm(t *testing.T) {
	t.Run("same point", func(t *testing.T) {
		assert.Equal(t, 0.0, DistanceKm(12.97, 77.59, 12.97, 77.59))
	})

	t.Run("bangalore to mysore is roughly 130km", func(t *testing.T) {
		d := DistanceKm(12.9716, 77.5946, 12.2958, 76.6394)
		assert.InDelta(t, 128, d, 10)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := DistanceKm(28.61, 77.20, 19.07, 72.87)
		b := DistanceKm(19.07, 72.87, 28.61, 77.20)
		assert.InDelta(t, a, b, 1e-9)
	})
}
