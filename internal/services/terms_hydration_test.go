package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDollarsToCents(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected int64
		ok       bool
	}{
		{"whole dollars", 100.0, 10000, true},
		{"string amount", "12.34", 1234, true},
		{"half cent rounds to even", "12.345", 1234, true},
		{"half cent rounds up to even", "12.355", 1236, true},
		{"json number", json.Number("99.99"), 9999, true},
		{"integer", 5, 500, true},
		{"empty string", "", 0, false},
		{"nil", nil, 0, false},
		{"garbage", "ten dollars", 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := dollarsToCents(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseIntAndFloat(t *testing.T) {
	i, ok := parseInt(3.9)
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	i, ok = parseInt(" 7 ")
	assert.True(t, ok)
	assert.Equal(t, 7, i)

	_, ok = parseInt("7.5")
	assert.False(t, ok)

	f, ok := parseFloat("40")
	assert.True(t, ok)
	assert.Equal(t, 40.0, f)

	_, ok = parseFloat("NaN")
	assert.False(t, ok)

	_, ok = parseFloat(map[string]interface{}{})
	assert.False(t, ok)
}

func TestParseDates(t *testing.T) {
	d, ok := parseDate("2024-06-01")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d)

	d, ok = parseDate("2024-06-01T23:30:00-05:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d)

	_, ok = parseDate("06/01/2024")
	assert.False(t, ok)

	ts, ok := parseDateTime("2024-05-30T10:00:00+02:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 5, 30, 8, 0, 0, 0, time.UTC), ts)

	ts, ok = parseDateTime("2024-05-30 10:00:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 5, 30, 10, 0, 0, 0, time.UTC), ts)

	_, ok = parseDateTime("yesterday")
	assert.False(t, ok)
}

func TestHydrateStructuredFields(t *testing.T) {
	t.Run("overrides win over terms", func(t *testing.T) {
		bulletCap := 2
		fields := HydrateStructuredFields(StructuredFields{BulletCap: &bulletCap}, map[string]interface{}{
			"bullet_cap": 5,
			"stake_pct":  "33.5",
		})
		assert.Equal(t, 2, *fields.BulletCap)
		assert.Equal(t, 33.5, *fields.StakePercent)
	})

	t.Run("parse failures leave fields absent", func(t *testing.T) {
		fields := HydrateStructuredFields(StructuredFields{}, map[string]interface{}{
			"stake_pct":     "lots",
			"buy_in_amount": []interface{}{1},
			"event_date":    "soon",
			"payout_basis":  42,
		})
		assert.Nil(t, fields.StakePercent)
		assert.Nil(t, fields.BuyInAmountCents)
		assert.Nil(t, fields.EventDate)
		require.NotNil(t, fields.PayoutBasis)
		assert.Equal(t, "gross_payout", *fields.PayoutBasis)
	})

	t.Run("empty terms", func(t *testing.T) {
		fields := HydrateStructuredFields(StructuredFields{}, nil)
		assert.Nil(t, fields.StakePercent)
		assert.Nil(t, fields.FundsLoggedAt)
		assert.Equal(t, "gross_payout", *fields.PayoutBasis)
	})
}

func TestDiffTerms(t *testing.T) {
	diff := diffTerms(
		map[string]interface{}{"stake_pct": 50.0, "markup": 1.2, "buy_in_amount": 100, "unrelated": "x"},
		map[string]interface{}{"stake_pct": 40, "markup": 1.2, "buy_in_amount": 100.0, "unrelated": "y", "bullet_cap": 3},
	)

	assert.Equal(t, map[string]interface{}{
		"stake_pct":  map[string]interface{}{"from": 50.0, "to": 40},
		"bullet_cap": map[string]interface{}{"from": nil, "to": 3},
	}, diff)
}
