package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/actionkeeper/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// StructuredFields are the typed columns mirrored from free-form terms. A nil field is absent.
type StructuredFields struct {
	StakePercent     *float64   `json:"stake_percent,omitempty"`
	BuyInAmountCents *int64     `json:"buy_in_amount_cents,omitempty"`
	BulletCap        *int       `json:"bullet_cap,omitempty"`
	PayoutBasis      *string    `json:"payout_basis,omitempty"`
	EventDate        *time.Time `json:"event_date,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	FundsLoggedAt    *time.Time `json:"funds_logged_at,omitempty"`
}

type termField struct {
	key   string
	apply func(dst *StructuredFields, raw interface{})
}

// field binds a terms key to a parser and a target slot. A slot that already holds an override is left alone.
func field[T any](key string, parse func(interface{}) (T, bool), slot func(*StructuredFields) **T) termField {
	return termField{
		key: key,
		apply: func(dst *StructuredFields, raw interface{}) {
			target := slot(dst)
			if *target != nil {
				return
			}
			if v, ok := parse(raw); ok {
				*target = &v
			}
		},
	}
}

var termFields = []termField{
	field("stake_pct", parseFloat, func(f *StructuredFields) **float64 { return &f.StakePercent }),
	field("buy_in_amount", dollarsToCents, func(f *StructuredFields) **int64 { return &f.BuyInAmountCents }),
	field("bullet_cap", parseInt, func(f *StructuredFields) **int { return &f.BulletCap }),
	field("payout_basis", parseString, func(f *StructuredFields) **string { return &f.PayoutBasis }),
	field("event_date", parseDate, func(f *StructuredFields) **time.Time { return &f.EventDate }),
	field("due_date", parseDate, func(f *StructuredFields) **time.Time { return &f.DueDate }),
	field("funds_received_at", parseDateTime, func(f *StructuredFields) **time.Time { return &f.FundsLoggedAt }),
}

// HydrateStructuredFields resolves every structured field: explicit override first, then the parsed terms key,
// otherwise absent. Payout basis falls back to the default. Parse failures never error.
func HydrateStructuredFields(overrides StructuredFields, terms map[string]interface{}) StructuredFields {
	out := overrides
	for _, f := range termFields {
		f.apply(&out, terms[f.key])
	}
	if out.PayoutBasis == nil {
		basis := models.DefaultPayoutBasis
		out.PayoutBasis = &basis
	}
	return out
}

// applyHashedFields copies the hashed structured columns onto the agreement, clearing absent ones.
func (f StructuredFields) applyHashedFields(agreement *models.Agreement) {
	agreement.StakePercent = f.StakePercent
	agreement.BuyInAmountCents = f.BuyInAmountCents
	agreement.BulletCap = f.BulletCap
	agreement.PayoutBasis = models.DefaultPayoutBasis
	if f.PayoutBasis != nil {
		agreement.PayoutBasis = *f.PayoutBasis
	}
	agreement.EventDate = toDate(f.EventDate)
	agreement.DueDate = toDate(f.DueDate)
}

// summary is the structured part of creation event payloads.
func (f StructuredFields) summary() map[string]interface{} {
	return map[string]interface{}{
		"stake_percent":       derefAny(f.StakePercent),
		"buy_in_amount_cents": derefAny(f.BuyInAmountCents),
		"bullet_cap":          derefAny(f.BulletCap),
		"payout_basis":        derefAny(f.PayoutBasis),
		"event_date":          formatDay(f.EventDate),
		"due_date":            formatDay(f.DueDate),
		"funds_logged_at":     formatInstant(f.FundsLoggedAt),
	}
}

func toDate(t *time.Time) *datatypes.Date {
	if t == nil {
		return nil
	}
	d := datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	return &d
}

func derefAny[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func formatDay(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func formatInstant(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func parseFloat(v interface{}) (float64, bool) {
	if isBlank(v) {
		return 0, false
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseInt truncates fractional numbers; strings must be whole numbers.
func parseInt(v interface{}) (int, bool) {
	if isBlank(v) {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), true
		}
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
		return 0, false
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// dollarsToCents converts a dollar amount to whole cents with banker's rounding.
func dollarsToCents(v interface{}) (int64, bool) {
	if isBlank(v) {
		return 0, false
	}
	var amount decimal.Decimal
	switch t := v.(type) {
	case decimal.Decimal:
		amount = t
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		amount = decimal.NewFromFloat(t)
	case int:
		amount = decimal.NewFromInt(int64(t))
	case int64:
		amount = decimal.NewFromInt(t)
	case json.Number:
		parsed, err := decimal.NewFromString(t.String())
		if err != nil {
			return 0, false
		}
		amount = parsed
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		amount = parsed
	default:
		return 0, false
	}
	return amount.Mul(decimal.NewFromInt(100)).RoundBank(0).IntPart(), true
}

func parseString(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func parseDate(v interface{}) (time.Time, bool) {
	if isBlank(v) {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	case string:
		s := strings.TrimSpace(t)
		if d, err := time.Parse("2006-01-02", s); err == nil {
			return d, true
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDateTime accepts RFC 3339 and naive ISO forms. Naive values are taken as UTC.
func parseDateTime(v interface{}) (time.Time, bool) {
	if isBlank(v) {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateTimeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
