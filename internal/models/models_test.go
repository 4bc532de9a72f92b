package models

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestJSON_Value(t *testing.T) {
	tests := []struct {
		name     string
		input    JSON
		expected interface{}
	}{
		{"nil_json", nil, nil},
		{"empty_json", JSON{}, []byte("{}")},
		{"terms", JSON{"stake_pct": 50, "payout_basis": "net"}, []byte(`{"payout_basis":"net","stake_pct":50}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := tt.input.Value()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}

	_, ok := interface{}(JSON{}).(driver.Valuer)
	assert.True(t, ok, "JSON should implement driver.Valuer")
}

func TestJSON_Scan(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected JSON
		wantErr  bool
	}{
		{name: "nil_input", input: nil, expected: nil},
		{name: "empty_bytes", input: []byte{}, expected: nil},
		{name: "empty_string", input: "", expected: nil},
		{
			name:     "bytes",
			input:    []byte(`{"stake_pct":40,"markup":1.2}`),
			expected: JSON{"stake_pct": float64(40), "markup": 1.2},
		},
		{
			name:     "string_with_nested",
			input:    `{"players":["alice","bob"],"limits":{"bullets":3}}`,
			expected: JSON{"players": []interface{}{"alice", "bob"}, "limits": map[string]interface{}{"bullets": float64(3)}},
		},
		{name: "invalid_json", input: `{nope}`, wantErr: true},
		{name: "unsupported_type", input: 123, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var j JSON
			err := j.Scan(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, j)
		})
	}
}

func TestJSON_Clone(t *testing.T) {
	assert.Nil(t, JSON(nil).Clone())

	original := JSON{
		"stake_pct": 40.0,
		"players":   []interface{}{"alice", map[string]interface{}{"name": "bob"}},
		"limits":    map[string]interface{}{"bullets": 3},
		"extra":     JSON{"note": "x"},
	}
	clone := original.Clone()
	require.Equal(t, original, clone)

	clone["stake_pct"] = 45.0
	clone["limits"].(map[string]interface{})["bullets"] = 4
	clone["players"].([]interface{})[1].(map[string]interface{})["name"] = "carol"
	clone["extra"].(JSON)["note"] = "y"

	assert.Equal(t, 40.0, original["stake_pct"])
	assert.Equal(t, 3, original["limits"].(map[string]interface{})["bullets"])
	assert.Equal(t, "bob", original["players"].([]interface{})[1].(map[string]interface{})["name"])
	assert.Equal(t, "x", original["extra"].(JSON)["note"])
}

func TestNegotiationState(t *testing.T) {
	tests := []struct {
		state    NegotiationState
		status   AgreementStatus
		terminal bool
	}{
		{NegotiationStateDraft, AgreementStatusDraft, false},
		{NegotiationStateCountered, AgreementStatusDraft, false},
		{NegotiationStateAwaitingConfirmation, AgreementStatusDraft, false},
		{NegotiationStateAccepted, AgreementStatusActive, true},
		{NegotiationStateDeclined, AgreementStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.state.DerivedStatus())
			assert.Equal(t, tt.terminal, tt.state.IsTerminal())
		})
	}
}

func TestAgreement_HashableData(t *testing.T) {
	stake := 40.0
	buyIn := int64(150000)
	eventDate := datatypes.Date(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	label := "alice"
	now := time.Now()

	agreement := &Agreement{
		ID:                "a1",
		AgreementType:     DefaultAgreementType,
		TermsVersion:      "v1",
		Terms:             JSON{"stake_pct": 40.0},
		Status:            AgreementStatusDraft,
		NegotiationState:  NegotiationStateCountered,
		PendingTerms:      JSON{"stake_pct": 45.0},
		PayoutBasis:       DefaultPayoutBasis,
		StakePercent:      &stake,
		BuyInAmountCents:  &buyIn,
		EventDate:         &eventDate,
		PartyALabel:       &label,
		PartyAConfirmedAt: &now,
		CreatedAt:         now,
	}

	assert.Equal(t, map[string]interface{}{
		"agreement_type":      "poker_staking",
		"terms_version":       "v1",
		"terms":               map[string]interface{}{"stake_pct": 40.0},
		"status":              "draft",
		"payout_basis":        "gross_payout",
		"stake_percent":       40.0,
		"buy_in_amount_cents": int64(150000),
		"bullet_cap":          nil,
		"event_date":          "2026-03-01",
		"due_date":            nil,
	}, agreement.HashableData())

	// negotiation bookkeeping stays out of the projection
	before := agreement.HashableData()
	agreement.PendingTerms = JSON{"stake_pct": 50.0}
	agreement.PartyBConfirmedAt = &now
	agreement.NegotiationState = NegotiationStateAwaitingConfirmation
	assert.Equal(t, before, agreement.HashableData())
}

func TestAgreement_Helpers(t *testing.T) {
	agreement := &Agreement{}
	assert.Equal(t, "", agreement.CurrentHash())
	assert.False(t, agreement.BothConfirmed())

	hash := "abc"
	now := time.Now()
	agreement.Hash = &hash
	agreement.PartyAConfirmedAt = &now
	assert.Equal(t, "abc", agreement.CurrentHash())
	assert.False(t, agreement.BothConfirmed())

	agreement.PartyBConfirmedAt = &now
	assert.True(t, agreement.BothConfirmed())
}
