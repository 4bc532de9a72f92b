package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rxtech-lab/actionkeeper/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projection = `{
  "agreement_type": "poker_staking",
  "terms_version": "v1",
  "terms": {"stake_pct": 40, "markup": 1.2, "buy_in_amount": 1500},
  "status": "draft",
  "payout_basis": "gross_payout",
  "stake_percent": 40,
  "buy_in_amount_cents": 150000,
  "bullet_cap": null,
  "event_date": "2026-03-01",
  "due_date": null
}`

func executeCommand(args ...string) (string, error) {
	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func writeProjection(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projection.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func expectedHash(t *testing.T) string {
	t.Helper()
	hash, err := utils.ComputeAgreementHash(map[string]interface{}{
		"agreement_type":      "poker_staking",
		"terms_version":       "v1",
		"terms":               map[string]interface{}{"stake_pct": 40.0, "markup": 1.2, "buy_in_amount": 1500.0},
		"status":              "draft",
		"payout_basis":        "gross_payout",
		"stake_percent":       40.0,
		"buy_in_amount_cents": int64(150000),
		"bullet_cap":          nil,
		"event_date":          "2026-03-01",
		"due_date":            nil,
	})
	require.NoError(t, err)
	return hash
}

func TestHashCommand(t *testing.T) {
	path := writeProjection(t, projection)

	out, err := executeCommand("hash", path)
	require.NoError(t, err)
	assert.Equal(t, expectedHash(t)+"\n", out)
}

func TestHashCommandCanonical(t *testing.T) {
	path := writeProjection(t, projection)

	out, err := executeCommand("hash", "--canonical", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], `{"agreement_type":"poker_staking","bullet_cap":null,`))
	assert.Contains(t, lines[0], `"terms":{"buy_in_amount":1500,"markup":1.2,"stake_pct":40}`)
	assert.Equal(t, expectedHash(t), lines[1])
}

func TestHashCommandJSON(t *testing.T) {
	path := writeProjection(t, projection)

	out, err := executeCommand("--json", "hash", path)
	require.NoError(t, err)

	var result hashResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, expectedHash(t), result.Hash)
	assert.Equal(t, utils.HashVersion, result.HashVersion)
	assert.Empty(t, result.Canonical)
}

func TestHashCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"not json", "{nope", "parse projection"},
		{"null", "null", "must be a JSON object"},
		{"array", "[1,2]", "parse projection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand("hash", writeProjection(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}

	_, err := executeCommand("hash", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read projection")

	_, err = executeCommand("hash")
	assert.Error(t, err)
}

func TestVerifyCommand(t *testing.T) {
	path := writeProjection(t, projection)
	hash := expectedHash(t)

	out, err := executeCommand("verify", path, strings.ToUpper(hash))
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)

	_, err = executeCommand("verify", path, strings.Repeat("0", 64))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash mismatch")

	out, err = executeCommand("--json", "verify", path, "deadbeef")
	require.Error(t, err)
	var result verifyResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Valid)
	assert.Equal(t, hash, result.ComputedHash)
	assert.Equal(t, "deadbeef", result.ExpectedHash)
}

func TestVerifyURLCommand(t *testing.T) {
	out, err := executeCommand("verify-url", "--id", "agreement 1", "--hash", "abc", "--base", "https://keeper.example.com/api/v1/")
	require.NoError(t, err)
	assert.Equal(t, "https://keeper.example.com/api/v1/verify?id=agreement+1&hash=abc\n", out)

	t.Setenv("VERIFY_BASE_URL", "https://verify.example.com/api/v1")
	out, err = executeCommand("--json", "verify-url", "--id", "a1", "--hash", "h1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"verification_url":"https://verify.example.com/api/v1/verify?id=a1&hash=h1"}`, out)

	_, err = executeCommand("verify-url", "--id", "a1")
	assert.Error(t, err)
}
