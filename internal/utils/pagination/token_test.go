package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeToken(t *testing.T) {
	// Test case 1: Standard date/time values
	movementDate := time.Date(2026, 3, 10, 14, 30, 45, 123456789, time.UTC)
	entryID := "0b9fbb7d-5a07-4c6e-9a2e-1f1f0cf1f6a3"

	token := EncodeToken(movementDate, entryID)
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedDate, decodedID, err := DecodeToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, movementDate, decodedDate, "Movement date should match after decode")
	assert.Equal(t, entryID, decodedID, "Entry id should match after decode")

	// Test case 2: Zero time value
	zeroToken := EncodeToken(time.Time{}, entryID)
	decodedZeroDate, decodedZeroID, err := DecodeToken(zeroToken)
	assert.NoError(t, err, "Decoding zero time should not return an error")
	assert.Equal(t, time.Time{}, decodedZeroDate, "Zero date should match after decode")
	assert.Equal(t, entryID, decodedZeroID, "Entry id should match after decode")

	// Test case 3: Current time values
	now := time.Now().UTC()
	nowToken := EncodeToken(now, entryID)
	decodedNowDate, _, err := DecodeToken(nowToken)
	assert.NoError(t, err, "Decoding current time should not return an error")

	// Due to potential nanosecond precision issues, use Equal instead of direct comparison
	assert.True(t, now.Equal(decodedNowDate), "Current date should match after decode")
}

func TestDecodeTokenError(t *testing.T) {
	// Test invalid base64
	_, _, err := DecodeToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode", "Error should mention base64 decoding")

	// Test invalid format (missing separator)
	missingSeparator := base64.StdEncoding.EncodeToString([]byte("2026-03-10T00:00:00Z"))
	_, _, err = DecodeToken(missingSeparator)
	assert.Error(t, err, "Should return an error for invalid token format")
	assert.Contains(t, err.Error(), "split", "Error should mention splitting issue")

	// Test invalid date format
	invalidDate := base64.StdEncoding.EncodeToString([]byte("notadate|entry-1"))
	_, _, err = DecodeToken(invalidDate)
	assert.Error(t, err, "Should return an error for invalid date format")
	assert.Contains(t, err.Error(), "movement date parse", "Error should mention date parsing issue")
}
