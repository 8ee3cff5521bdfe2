package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebook/pkg/errors"
)

type listParams struct {
	Limit    int    `json:"limit" validate:"gte=0,lte=100"`
	Offset   int    `json:"offset" validate:"gte=0"`
	Category string `json:"category" validate:"max=50"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(listParams{Limit: 10}))

	err := ValidateStruct(listParams{Limit: 500, Offset: -1})
	require.Error(t, err)

	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	fields, ok := appErr.Details["fields"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "limit must be at most 100", fields["limit"])
	assert.Equal(t, "offset must be at least 0", fields["offset"])
}

func TestIsHTTPURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://images.example.com/shakshuka.jpg", true},
		{"http://localhost:8080/a.png", true},
		{"ftp://example.com/a.png", false},
		{"/relative/path.png", false},
		{"not a url", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHTTPURL(tt.raw))
		})
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)
	parsed, err := ParseTimestamp(FormatTimestamp(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))

	whole := FormatTimestamp(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC))
	fraction := FormatTimestamp(time.Date(2024, 5, 6, 7, 8, 9, 100, time.UTC))
	assert.Less(t, whole, fraction)

	zero, err := ParseTimestamp("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}
