package ratelimit_test

import (
	"testing"
	"time"

	"github.com/serroba/ratelog/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input     string
		threshold int
		window    time.Duration
	}{
		{input: "10/s", threshold: 10, window: time.Second},
		{input: "3/m", threshold: 3, window: time.Minute},
		{input: "4/h", threshold: 4, window: time.Hour},
		{input: "500/d", threshold: 500, window: 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			limit, err := ratelimit.ParseLimit(tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.threshold, limit.Threshold)
			assert.Equal(t, tt.window, limit.Window())
			assert.Equal(t, tt.input, limit.String())
		})
	}
}

func TestParseLimit_Malformed(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"10",
		"10m",
		"ten/m",
		"1.5/m",
		"0/m",
		"-1/m",
		"10/w",
		"10/",
		"10/mm",
		"/m",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			_, err := ratelimit.ParseLimit(input)

			assert.ErrorIs(t, err, ratelimit.ErrMalformedLimit)
		})
	}
}

func TestParseLimits_KeepsOrder(t *testing.T) {
	limits, err := ratelimit.ParseLimits([]string{"4/h", "3/m", "1/s"})

	require.NoError(t, err)
	require.Len(t, limits, 3)
	assert.Equal(t, "4/h", limits[0].String())
	assert.Equal(t, "3/m", limits[1].String())
	assert.Equal(t, "1/s", limits[2].String())
}

func TestParseLimits_StopsAtFirstMalformed(t *testing.T) {
	_, err := ratelimit.ParseLimits([]string{"3/m", "3/x", "nope"})

	require.ErrorIs(t, err, ratelimit.ErrMalformedLimit)
	assert.Contains(t, err.Error(), `"3/x"`)
}

func TestLimit_Canonical(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"1/m", "01/m", "001/m", "+1/m"} {
		limit, err := ratelimit.ParseLimit(input)

		require.NoError(t, err)
		assert.Equal(t, "1/m", limit.Canonical(), input)
		assert.Equal(t, input, limit.String())
	}
}
