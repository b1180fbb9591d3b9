package numberutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "10", want: "10"},
		{in: "3.335", want: "3.34"},
		{in: "3.334", want: "3.33"},
		{in: "0.005", want: "0.01"},
		{in: "0.0049", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundCents(decimal.RequireFromString(tt.in))
			require.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestPercent(t *testing.T) {
	got := Percent(decimal.NewFromInt(20), decimal.NewFromInt(50))
	require.True(t, got.Equal(decimal.NewFromInt(10)))

	got = Percent(decimal.NewFromInt(10), decimal.RequireFromString("33.33"))
	require.True(t, got.Equal(decimal.RequireFromString("3.333")))

	require.False(t, IsPositive(decimal.Zero))
	require.True(t, IsPositive(decimal.RequireFromString("0.01")))
}
