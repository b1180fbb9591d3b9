package errorx

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIs(t *testing.T) {
	err := New(InsufficientBalance, "Insufficient balance of %s", "1.2.3")
	require.Equal(t, "Insufficient balance of 1.2.3", err.Error())
	require.True(t, Is(err, InsufficientBalance))
	require.False(t, Is(err, NotFound))

	wrapped := fmt.Errorf("step escrow: %w", err)
	require.True(t, Is(wrapped, InsufficientBalance))
	require.False(t, Is(fmt.Errorf("plain"), InsufficientBalance))
}
