package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTL_PutGetRemove(t *testing.T) {
	c := NewTTL()

	_, ok := c.Get("sheet_A")
	require.False(t, ok)

	c.Put("sheet_A", `[["Ticket ID"]]`, time.Minute)
	v, ok := c.Get("sheet_A")
	require.True(t, ok)
	require.Equal(t, `[["Ticket ID"]]`, v)

	c.Remove("sheet_A")
	_, ok = c.Get("sheet_A")
	require.False(t, ok)
}

func TestTTL_Expires(t *testing.T) {
	c := NewTTL()
	c.Put("k", "v", 20*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestTTL_NonPositiveTTLUsesDefault(t *testing.T) {
	c := NewTTL()
	c.Put("k", "v", 0)
	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
}
