package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ecogroup/ecgsite/db/kvdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClock(c *Client) *time.Time {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return &now
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	c := New()
	now := newClock(c)

	require.NoError(t, c.Set(ctx, "cache:catalogues", "[]", time.Minute))
	v, ok, err := c.Get(ctx, "cache:catalogues")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)

	*now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "cache:catalogues")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetFields(ctx, "sess:1", map[string]string{"user": "admin"}))
	found, err := c.Expire(ctx, "sess:1", time.Second)
	require.NoError(t, err)
	assert.True(t, found)
	*now = now.Add(time.Second)
	exists, err := c.Exists(ctx, "sess:1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListRangeAndTrim(t *testing.T) {
	ctx := context.Background()
	c := New()
	for _, v := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, c.Push(ctx, "events", v))
	}
	got, err := c.Range(ctx, "events", -3, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "e"}, got)

	require.NoError(t, c.Trim(ctx, "events", -2, -1))
	n, err := c.Len(ctx, "events")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, _, err = c.Get(ctx, "events")
	assert.ErrorIs(t, err, kvdb.ErrWrongType)
}

func TestScanAll(t *testing.T) {
	ctx := context.Background()
	c := New()
	for i := 0; i < 450; i++ {
		require.NoError(t, c.Set(ctx, "ecg_wsession:"+string(rune('A'+i%26))+time.Duration(i).String(), "x", 0))
	}
	require.NoError(t, c.Set(ctx, "other", "x", 0))

	keys, err := kvdb.ScanAll(ctx, c, "ecg_wsession:*")
	require.NoError(t, err)
	assert.Len(t, keys, 450)
}
