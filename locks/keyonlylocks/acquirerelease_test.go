package keyonlylocks

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAllOrNothing(t *testing.T) {
	var store sync.Map
	held, ok := AcquireLocks(&store, []string{"b"})
	require.True(t, ok)

	_, ok = AcquireLocks(&store, []string{"a", "b", "c"})
	assert.False(t, ok)
	_, loaded := store.Load("a")
	assert.False(t, loaded, "partial acquisition rolled back")

	ReleaseLocks(&store, held)
	got, ok := AcquireLocks(&store, []string{"a", "b", "c"})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestDo(t *testing.T) {
	var store sync.Map
	boom := errors.New("boom")

	ok, err := Do(&store, []string{"job"}, func() error {
		inner, innerErr := Do(&store, []string{"job"}, func() error { return nil })
		assert.False(t, inner)
		assert.NoError(t, innerErr)
		return boom
	})
	assert.True(t, ok)
	assert.ErrorIs(t, err, boom)

	_, loaded := store.Load("job")
	assert.False(t, loaded, "released after an error")
}
