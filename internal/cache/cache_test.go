package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrFetch_FetchesOnceWithinTTL(t *testing.T) {
	s := New[int]()

	calls := 0
	fetch := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 5; i++ {
		v, err := s.GetOrFetch("k", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}

	assert.Equal(t, 1, calls)
}

func TestGetOrFetch_RefetchesAfterTTL(t *testing.T) {
	s := New[int]()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	calls := 0
	fetch := func() (int, error) {
		calls++
		return calls, nil
	}

	v, err := s.GetOrFetch("k", 30*time.Second, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	now = now.Add(29 * time.Second)
	v, err = s.GetOrFetch("k", 30*time.Second, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Second)
	v, err = s.GetOrFetch("k", 30*time.Second, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)
}

func TestGetOrFetch_PerCallTTL(t *testing.T) {
	s := New[string]()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	calls := 0
	fetch := func() (string, error) {
		calls++
		return "v", nil
	}

	_, err := s.GetOrFetch("k", time.Minute, fetch)
	require.NoError(t, err)

	now = now.Add(10 * time.Second)

	// Same key, tighter TTL: the 10s-old entry is already too stale.
	_, err = s.GetOrFetch("k", 5*time.Second, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetOrFetch_ErrorLeavesPriorEntry(t *testing.T) {
	s := New[int]()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	_, err := s.GetOrFetch("k", time.Second, func() (int, error) { return 7, nil })
	require.NoError(t, err)

	now = now.Add(2 * time.Second)

	_, err = s.GetOrFetch("k", time.Second, func() (int, error) {
		return 0, errors.New("provider down")
	})
	assert.Error(t, err)

	// The stale value survives for fallback readers.
	v, ok := s.Peek("k")
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestGetOrFetch_ErrorOnEmptyCache(t *testing.T) {
	s := New[int]()

	_, err := s.GetOrFetch("k", time.Second, func() (int, error) {
		return 0, errors.New("nope")
	})
	assert.Error(t, err)

	_, ok := s.Peek("k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}
