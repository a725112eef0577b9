package collision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/smartplot/errs"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	require.NotNil(t, tracker)
	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasCollision())
}

func TestTracker_Track_Success(t *testing.T) {
	tracker := NewTracker()

	collided, err := tracker.Track("scope\x00ch1", 0x1234567890abcdef)
	require.NoError(t, err)
	require.False(t, collided)

	collided, err = tracker.Track("scope\x00ch2", 0xfedcba0987654321)
	require.NoError(t, err)
	require.False(t, collided)
	require.Equal(t, 2, tracker.Count())

	owner, ok := tracker.Owner(0x1234567890abcdef)
	require.True(t, ok)
	require.Equal(t, "scope\x00ch1", owner)
}

func TestTracker_Track_EmptyName(t *testing.T) {
	tracker := NewTracker()

	_, err := tracker.Track("", 0x1234567890abcdef)

	require.ErrorIs(t, err, errs.ErrInvalidKey)
	require.Equal(t, 0, tracker.Count())
}

func TestTracker_Track_Collision(t *testing.T) {
	tracker := NewTracker()

	_, err := tracker.Track("a", 0x42)
	require.NoError(t, err)

	collided, err := tracker.Track("b", 0x42)
	require.NoError(t, err)
	require.True(t, collided)
	require.True(t, tracker.HasCollision())
	require.Equal(t, 1, tracker.Collisions())

	owner, _ := tracker.Owner(0x42)
	require.Equal(t, "a", owner)
}

func TestTracker_Track_Duplicate(t *testing.T) {
	tracker := NewTracker()

	_, err := tracker.Track("a", 0x42)
	require.NoError(t, err)

	_, err = tracker.Track("a", 0x42)
	require.ErrorIs(t, err, errs.ErrDuplicateKey)
	require.False(t, tracker.HasCollision())
	require.Equal(t, 1, tracker.Count())
}

func TestTracker_Untrack(t *testing.T) {
	t.Run("collider", func(t *testing.T) {
		tracker := NewTracker()
		_, _ = tracker.Track("a", 0x42)
		_, _ = tracker.Track("b", 0x42)

		promoted, ok := tracker.Untrack("b")
		require.False(t, ok)
		require.Empty(t, promoted)
		require.False(t, tracker.HasCollision())
		require.Equal(t, 1, tracker.Count())
	})

	t.Run("owner with collider promotes it", func(t *testing.T) {
		tracker := NewTracker()
		_, _ = tracker.Track("a", 0x42)
		_, _ = tracker.Track("b", 0x42)

		promoted, ok := tracker.Untrack("a")
		require.True(t, ok)
		require.Equal(t, "b", promoted)
		require.False(t, tracker.HasCollision())

		owner, _ := tracker.Owner(0x42)
		require.Equal(t, "b", owner)
	})

	t.Run("unknown", func(t *testing.T) {
		tracker := NewTracker()
		_, ok := tracker.Untrack("missing")
		require.False(t, ok)
	})
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker()
	_, _ = tracker.Track("a", 1)
	_, _ = tracker.Track("b", 1)

	tracker.Reset()

	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasCollision())

	_, err := tracker.Track("a", 1)
	require.NoError(t, err)
}
