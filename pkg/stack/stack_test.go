package stack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushPopPeek(t *testing.T) {
	s := New[int](8)
	require.Equal(t, 0, s.Len())
	require.Equal(t, -1, s.Ptr())

	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))
	require.Equal(t, 2, s.Len())

	top, err := s.PeekTop()
	require.NoError(t, err)
	require.Equal(t, 2, top)

	back, err := s.PeekBack(1)
	require.NoError(t, err)
	require.Equal(t, 1, back)

	v, err := s.Pop()
	require.NoError(t, err)
	require.Equal(t, 2, v)
	require.Equal(t, 1, s.Len())
}

func TestOverflowIsAnError(t *testing.T) {
	s := New[int](2)
	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))
	require.Error(t, s.Push(3))
}

func TestUnderflowIsAnError(t *testing.T) {
	s := New[int](2)
	_, err := s.Pop()
	require.Error(t, err)
	_, err = s.PeekTop()
	require.Error(t, err)
}

func TestPopNReturnsPushOrder(t *testing.T) {
	s := New[int](8)
	for i := 1; i <= 4; i++ {
		require.NoError(t, s.Push(i))
	}
	out, err := s.PopN(3)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3, 4}, out)
	require.Equal(t, 1, s.Len())

	_, err = s.PopN(2)
	require.Error(t, err, "only one element remains")
}

// TestAtPtrIsStableAcrossPushes is the property the whole upvalue design
// leans on: a pointer into a live slot stays valid no matter how much is
// pushed afterwards, because the backing array never relocates.
func TestAtPtrIsStableAcrossPushes(t *testing.T) {
	s := New[int](64)
	require.NoError(t, s.Push(10))
	p := s.AtPtr(0)
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Push(i))
	}
	*p = 99
	v, err := s.At(0)
	require.NoError(t, err)
	require.Equal(t, 99, v)
}

func TestGrowReservesWithoutWriting(t *testing.T) {
	s := New[int](4)
	require.NoError(t, s.Push(7))
	require.NoError(t, s.Grow(2))
	require.Equal(t, 3, s.Len())
	require.Error(t, s.Grow(2), "capacity 4 cannot hold 5 slots")
}

func TestTruncateDiscardsAboveNewTop(t *testing.T) {
	s := New[int](8)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Push(i))
	}
	s.Truncate(1)
	require.Equal(t, 2, s.Len())
	top, err := s.PeekTop()
	require.NoError(t, err)
	require.Equal(t, 1, top)
}

func TestEqualComparesLivePrefixOnly(t *testing.T) {
	a := New[int](4)
	b := New[int](4)
	require.NoError(t, a.Push(1))
	require.NoError(t, b.Push(1))

	// Leave garbage above b's live prefix.
	require.NoError(t, b.Push(42))
	_, err := b.Pop()
	require.NoError(t, err)

	require.True(t, Equal(a, b))

	require.NoError(t, b.Push(2))
	require.False(t, Equal(a, b))
}
