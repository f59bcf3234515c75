package log_test

import (
	"bytes"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/xlclean/pkg/log"
)

func TestNewRing(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		capacity int
		want     int
	}{
		"positive": {capacity: 10, want: 10},
		"zero":     {capacity: 0, want: log.DefaultRingCapacity},
		"negative": {capacity: -5, want: log.DefaultRingCapacity},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := log.NewRing(tc.capacity)
			assert.Equal(t, tc.want, r.Capacity())
			assert.Equal(t, 0, r.Size())
			assert.False(t, r.IsFull())
		})
	}
}

func TestRing_Write(t *testing.T) {
	t.Parallel()

	r := log.NewRing(3)

	n, err := r.Write([]byte("one\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = r.Write(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, r.Size())

	buf := []byte("two\n")
	_, err = r.Write(buf)
	require.NoError(t, err)

	buf[0] = 'X'

	_, err = r.Write([]byte("three\n"))
	require.NoError(t, err)
	assert.True(t, r.IsFull())

	_, err = r.Write([]byte("four\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, r.Size())
	assert.Equal(t, 1, r.Dropped())
	assert.Equal(t, [][]byte{
		[]byte("two\n"),
		[]byte("three\n"),
		[]byte("four\n"),
	}, r.Records())
}

func TestRing_WriteTo(t *testing.T) {
	t.Parallel()

	t.Run("replays and empties", func(t *testing.T) {
		t.Parallel()

		r := log.NewRing(4)
		for _, s := range []string{"a\n", "b\n"} {
			_, err := r.Write([]byte(s))
			require.NoError(t, err)
		}

		out := &bytes.Buffer{}
		n, err := r.WriteTo(out)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		assert.Equal(t, "a\nb\n", out.String())
		assert.Equal(t, 0, r.Size())

		out.Reset()
		n, err = r.WriteTo(out)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("reports dropped records", func(t *testing.T) {
		t.Parallel()

		r := log.NewRing(2)
		for i := range 5 {
			_, err := r.Write([]byte(strconv.Itoa(i) + "\n"))
			require.NoError(t, err)
		}

		out := &bytes.Buffer{}
		_, err := r.WriteTo(out)
		require.NoError(t, err)
		assert.Equal(t, "... 3 earlier log records dropped\n3\n4\n", out.String())
		assert.Equal(t, 0, r.Dropped())
	})

	t.Run("write error", func(t *testing.T) {
		t.Parallel()

		r := log.NewRing(2)
		_, err := r.Write([]byte("a\n"))
		require.NoError(t, err)

		_, err = r.WriteTo(failWriter{})
		require.Error(t, err)
		assert.ErrorIs(t, err, errWrite)
	})
}

func TestRing_Concurrent(t *testing.T) {
	t.Parallel()

	r := log.NewRing(50)

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			for range 100 {
				_, _ = r.Write([]byte("x\n"))
				_ = r.Size()
			}
		})
	}

	wg.Wait()

	assert.Equal(t, 50, r.Size())
	assert.Equal(t, 950, r.Dropped())
}

var errWrite = errors.New("write failed")

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errWrite }
