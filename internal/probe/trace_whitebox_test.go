package probe

// White box so we can drive the clock

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hands out one chunk per Read and moves the fake clock forward
// by 'step' before each one
type scriptedReader struct {
	chunks []string
	err    error
	clock  *fakeClock
	step   time.Duration
}

func (s *scriptedReader) Read(p []byte) (int, error) {
	if len(s.chunks) == 0 {
		return 0, s.err
	}
	s.clock.now = s.clock.now.Add(s.step)
	n := copy(p, s.chunks[0])
	s.chunks = s.chunks[1:]
	return n, nil
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

var errPipe = errors.New("pipe exploded")

func TestObserve(t *testing.T) {
	t.Run("until-eof", func(tt *testing.T) {
		clock := &fakeClock{now: time.Unix(0, 0)}
		r := &scriptedReader{chunks: []string{"testing..", ".", "done\n"}, err: io.EOF, clock: clock, step: time.Second}

		trace, err := observe(r, 0, clock.Now)
		require.NoError(tt, err)
		assert.Equal(tt, []string{"testing..", ".", "done\n"}, trace.Fragments())
		assert.Equal(tt, "testing...done\n", string(trace.Bytes()))
		assert.Equal(tt, 15, trace.Len())
		assert.Equal(tt, time.Second, trace[0].At)
		assert.Equal(tt, []time.Duration{time.Second, time.Second}, trace.Gaps())
	})

	t.Run("limit", func(tt *testing.T) {
		clock := &fakeClock{now: time.Unix(0, 0)}
		r := &scriptedReader{chunks: []string{"a", "b", "c", "d"}, err: io.EOF, clock: clock, step: time.Millisecond}

		trace, err := observe(r, 2, clock.Now)
		require.NoError(tt, err)
		assert.Equal(tt, []string{"a", "b"}, trace.Fragments())
		// The rest was left unread
		assert.Equal(tt, []string{"c", "d"}, r.chunks)
	})

	t.Run("read-error", func(tt *testing.T) {
		clock := &fakeClock{now: time.Unix(0, 0)}
		r := &scriptedReader{chunks: []string{"a"}, err: errPipe, clock: clock}

		trace, err := observe(r, 0, clock.Now)
		assert.ErrorIs(tt, err, errPipe)
		// Whatever arrived before the error is kept
		assert.Equal(tt, []string{"a"}, trace.Fragments())
	})

	t.Run("empty", func(tt *testing.T) {
		clock := &fakeClock{now: time.Unix(0, 0)}
		trace, err := observe(&scriptedReader{err: io.EOF, clock: clock}, 0, clock.Now)
		assert.NoError(tt, err)
		assert.Empty(tt, trace)
		assert.Nil(tt, trace.Gaps())
		assert.Equal(tt, 0, trace.Len())
	})
}
