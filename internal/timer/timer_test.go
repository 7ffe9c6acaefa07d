package timer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/saferunner/saferunner/internal/errors"
)

type testPayload struct {
	Owner int64
	Note  string
}

func TestScheduleFiresOnce(t *testing.T) {
	fired := make(chan testPayload, 4)
	s := New(func(_ *Handle[testPayload], p testPayload) { fired <- p })
	defer s.Stop()

	_, err := s.Schedule(20*time.Millisecond, testPayload{Owner: 999, Note: "a"})
	require.NoError(t, err)

	select {
	case p := <-fired:
		assert.Equal(t, int64(999), p.Owner)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("callback was not fired within timeout")
	}

	// No second fire for the same handle.
	select {
	case <-fired:
		t.Fatal("callback fired twice")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, 0, s.Pending())
}

func TestCancelPreventsFire(t *testing.T) {
	var fires atomic.Int32
	s := New(func(*Handle[testPayload], testPayload) { fires.Add(1) })
	defer s.Stop()

	h, err := s.Schedule(50*time.Millisecond, testPayload{})
	require.NoError(t, err)

	assert.True(t, s.Cancel(h), "first cancel should win")
	assert.False(t, s.Cancel(h), "second cancel is a no-op")

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), fires.Load())
	assert.Equal(t, 0, s.Pending())
}

func TestCancelAfterFireIsNoop(t *testing.T) {
	fired := make(chan struct{}, 1)
	s := New(func(*Handle[testPayload], testPayload) { fired <- struct{}{} })
	defer s.Stop()

	h, err := s.Schedule(10*time.Millisecond, testPayload{})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("callback was not fired")
	}

	assert.False(t, s.Cancel(h), "cancel after fire must report lost race")
}

func TestUpdatePayloadVisibleAtFireTime(t *testing.T) {
	fired := make(chan testPayload, 1)
	s := New(func(_ *Handle[testPayload], p testPayload) { fired <- p })
	defer s.Stop()

	h, err := s.Schedule(80*time.Millisecond, testPayload{Owner: 1, Note: "stale"})
	require.NoError(t, err)

	h.Update(func(p *testPayload) { p.Note = "fresh" })

	select {
	case p := <-fired:
		assert.Equal(t, "fresh", p.Note, "fired callback must read the updated cell")
	case <-time.After(500 * time.Millisecond):
		t.Fatal("callback was not fired")
	}
}

func TestCancelRaceFiresAtMostOnce(t *testing.T) {
	var fires atomic.Int32
	var cancels atomic.Int32
	s := New(func(*Handle[testPayload], testPayload) { fires.Add(1) })
	defer s.Stop()

	// Hammer the cancel/fire race; each handle must resolve to exactly one
	// of {fired, cancelled}.
	const rounds = 50
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		h, err := s.Schedule(time.Millisecond, testPayload{})
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Cancel(h) {
				cancels.Add(1)
			}
		}()
	}
	wg.Wait()
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(rounds), fires.Load()+cancels.Load(),
		"every handle resolves exactly once")
	assert.Equal(t, 0, s.Pending())
}

func TestStopPreventsScheduling(t *testing.T) {
	s := New(func(*Handle[testPayload], testPayload) {})

	_, err := s.Schedule(time.Hour, testPayload{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Pending())

	s.Stop()
	assert.Equal(t, 0, s.Pending())

	_, err = s.Schedule(time.Millisecond, testPayload{})
	assert.ErrorIs(t, err, apperrors.ErrSchedulerUnavailable)

	// Stop is idempotent.
	s.Stop()
}

func TestNilServiceSchedule(t *testing.T) {
	var s *Service[testPayload]
	_, err := s.Schedule(time.Second, testPayload{})
	assert.ErrorIs(t, err, apperrors.ErrSchedulerUnavailable)
	assert.False(t, s.Cancel(nil))
}
