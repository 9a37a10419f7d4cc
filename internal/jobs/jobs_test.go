package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloser struct {
	calls int32
	n     int
	err   error
}

func (f *fakeCloser) CloseDue(context.Context, time.Time) (int, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.n, f.err
}

func TestSweepAuctions(t *testing.T) {
	assert.Equal(t, 2, SweepAuctions(context.Background(), &fakeCloser{n: 2}, time.Now()))
	assert.Equal(t, 0, SweepAuctions(context.Background(), &fakeCloser{err: errors.New("locked")}, time.Now()))
}

func TestStartRejectsBadSpec(t *testing.T) {
	_, err := Start("every minute please", &fakeCloser{})
	assert.Error(t, err)
}

func TestStartRunsSweep(t *testing.T) {
	f := &fakeCloser{}
	s, err := Start("@every 1s", f)
	require.NoError(t, err)
	defer s.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&f.calls) > 0 }, 3*time.Second, 50*time.Millisecond)
}
