package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeExpirer struct {
	cutoff time.Time
	n      int64
	err    error
}

func (f *fakeExpirer) ExpireStale(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.n, f.err
}

func TestPaymentSweeper_Sweep(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	f := &fakeExpirer{n: 3}
	s := NewPaymentSweeper(f, 30*time.Minute)
	s.now = func() time.Time { return now }

	assert.Equal(t, int64(3), s.Sweep(context.Background()))
	assert.Equal(t, now.Add(-30*time.Minute), f.cutoff)

	f.err = errors.New("db down")
	assert.Equal(t, int64(0), s.Sweep(context.Background()))
}

func TestPaymentSweeper_StartRejectsBadSchedule(t *testing.T) {
	s := NewPaymentSweeper(&fakeExpirer{}, time.Minute)
	assert.Error(t, s.Start("not a schedule"))

	s = NewPaymentSweeper(&fakeExpirer{}, time.Minute)
	assert.NoError(t, s.Start("@every 1h"))
	s.Stop()
}
