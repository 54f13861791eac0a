package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakeExpirer) Expire(_ context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 1, f.err
}

func (f *fakeExpirer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestSweepUsesWindowCutoff(t *testing.T) {
	exp := &fakeExpirer{}
	w := NewDeliverySweeper(exp, zerolog.Nop())
	now := time.Date(2024, time.March, 14, 15, 30, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	w.sweep(context.Background())

	require.Len(t, exp.cutoffs, 1)
	assert.Equal(t, now.Add(-30*time.Minute), exp.cutoffs[0])
}

func TestSweepSurvivesErrors(t *testing.T) {
	exp := &fakeExpirer{err: errors.New("mongo down")}
	w := NewDeliverySweeper(exp, zerolog.Nop())

	assert.NotPanics(t, func() { w.sweep(context.Background()) })
}

func TestStartSweepsImmediatelyAndOnTick(t *testing.T) {
	exp := &fakeExpirer{}
	w := NewDeliverySweeper(exp, zerolog.Nop())
	w.tickInterval = 5 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return exp.calls() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done
}
