package scheduler

import (
	"budget-bee-server/src/ledger"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeSweeper) SweepDueIncome(ctx context.Context, asOf time.Time) (*ledger.SweepReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, asOf)
	if f.err != nil {
		return nil, f.err
	}
	return &ledger.SweepReport{AsOf: asOf}, nil
}

func TestRunOnceUsesStartOfDay(t *testing.T) {
	f := &fakeSweeper{}
	now := time.Date(2024, 5, 17, 15, 4, 5, 0, time.UTC)

	report, err := RunOnce(context.Background(), f, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), report.AsOf)
	assert.Len(t, f.calls, 1)
}

func TestNewSweeperRejectsBadSchedule(t *testing.T) {
	_, err := NewSweeper(&fakeSweeper{}, "every tuesday", time.Minute)
	assert.Error(t, err)

	s, err := NewSweeper(&fakeSweeper{}, "@every 1h", time.Minute)
	require.NoError(t, err)
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestRunLogsFailure(t *testing.T) {
	f := &fakeSweeper{err: errors.New("db down")}
	s, err := NewSweeper(f, "@every 1h", time.Minute)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC) }

	s.run()
	require.Len(t, f.calls, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), f.calls[0])
}
