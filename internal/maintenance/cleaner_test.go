package maintenance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type fakeSweeper struct {
	removed int64
	err     error
	calls   int
}

func (f *fakeSweeper) CleanupExpired(context.Context) (int64, error) {
	f.calls++
	return f.removed, f.err
}

func TestCleanerRunOnce(t *testing.T) {
	sweeper := &fakeSweeper{removed: 3}
	cleaner, err := NewCleaner(sweeper, "@hourly")
	require.NoError(t, err)

	require.NoError(t, cleaner.RunOnce(context.Background()))
	require.Equal(t, 1, sweeper.calls)
}

func TestCleanerRunOnceCollectsErrors(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("db gone")}
	cleaner, err := NewCleaner(sweeper, "@hourly")
	require.NoError(t, err)

	combined := cleaner.RunOnce(context.Background())
	require.Error(t, combined)
	require.Len(t, multierr.Errors(combined), 1)
}

func TestCleanerRejectsBadSchedule(t *testing.T) {
	cleaner, err := NewCleaner(&fakeSweeper{}, "not a schedule")
	require.NoError(t, err)
	require.Error(t, cleaner.Start())
}

func TestCleanerRequiresSweeper(t *testing.T) {
	_, err := NewCleaner(nil, "@hourly")
	require.Error(t, err)
}
