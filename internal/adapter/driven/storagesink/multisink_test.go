package storagesink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

type recordingSink struct {
	activities int
	stats      int
	summaries  int
	failWith   error
}

func (s *recordingSink) WriteActivities(ctx context.Context, date string, activities []model.Activity) error {
	s.activities++
	return s.failWith
}

func (s *recordingSink) WriteStats(ctx context.Context, date string, stats model.DailyStats) error {
	s.stats++
	return s.failWith
}

func (s *recordingSink) WriteSummary(ctx context.Context, period, key, markdown string) error {
	s.summaries++
	return s.failWith
}

func TestMultiSink_FansOutToEverySink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := New(a, b)
	ctx := context.Background()

	require.NoError(t, m.WriteActivities(ctx, "2026-04-01", nil))
	require.NoError(t, m.WriteStats(ctx, "2026-04-01", model.DailyStats{}))
	require.NoError(t, m.WriteSummary(ctx, "daily", "2026-04-01", "# x"))

	assert.Equal(t, 1, a.activities)
	assert.Equal(t, 1, b.activities)
	assert.Equal(t, 1, a.stats)
	assert.Equal(t, 1, a.summaries)
}

func TestMultiSink_OneSinkFailingDoesNotStopTheOthers(t *testing.T) {
	failing := &recordingSink{failWith: errors.New("boom")}
	healthy := &recordingSink{}
	m := New(failing, healthy)

	err := m.WriteActivities(context.Background(), "2026-04-01", nil)
	assert.Error(t, err)
	assert.Equal(t, 1, failing.activities)
	assert.Equal(t, 1, healthy.activities, "healthy sink must still be attempted")
}

func TestMultiSink_DropsNilSinks(t *testing.T) {
	m := New(nil, &recordingSink{})
	assert.Len(t, m.sinks, 1)
}
