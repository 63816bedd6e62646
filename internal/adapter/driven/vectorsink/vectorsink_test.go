package vectorsink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yongseopkim/workrecap/internal/domain/model"
)

func TestNullSink_NeverErrors(t *testing.T) {
	s := NewNullSink(nil)
	ctx := context.Background()

	assert.NoError(t, s.WriteActivities(ctx, "2026-04-01", []model.Activity{{Date: "2026-04-01"}}))
	assert.NoError(t, s.WriteStats(ctx, "2026-04-01", model.DailyStats{Date: "2026-04-01"}))
	assert.NoError(t, s.WriteSummary(ctx, "daily", "2026-04-01", "# summary"))
}
