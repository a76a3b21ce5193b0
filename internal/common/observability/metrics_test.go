package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilObservabilityIsNoOp(t *testing.T) {
	var o *Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "calculate-project-scores")
		o.RecordJobDuration(ctx, time.Second, "calculate-project-scores")
		o.RecordAutoScore(ctx, "project-1", 72.5)
		spanCtx, span := o.StartJobSpan(ctx, "calculate-project-scores", 42)
		span.End()
		assert.Equal(t, ctx, spanCtx)
		o.Shutdown()
	})
}

func TestNew_RecordsJobSpans(t *testing.T) {
	o := New("observability-test")
	defer o.Shutdown()

	ctx, span := o.StartJobSpan(context.Background(), "confirm-bulk-selection", 7)
	defer span.End()

	assert.NotNil(t, ctx)
	assert.True(t, span.SpanContext().IsValid())
	o.RecordJobProcessed(ctx, "confirm-bulk-selection")
	o.RecordJobDuration(ctx, 15*time.Millisecond, "confirm-bulk-selection")
}
