package msg_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bqagent/pkg/utils/msg"
)

func TestTrace(t *testing.T) {
	var got []string
	ctx := msg.With(context.Background(), func(ctx context.Context, m string) {
		got = append(got, m)
	})

	msg.Trace(ctx, "tool %s called", "execute_sql")
	msg.Trace(ctx, "done")
	gt.Equal(t, got, []string{"tool execute_sql called", "done"})
}

func TestTraceWithoutFunc(t *testing.T) {
	// must not panic
	msg.Trace(context.Background(), "nobody listens")
}
