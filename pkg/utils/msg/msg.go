// Package msg carries a progress callback in the context so that agents can
// report tool activity to whoever is driving them (terminal, HTTP log).
package msg

import (
	"context"
	"fmt"

	"github.com/secmon-lab/bqagent/pkg/utils/logging"
)

type TraceFunc func(ctx context.Context, msg string)

type ctxTraceFuncKey struct{}

func With(ctx context.Context, fn TraceFunc) context.Context {
	return context.WithValue(ctx, ctxTraceFuncKey{}, fn)
}

// Trace sends a formatted message to the TraceFunc in ctx. Without one the
// message goes to the debug log.
func Trace(ctx context.Context, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if fn, ok := ctx.Value(ctxTraceFuncKey{}).(TraceFunc); ok && fn != nil {
		fn(ctx, msg)
		return
	}
	logging.From(ctx).Debug("trace", "message", msg)
}
