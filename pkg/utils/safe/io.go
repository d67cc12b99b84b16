// Package safe wraps calls whose error can only be logged.
package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/bqagent/pkg/utils/logging"
)

// Close closes c and logs a failure. A nil closer is ignored.
func Close(ctx context.Context, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", logging.ErrAttr(err))
	}
}

// Write writes data to w and logs a failure.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Warn("failed to write", logging.ErrAttr(err))
	}
}
