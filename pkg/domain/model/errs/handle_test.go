package errs_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/utils/logging"
)

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelDebug, logging.FormatJSON, false)
	ctx := logging.With(context.Background(), logger)

	err := goerr.New("query failed", goerr.V("query_id", "q-1"), goerr.T(errs.TagExternal))
	errs.Handle(ctx, err)

	gt.S(t, buf.String()).Contains("query failed")
	gt.S(t, buf.String()).Contains("q-1")
}

func TestHandleNil(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), logging.New(&buf, slog.LevelDebug, logging.FormatJSON, false))
	errs.Handle(ctx, nil)
	gt.Equal(t, buf.Len(), 0)
}
