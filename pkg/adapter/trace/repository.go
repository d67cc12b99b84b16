// Package trace stores agent execution traces recorded by gollem.
package trace

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem/trace"
	"github.com/secmon-lab/bqagent/pkg/domain/interfaces"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
)

const DefaultPrefix = "traces/"

// Repository writes each trace as <prefix><trace_id>.json.
type Repository struct {
	client interfaces.StorageClient
	prefix string
}

var _ trace.Repository = &Repository{}

func New(client interfaces.StorageClient, prefix string) *Repository {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Repository{client: client, prefix: prefix}
}

// Object returns the object name of a trace.
func (r *Repository) Object(traceID string) string {
	return r.prefix + traceID + ".json"
}

func (r *Repository) Save(ctx context.Context, t *trace.Trace) error {
	if t == nil || t.TraceID == "" {
		return goerr.New("trace ID is required", goerr.T(errs.TagValidation))
	}

	object := r.Object(t.TraceID)
	w := r.client.PutObject(ctx, object)

	if err := json.NewEncoder(w).Encode(t); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to encode trace", goerr.V("object", object))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to write trace", goerr.T(errs.TagExternal), goerr.V("object", object))
	}
	return nil
}

type safeRepository struct {
	inner  trace.Repository
	logger *slog.Logger
}

var _ trace.Repository = &safeRepository{}

// NewSafe wraps repo so that a failed Save is logged and never reaches the
// agent run.
func NewSafe(repo trace.Repository, logger *slog.Logger) trace.Repository {
	return &safeRepository{inner: repo, logger: logger}
}

func (r *safeRepository) Save(ctx context.Context, t *trace.Trace) error {
	if err := r.inner.Save(ctx, t); err != nil {
		attrs := []any{"error", err}
		if t != nil {
			attrs = append(attrs, "trace_id", t.TraceID)
		}
		r.logger.WarnContext(ctx, "failed to save trace", attrs...)
	}
	return nil
}
