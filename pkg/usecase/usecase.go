package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bqagent/pkg/agents"
	"github.com/secmon-lab/bqagent/pkg/domain/interfaces"
	"github.com/secmon-lab/bqagent/pkg/domain/model/agent"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/domain/model/row"
	"github.com/secmon-lab/bqagent/pkg/service/reshape"
	"github.com/secmon-lab/bqagent/pkg/utils/logging"
)

type UseCases struct {
	registry *agents.Registry
	reshaper func([]*row.Row) []*row.Row
}

var _ interfaces.AgentUsecases = &UseCases{}
var _ interfaces.ReshapeUsecases = &UseCases{}

type Option func(*UseCases)

func WithRegistry(registry *agents.Registry) Option {
	return func(u *UseCases) {
		u.registry = registry
	}
}

// WithReshaper replaces reshape.Reshape.
func WithReshaper(fn func([]*row.Row) []*row.Row) Option {
	return func(u *UseCases) {
		u.reshaper = fn
	}
}

func New(opts ...Option) *UseCases {
	u := &UseCases{
		reshaper: reshape.Reshape,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.registry == nil {
		u.registry, _ = agents.NewRegistry()
	}
	return u
}

func (u *UseCases) ListAgents(ctx context.Context) []agent.Definition {
	return u.registry.List()
}

// AskAgent runs the named agent once with query.
func (u *UseCases) AskAgent(ctx context.Context, name, query string) (*agent.Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.New("query is required", goerr.T(errs.TagValidation), goerr.V("agent", name))
	}

	a, ok := u.registry.Get(name)
	if !ok {
		return nil, goerr.New("agent not found", goerr.T(errs.TagNotFound), goerr.V("agent", name))
	}

	logging.From(ctx).Info("asking agent", slog.String("agent", name), slog.Int("query_length", len(query)))

	resp, err := a.Run(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run agent", goerr.V("agent", name))
	}
	return resp, nil
}

// ReshapeRows applies the row reshaping heuristic. It never fails.
func (u *UseCases) ReshapeRows(ctx context.Context, rows []*row.Row) []*row.Row {
	out := u.reshaper(rows)
	logging.From(ctx).Debug("rows reshaped", slog.Int("rows", len(out)))
	return out
}
