package interfaces

import (
	"context"

	"github.com/secmon-lab/bqagent/pkg/domain/model/agent"
	"github.com/secmon-lab/bqagent/pkg/domain/model/row"
)

type AgentUsecases interface {
	ListAgents(ctx context.Context) []agent.Definition
	AskAgent(ctx context.Context, name, query string) (*agent.Response, error)
}

type ReshapeUsecases interface {
	ReshapeRows(ctx context.Context, rows []*row.Row) []*row.Row
}
