package usecase_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bqagent/pkg/agents"
	"github.com/secmon-lab/bqagent/pkg/agents/search"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/domain/model/row"
	"github.com/secmon-lab/bqagent/pkg/usecase"
	"github.com/urfave/cli/v3"
)

type nopTool struct{ name string }

func (x *nopTool) Name() string                        { return x.name }
func (x *nopTool) Flags() []cli.Flag                   { return nil }
func (x *nopTool) Configure(ctx context.Context) error { return nil }
func (x *nopTool) LogValue() slog.Value                { return slog.StringValue(x.name) }

func (x *nopTool) Prompt(ctx context.Context) (string, error) {
	return "", nil
}

func (x *nopTool) Specs(ctx context.Context) ([]gollem.ToolSpec, error) {
	return nil, nil
}

func (x *nopTool) Run(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	return nil, nil
}

func textLLM(text string) gollem.LLMClient {
	return &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, opts ...gollem.SessionOption) (gollem.Session, error) {
			return &mock.SessionMock{
				GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{Texts: []string{text}}, nil
				},
				HistoryFunc: func() (*gollem.History, error) {
					return &gollem.History{}, nil
				},
				AppendHistoryFunc: func(history *gollem.History) error {
					return nil
				},
			}, nil
		},
	}
}

func newUseCases(t *testing.T) *usecase.UseCases {
	t.Helper()
	a, err := agents.New(search.Definition(""), textLLM("Bitcoin is BTC."), &nopTool{name: "google_search"})
	gt.NoError(t, err)
	registry, err := agents.NewRegistry(a)
	gt.NoError(t, err)
	return usecase.New(usecase.WithRegistry(registry))
}

func TestAskAgent(t *testing.T) {
	uc := newUseCases(t)

	resp, err := uc.AskAgent(t.Context(), "my_first_agent", "What is the ticker of bitcoin?")
	gt.NoError(t, err)
	gt.Equal(t, resp.Agent, "my_first_agent")
	gt.Equal(t, resp.Text, "Bitcoin is BTC.")
}

func TestAskAgentErrors(t *testing.T) {
	uc := newUseCases(t)

	_, err := uc.AskAgent(t.Context(), "BigQuery_Agent", "q")
	gt.True(t, goerr.HasTag(err, errs.TagNotFound))

	_, err = uc.AskAgent(t.Context(), "my_first_agent", "")
	gt.True(t, goerr.HasTag(err, errs.TagValidation))
}

func TestListAgents(t *testing.T) {
	defs := newUseCases(t).ListAgents(t.Context())
	gt.A(t, defs).Length(1)
	gt.Equal(t, defs[0].Name, "my_first_agent")

	gt.A(t, usecase.New().ListAgents(t.Context())).Length(0)
}

func TestReshapeRows(t *testing.T) {
	rows, err := row.DecodeRows([]byte(`[{"name":"x","value":5},{"coin_id":"eth","holder_count":2}]`))
	gt.NoError(t, err)

	out := usecase.New().ReshapeRows(t.Context(), rows)
	data, err := json.Marshal(out)
	gt.NoError(t, err)
	gt.Equal(t, string(data),
		`[{"name":"x","value":5},{"coin_id":"eth","detail":{"total_holder":2},"primary_source":"coingecko","source":"coingecko","source_link":"https://www.coingecko.com/en/coins/eth"}]`)
}

func TestWithReshaper(t *testing.T) {
	called := 0
	uc := usecase.New(usecase.WithReshaper(func(rows []*row.Row) []*row.Row {
		called++
		return rows
	}))
	uc.ReshapeRows(t.Context(), nil)
	gt.Equal(t, called, 1)
}
