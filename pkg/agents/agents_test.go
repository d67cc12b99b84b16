package agents_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gollem/trace"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bqagent/pkg/agents"
	bqagent "github.com/secmon-lab/bqagent/pkg/agents/bigquery"
	"github.com/secmon-lab/bqagent/pkg/agents/search"
	"github.com/secmon-lab/bqagent/pkg/domain/interfaces"
	"github.com/secmon-lab/bqagent/pkg/domain/model/agent"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/utils/msg"
	"github.com/secmon-lab/bqagent/pkg/utils/request_id"
	"github.com/secmon-lab/bqagent/pkg/utils/test"
	"github.com/urfave/cli/v3"
)

type fakeTool struct {
	name   string
	prompt string
	calls  []map[string]any
}

var _ interfaces.Tool = (*fakeTool)(nil)

func (x *fakeTool) Name() string                        { return x.name }
func (x *fakeTool) Flags() []cli.Flag                   { return nil }
func (x *fakeTool) Configure(ctx context.Context) error { return nil }
func (x *fakeTool) LogValue() slog.Value                { return slog.StringValue(x.name) }
func (x *fakeTool) Prompt(ctx context.Context) (string, error) {
	return x.prompt, nil
}

func (x *fakeTool) Specs(ctx context.Context) ([]gollem.ToolSpec, error) {
	return []gollem.ToolSpec{
		{
			Name:        "execute_sql",
			Description: "run sql",
			Parameters: map[string]*gollem.Parameter{
				"query": {Type: gollem.TypeString, Description: "sql", Required: true},
			},
		},
	}, nil
}

func (x *fakeTool) Run(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	x.calls = append(x.calls, args)
	return map[string]any{"rows_json": `[{"coin_id":"bitcoin"}]`}, nil
}

// newLLM returns a client whose session calls execute_sql once and then
// answers with text.
func newLLM(answer string) *mock.LLMClientMock {
	return &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, opts ...gollem.SessionOption) (gollem.Session, error) {
			calls := 0
			return &mock.SessionMock{
				GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					calls++
					if calls == 1 {
						return &gollem.Response{
							FunctionCalls: []*gollem.FunctionCall{
								{
									ID:        "call-1",
									Name:      "execute_sql",
									Arguments: map[string]any{"query": "SELECT 1"},
								},
							},
						}, nil
					}
					return &gollem.Response{Texts: []string{answer}}, nil
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

func testDefinition() agent.Definition {
	return agent.Definition{
		Name:        "test_agent",
		Model:       "gemini-2.5-pro",
		Instruction: "You write SQL.",
		Tools:       []string{"bigquery"},
	}
}

func TestAgentRun(t *testing.T) {
	tool := &fakeTool{name: "bigquery", prompt: "## tables"}
	llm := newLLM("SELECT coin_id FROM t")
	a, err := agents.New(testDefinition(), llm, tool)
	gt.NoError(t, err)

	var traces []string
	ctx := msg.With(t.Context(), func(ctx context.Context, m string) {
		traces = append(traces, m)
	})

	resp, err := a.Run(ctx, "count distinct market.name group by coin_id")
	gt.NoError(t, err)
	gt.Equal(t, resp.Agent, "test_agent")
	gt.Equal(t, resp.Text, "SELECT coin_id FROM t")

	gt.A(t, tool.calls).Length(1)
	gt.Equal(t, tool.calls[0]["query"], any("SELECT 1"))
	gt.A(t, traces).Length(1)
	gt.S(t, traces[0]).Contains("execute_sql")

	gt.A(t, llm.NewSessionCalls()).Longer(0)

	prompt, err := a.SystemPrompt(t.Context())
	gt.NoError(t, err)
	gt.Equal(t, prompt, "You write SQL.\n\n## tables")
}

func TestAgentRunEmptyQuery(t *testing.T) {
	a, err := agents.New(testDefinition(), newLLM("x"), &fakeTool{name: "bigquery"})
	gt.NoError(t, err)

	_, err = a.Run(t.Context(), "  ")
	gt.True(t, goerr.HasTag(err, errs.TagValidation))
}

func TestNewAgent(t *testing.T) {
	t.Run("missing tool", func(t *testing.T) {
		_, err := agents.New(testDefinition(), newLLM("x"), &fakeTool{name: "google_search"})
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
	})

	t.Run("invalid definition", func(t *testing.T) {
		def := testDefinition()
		def.Instruction = ""
		_, err := agents.New(def, newLLM("x"), &fakeTool{name: "bigquery"})
		gt.Error(t, err)
	})

	t.Run("no llm", func(t *testing.T) {
		_, err := agents.New(testDefinition(), nil, &fakeTool{name: "bigquery"})
		gt.Error(t, err)
	})
}

func TestRegistry(t *testing.T) {
	llm := newLLM("x")
	a1, err := agents.New(testDefinition(), llm, &fakeTool{name: "bigquery"})
	gt.NoError(t, err)
	a2, err := agents.New(search.Definition(""), llm, &fakeTool{name: "google_search"})
	gt.NoError(t, err)

	registry, err := agents.NewRegistry(a1, a2)
	gt.NoError(t, err)

	got, ok := registry.Get("my_first_agent")
	gt.True(t, ok)
	gt.Equal(t, got.Definition().Name, "my_first_agent")

	_, ok = registry.Get("unknown")
	gt.False(t, ok)

	defs := registry.List()
	gt.A(t, defs).Length(2)
	gt.Equal(t, defs[0].Name, "my_first_agent")
	gt.Equal(t, defs[1].Name, "test_agent")

	gt.Error(t, registry.Add(a1))
}

func TestBuild(t *testing.T) {
	var models []string
	provider := func(ctx context.Context, model string) (gollem.LLMClient, error) {
		models = append(models, model)
		return newLLM("x"), nil
	}

	factories := []agents.Factory{&bqagent.Factory{}, &search.Factory{}}

	t.Run("only agents with tools", func(t *testing.T) {
		models = nil
		registry, err := agents.Build(t.Context(), factories, provider, []interfaces.Tool{
			&fakeTool{name: "google_search"},
		})
		gt.NoError(t, err)

		defs := registry.List()
		gt.A(t, defs).Length(1)
		gt.Equal(t, defs[0].Name, search.Name)
		gt.Equal(t, models, []string{"gemini-2.5-pro"})
	})

	t.Run("all agents", func(t *testing.T) {
		registry, err := agents.Build(t.Context(), factories, provider, []interfaces.Tool{
			&fakeTool{name: "google_search"},
			&fakeTool{name: "bigquery"},
		})
		gt.NoError(t, err)
		gt.A(t, registry.List()).Length(2)

		_, ok := registry.Get(bqagent.Name)
		gt.True(t, ok)
	})
}

type traceRecorder struct {
	saved []*trace.Trace
}

func (x *traceRecorder) Save(ctx context.Context, t *trace.Trace) error {
	x.saved = append(x.saved, t)
	return nil
}

func TestAgentRunWithTrace(t *testing.T) {
	repo := &traceRecorder{}
	a, err := agents.New(testDefinition(), newLLM("done"), &fakeTool{name: "bigquery"})
	gt.NoError(t, err)
	a = a.With(agents.WithTraceRepository(repo))

	ctx := request_id.With(t.Context(), "req-trace")
	resp, err := a.Run(ctx, "count coins")
	gt.NoError(t, err)
	gt.Equal(t, resp.Text, "done")

	for _, saved := range repo.saved {
		gt.Equal(t, saved.TraceID, "req-trace")
	}
}

func TestBigQueryAgentWithGemini(t *testing.T) {
	llm := test.NewGeminiClient(t)

	def, err := bqagent.Definition("", "", "")
	gt.NoError(t, err)
	tool := &fakeTool{name: bqagent.ToolName}
	a, err := agents.New(def, llm, tool)
	gt.NoError(t, err)

	resp, err := a.Run(t.Context(), "coin_id group; count distinct market.name as market_count; ORDER BY market_count")
	gt.NoError(t, err)
	gt.S(t, resp.Text).Contains("market_count")
}
