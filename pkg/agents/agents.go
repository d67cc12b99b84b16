package agents

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/trace"
	"github.com/secmon-lab/bqagent/pkg/agents/bigquery"
	"github.com/secmon-lab/bqagent/pkg/agents/search"
	"github.com/secmon-lab/bqagent/pkg/domain/interfaces"
	"github.com/secmon-lab/bqagent/pkg/domain/model/agent"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/utils/logging"
	"github.com/secmon-lab/bqagent/pkg/utils/msg"
	"github.com/secmon-lab/bqagent/pkg/utils/request_id"
	"github.com/urfave/cli/v3"
)

// Factory builds an agent definition from its CLI flags.
type Factory interface {
	Flags() []cli.Flag
	Definition() (agent.Definition, error)
}

// All lists every declared agent.
var All = []Factory{
	&bigquery.Factory{},
	&search.Factory{},
}

func AllFlags() []cli.Flag {
	var flags []cli.Flag
	for _, f := range All {
		flags = append(flags, f.Flags()...)
	}
	return flags
}

// loopLimit bounds LLM round trips per run.
const loopLimit = 32

// LLMProvider returns a client for the given model name.
type LLMProvider func(ctx context.Context, model string) (gollem.LLMClient, error)

// Agent is a definition bound to an LLM client and the tools it names.
type Agent struct {
	def       agent.Definition
	llm       gollem.LLMClient
	tools     []interfaces.Tool
	traceRepo trace.Repository
}

type Option func(*Agent)

// WithTraceRepository records every run and saves it to repo.
func WithTraceRepository(repo trace.Repository) Option {
	return func(a *Agent) {
		a.traceRepo = repo
	}
}

// With applies opts to a and returns it.
func (a *Agent) With(opts ...Option) *Agent {
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// New resolves def.Tools against available by tool name. All named tools
// must be available.
func New(def agent.Definition, llm gollem.LLMClient, available ...interfaces.Tool) (*Agent, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if llm == nil {
		return nil, goerr.New("LLM client is required", goerr.V("agent", def.Name))
	}

	byName := make(map[string]interfaces.Tool, len(available))
	for _, t := range available {
		byName[t.Name()] = t
	}

	a := &Agent{def: def, llm: llm}
	for _, name := range def.Tools {
		t, ok := byName[name]
		if !ok {
			return nil, goerr.New("tool is not available",
				goerr.T(errs.TagValidation), goerr.V("agent", def.Name), goerr.V("tool", name))
		}
		a.tools = append(a.tools, t)
	}

	return a, nil
}

func (a *Agent) Definition() agent.Definition {
	return a.def
}

// SystemPrompt is the instruction followed by the prompts of the tools.
func (a *Agent) SystemPrompt(ctx context.Context) (string, error) {
	parts := []string{a.def.Instruction}
	for _, t := range a.tools {
		p, err := t.Prompt(ctx)
		if err != nil {
			return "", goerr.Wrap(err, "failed to build tool prompt", goerr.V("tool", t.Name()))
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// Run executes one query and returns the final text of the agent.
func (a *Agent) Run(ctx context.Context, query string) (*agent.Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.New("query is empty", goerr.T(errs.TagValidation), goerr.V("agent", a.def.Name))
	}

	logger := logging.From(ctx).With("agent", a.def.Name)
	ctx = logging.With(ctx, logger)

	systemPrompt, err := a.SystemPrompt(ctx)
	if err != nil {
		return nil, err
	}

	toolSets := make([]gollem.ToolSet, len(a.tools))
	for i, t := range a.tools {
		toolSets[i] = t
	}

	opts := []gollem.Option{
		gollem.WithToolSets(toolSets...),
		gollem.WithSystemPrompt(systemPrompt),
		gollem.WithLogger(logger),
		gollem.WithLoopLimit(loopLimit),
		gollem.WithToolMiddleware(traceTools),
	}
	if a.traceRepo != nil {
		traceID := request_id.FromContext(ctx)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		opts = append(opts, gollem.WithTrace(trace.New(
			trace.WithTraceID(traceID),
			trace.WithRepository(a.traceRepo),
		)))
	}

	g := gollem.New(a.llm, opts...)

	started := time.Now()
	resp, err := g.Execute(ctx, gollem.Text(query))
	if err != nil {
		return nil, goerr.Wrap(err, "agent execution failed", goerr.T(errs.TagLLMError), goerr.V("agent", a.def.Name))
	}

	out := &agent.Response{Agent: a.def.Name}
	if resp != nil && !resp.IsEmpty() {
		out.Text = resp.String()
	}

	logger.Info("agent finished",
		slog.Duration("duration", time.Since(started)),
		slog.Int("response_length", len(out.Text)),
	)
	return out, nil
}

func traceTools(next gollem.ToolHandler) gollem.ToolHandler {
	return func(ctx context.Context, req *gollem.ToolExecRequest) (*gollem.ToolExecResponse, error) {
		log := logging.From(ctx)

		if q, ok := req.Tool.Arguments["query"].(string); ok {
			msg.Trace(ctx, "🔸 %s: %s", req.Tool.Name, q)
		} else {
			msg.Trace(ctx, "🔸 %s", req.Tool.Name)
		}
		log.Debug("execute tool", "tool", req.Tool.Name, "args", req.Tool.Arguments)

		resp, err := next(ctx, req)
		if resp != nil && resp.Error != nil {
			msg.Trace(ctx, "❌ %s", resp.Error.Error())
			log.Error("tool error", "error", resp.Error, "call", req.Tool)
		}
		return resp, err
	}
}

// Registry holds runnable agents keyed by name.
type Registry struct {
	agents map[string]*Agent
}

func NewRegistry(agents ...*Agent) (*Registry, error) {
	r := &Registry{agents: make(map[string]*Agent)}
	for _, a := range agents {
		if err := r.Add(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Add(a *Agent) error {
	name := a.def.Name
	if _, ok := r.agents[name]; ok {
		return goerr.New("agent is already registered", goerr.T(errs.TagValidation), goerr.V("agent", name))
	}
	r.agents[name] = a
	return nil
}

func (r *Registry) Get(name string) (*Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// List returns definitions sorted by name.
func (r *Registry) List() []agent.Definition {
	defs := make([]agent.Definition, 0, len(r.agents))
	for _, a := range r.agents {
		defs = append(defs, a.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Build creates every agent of factories whose tools are all configured.
// Agents missing a tool are skipped with a warning.
func Build(ctx context.Context, factories []Factory, provider LLMProvider, tools []interfaces.Tool, opts ...Option) (*Registry, error) {
	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}

	available := make(map[string]bool, len(tools))
	for _, t := range tools {
		available[t.Name()] = true
	}

	for _, f := range factories {
		def, err := f.Definition()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to build agent definition")
		}

		var missing []string
		for _, name := range def.Tools {
			if !available[name] {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			logging.From(ctx).Warn("agent is disabled because tools are not configured",
				"agent", def.Name, "missing_tools", missing)
			continue
		}

		llm, err := provider(ctx, def.Model)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create LLM client", goerr.V("agent", def.Name), goerr.V("model", def.Model))
		}

		a, err := New(def, llm, tools...)
		if err != nil {
			return nil, err
		}
		if err := registry.Add(a.With(opts...)); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
