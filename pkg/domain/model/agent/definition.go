package agent

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
)

// Definition is the declarative configuration of an agent: which model it
// runs on, what it is told to do and which tools it may call.
type Definition struct {
	Name        string   `json:"name"`
	Model       string   `json:"model"`
	Description string   `json:"description"`
	Instruction string   `json:"instruction"`
	Tools       []string `json:"tools"`
}

func (x Definition) Validate() error {
	if x.Name == "" {
		return goerr.New("agent name is required", goerr.T(errs.TagValidation))
	}
	if x.Model == "" {
		return goerr.New("agent model is required", goerr.T(errs.TagValidation), goerr.V("agent", x.Name))
	}
	if x.Instruction == "" {
		return goerr.New("agent instruction is required", goerr.T(errs.TagValidation), goerr.V("agent", x.Name))
	}

	seen := make(map[string]struct{}, len(x.Tools))
	for _, tool := range x.Tools {
		if tool == "" {
			return goerr.New("empty tool name", goerr.T(errs.TagValidation), goerr.V("agent", x.Name))
		}
		if _, ok := seen[tool]; ok {
			return goerr.New("duplicated tool", goerr.T(errs.TagValidation),
				goerr.V("agent", x.Name), goerr.V("tool", tool))
		}
		seen[tool] = struct{}{}
	}

	return nil
}

// LogValue omits the instruction body, which is long.
func (x Definition) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", x.Name),
		slog.String("model", x.Model),
		slog.Int("instruction_len", len(x.Instruction)),
		slog.Any("tools", x.Tools),
	)
}

// Response is the final answer of one agent run.
type Response struct {
	Agent string `json:"agent"`
	Text  string `json:"text"`
}
