// Package search declares my_first_agent, a minimal assistant that answers
// with Google Search.
package search

import (
	"github.com/secmon-lab/bqagent/pkg/domain/model/agent"
	"github.com/urfave/cli/v3"
)

const (
	Name         = "my_first_agent"
	DefaultModel = "gemini-2.5-pro"
	ToolName     = "google_search"
)

type Factory struct {
	model string
}

func (x *Factory) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "agent-search-model",
			Usage:       "Model of my_first_agent",
			Destination: &x.model,
			Category:    "Agent:Search",
			Value:       DefaultModel,
			Sources:     cli.EnvVars("BQAGENT_AGENT_SEARCH_MODEL"),
		},
	}
}

func (x *Factory) Definition() (agent.Definition, error) {
	return Definition(x.model), nil
}

func Definition(model string) agent.Definition {
	if model == "" {
		model = DefaultModel
	}
	return agent.Definition{
		Name:        Name,
		Model:       model,
		Description: "An example agent that will answer user query based on Google Search",
		Instruction: "You are a helpful assistant that provides information based on the user's query.",
		Tools:       []string{ToolName},
	}
}
