package config

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/urfave/cli/v3"
)

// Gemini configures Vertex AI clients for agents. Each agent asks for its
// own model; --gemini-model replaces the model of every agent.
type Gemini struct {
	projectID string
	location  string
	model     string

	mu      sync.Mutex
	clients map[string]gollem.LLMClient
}

func (x *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project-id",
			Usage:       "GCP Project ID for Vertex AI",
			Destination: &x.projectID,
			Category:    "Gemini",
			Sources:     cli.EnvVars("BQAGENT_GEMINI_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "GCP Location for Vertex AI",
			Value:       "us-central1",
			Destination: &x.location,
			Category:    "Gemini",
			Sources:     cli.EnvVars("BQAGENT_GEMINI_LOCATION"),
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Override the model of all agents",
			Destination: &x.model,
			Category:    "Gemini",
			Sources:     cli.EnvVars("BQAGENT_GEMINI_MODEL"),
		},
	}
}

func (x *Gemini) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project_id", x.projectID),
		slog.String("location", x.location),
		slog.String("model", x.model),
	)
}

// Model returns the model used in place of requested.
func (x *Gemini) Model(requested string) string {
	if x.model != "" {
		return x.model
	}
	return requested
}

// Provider returns an LLM client per model. Clients are shared between
// agents that use the same model.
func (x *Gemini) Provider(ctx context.Context, model string) (gollem.LLMClient, error) {
	if x.projectID == "" {
		return nil, goerr.New("--gemini-project-id is required", goerr.T(errs.TagValidation))
	}
	model = x.Model(model)

	x.mu.Lock()
	defer x.mu.Unlock()

	if client, ok := x.clients[model]; ok {
		return client, nil
	}

	client, err := gemini.New(ctx, x.projectID, x.location, gemini.WithModel(model))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create vertex ai client",
			goerr.T(errs.TagExternal), goerr.V("model", model))
	}

	if x.clients == nil {
		x.clients = make(map[string]gollem.LLMClient)
	}
	x.clients[model] = client
	return client, nil
}
