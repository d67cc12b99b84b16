// Package search provides a google_search tool backed by Gemini with
// Google Search grounding.
package search

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/bqagent/pkg/domain/interfaces"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

const funcGoogleSearch = "google_search"

const searchInstruction = "Answer the question using Google Search. Be concise and factual."

// Generator is implemented by genai.Models.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Action struct {
	projectID string
	location  string
	model     string

	generator Generator
}

var _ interfaces.Tool = &Action{}

// Source is a web page the answer was grounded on.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type Result struct {
	Answer        string
	Sources       []Source
	SearchQueries []string
}

func (x *Action) Name() string {
	return funcGoogleSearch
}

func (x *Action) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "search-project-id",
			Usage:       "GCP project ID for Vertex AI used by google_search",
			Destination: &x.projectID,
			Category:    "Search",
			Sources:     cli.EnvVars("BQAGENT_SEARCH_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "search-location",
			Usage:       "GCP location for Vertex AI used by google_search",
			Destination: &x.location,
			Category:    "Search",
			Value:       "us-central1",
			Sources:     cli.EnvVars("BQAGENT_SEARCH_LOCATION"),
		},
		&cli.StringFlag{
			Name:        "search-model",
			Usage:       "Gemini model that performs grounded search",
			Destination: &x.model,
			Category:    "Search",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("BQAGENT_SEARCH_MODEL"),
		},
	}
}

func (x *Action) Configure(ctx context.Context) error {
	if x.projectID == "" {
		return errs.ErrActionUnavailable
	}
	if x.model == "" {
		x.model = "gemini-2.5-flash"
	}
	if x.generator != nil {
		return nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  x.projectID,
		Location: x.location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create genai client",
			goerr.V("project_id", x.projectID), goerr.V("location", x.location))
	}
	x.generator = client.Models

	return nil
}

func (x *Action) Specs(ctx context.Context) ([]gollem.ToolSpec, error) {
	return []gollem.ToolSpec{
		{
			Name:        funcGoogleSearch,
			Description: "Search the web with Google and return a grounded answer with its sources.",
			Parameters: map[string]*gollem.Parameter{
				"query": {
					Type:        gollem.TypeString,
					Description: "Search query or question",
					Required:    true,
				},
			},
		},
	}, nil
}

func (x *Action) Run(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if name != funcGoogleSearch {
		return nil, goerr.New("invalid function name", goerr.T(errs.TagValidation), goerr.V("name", name))
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, goerr.New("query parameter is required", goerr.T(errs.TagValidation))
	}

	result, err := x.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	sources := make([]any, len(result.Sources))
	for i, s := range result.Sources {
		sources[i] = map[string]any{"title": s.Title, "uri": s.URI}
	}

	return map[string]any{
		"answer":         result.Answer,
		"sources":        sources,
		"search_queries": result.SearchQueries,
	}, nil
}

// Search asks the model with Google Search grounding enabled.
func (x *Action) Search(ctx context.Context, query string) (*Result, error) {
	if x.generator == nil {
		return nil, goerr.New("google_search is not configured", goerr.T(errs.TagValidation))
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(searchInstruction, genai.RoleUser),
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	resp, err := x.generator.GenerateContent(ctx, x.model, genai.Text(query), cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate grounded answer",
			goerr.T(errs.TagExternal), goerr.V("model", x.model), goerr.V("query", query))
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, goerr.New("no candidate in search response",
			goerr.T(errs.TagLLMError), goerr.V("query", query))
	}

	result := &Result{Answer: resp.Text()}
	if gm := resp.Candidates[0].GroundingMetadata; gm != nil {
		result.SearchQueries = gm.WebSearchQueries
		for _, chunk := range gm.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			result.Sources = append(result.Sources, Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
		}
	}

	logging.From(ctx).Debug("google search done",
		slog.String("query", query),
		slog.Int("sources", len(result.Sources)),
	)

	return result, nil
}

func (x *Action) Prompt(ctx context.Context) (string, error) {
	return "", nil
}

func (x *Action) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project_id", x.projectID),
		slog.String("location", x.location),
		slog.String("model", x.model),
	)
}
