// Package bigquery declares BigQuery_Agent, which turns "input logic"
// descriptions into BigQuery SQL and runs them.
package bigquery

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bqagent/pkg/domain/model/agent"
	"github.com/urfave/cli/v3"
)

const (
	Name           = "BigQuery_Agent"
	DefaultModel   = "gemini-2.5-pro"
	DefaultProject = "gfi-455410"
	DefaultDataset = "raw_data"

	// ToolName is the name of the BigQuery toolset the agent uses.
	ToolName = "bigquery"

	description = "Agent to answer questions about BigQuery data and models and execute SQL queries from natural language."
)

//go:embed prompt/instruction.md
var instructionTemplate string

var instructionTmpl = template.Must(template.New("instruction").Parse(instructionTemplate))

type Factory struct {
	projectID string
	datasetID string
	model     string
}

func (x *Factory) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "agent-bigquery-project",
			Usage:       "Project of the table path written into generated SQL",
			Destination: &x.projectID,
			Category:    "Agent:BigQuery",
			Value:       DefaultProject,
			Sources:     cli.EnvVars("BQAGENT_AGENT_BIGQUERY_PROJECT"),
		},
		&cli.StringFlag{
			Name:        "agent-bigquery-dataset",
			Usage:       "Dataset of the table path written into generated SQL",
			Destination: &x.datasetID,
			Category:    "Agent:BigQuery",
			Value:       DefaultDataset,
			Sources:     cli.EnvVars("BQAGENT_AGENT_BIGQUERY_DATASET"),
		},
		&cli.StringFlag{
			Name:        "agent-bigquery-model",
			Usage:       "Model of BigQuery_Agent",
			Destination: &x.model,
			Category:    "Agent:BigQuery",
			Value:       DefaultModel,
			Sources:     cli.EnvVars("BQAGENT_AGENT_BIGQUERY_MODEL"),
		},
	}
}

func (x *Factory) Definition() (agent.Definition, error) {
	return Definition(x.projectID, x.datasetID, x.model)
}

// Definition returns BigQuery_Agent with its instruction bound to
// projectID and datasetID. Empty arguments take the defaults.
func Definition(projectID, datasetID, model string) (agent.Definition, error) {
	if projectID == "" {
		projectID = DefaultProject
	}
	if datasetID == "" {
		datasetID = DefaultDataset
	}
	if model == "" {
		model = DefaultModel
	}

	instruction, err := Instruction(projectID, datasetID)
	if err != nil {
		return agent.Definition{}, err
	}

	return agent.Definition{
		Name:        Name,
		Model:       model,
		Description: description,
		Instruction: instruction,
		Tools:       []string{ToolName},
	}, nil
}

// Instruction renders the SQL generation rules.
func Instruction(projectID, datasetID string) (string, error) {
	var buf bytes.Buffer
	if err := instructionTmpl.Execute(&buf, map[string]string{
		"project": projectID,
		"dataset": datasetID,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render instruction",
			goerr.V("project", projectID), goerr.V("dataset", datasetID))
	}
	return buf.String(), nil
}
