package bigquery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/tool/bigquery"
	"github.com/urfave/cli/v3"
)

// configure parses args as CLI flags and configures the action with them.
func configure(t *testing.T, action *bigquery.Action, args ...string) error {
	t.Helper()
	var configErr error
	cmd := cli.Command{
		Name:  "bigquery",
		Flags: action.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			configErr = action.Configure(ctx)
			return nil
		},
	}
	gt.NoError(t, cmd.Run(t.Context(), append([]string{"bigquery"}, args...)))
	return configErr
}

func newAction(t *testing.T, client *bigquery.MockBigQueryClient, args ...string) (*bigquery.Action, *bigquery.MockBigQueryClientFactory) {
	t.Helper()
	var action bigquery.Action
	factory := &bigquery.MockBigQueryClientFactory{Client: client}
	action.SetClientFactory(factory)
	gt.NoError(t, configure(t, &action, append([]string{"--bigquery-project-id", "test-project"}, args...)...))
	return &action, factory
}

func TestConfigureUnavailable(t *testing.T) {
	t.Setenv("BQAGENT_BIGQUERY_PROJECT_ID", "")
	var action bigquery.Action
	err := configure(t, &action)
	gt.True(t, errors.Is(err, errs.ErrActionUnavailable))
}

func TestConfigureInvalid(t *testing.T) {
	testCases := map[string][]string{
		"write mode":  {"--bigquery-write-mode", "protected"},
		"scan limit":  {"--bigquery-scan-limit", "lots"},
		"max rows":    {"--bigquery-max-rows", "0"},
		"config file": {"--bigquery-config", "testdata/invalid.yml"},
		"no file":     {"--bigquery-config", "testdata/not_found.yml"},
	}

	for name, args := range testCases {
		t.Run(name, func(t *testing.T) {
			var action bigquery.Action
			err := configure(t, &action, append([]string{"--bigquery-project-id", "p"}, args...)...)
			gt.Error(t, err)
		})
	}
}

func TestSpecs(t *testing.T) {
	action, _ := newAction(t, bigquery.NewMockBigQueryClient())
	specs, err := action.Specs(t.Context())
	gt.NoError(t, err)
	gt.A(t, specs).Length(5)

	for _, spec := range specs {
		switch spec.Name {
		case "list_dataset_ids":
			gt.Map(t, spec.Parameters).HasKey("project_id")
			gt.False(t, spec.Parameters["project_id"].Required)
		case "get_dataset_info", "list_table_ids":
			gt.Map(t, spec.Parameters).HasKey("dataset_id")
			gt.True(t, spec.Parameters["dataset_id"].Required)
			gt.False(t, spec.Parameters["project_id"].Required)
		case "get_table_info":
			gt.True(t, spec.Parameters["dataset_id"].Required)
			gt.True(t, spec.Parameters["table_id"].Required)
		case "execute_sql":
			gt.Map(t, spec.Parameters).HasKey("query")
			gt.Value(t, spec.Parameters["query"].Type).Equal("string")
			gt.True(t, spec.Parameters["query"].Required)
			gt.False(t, spec.Parameters["project_id"].Required)
			gt.S(t, spec.Description).Contains("10GB")
		default:
			t.Errorf("unexpected spec: %s", spec.Name)
		}
	}
}

func TestPrompt(t *testing.T) {
	t.Run("no tables", func(t *testing.T) {
		action, _ := newAction(t, bigquery.NewMockBigQueryClient())
		prompt, err := action.Prompt(t.Context())
		gt.NoError(t, err)
		gt.Equal(t, prompt, "")
	})

	t.Run("tables from config", func(t *testing.T) {
		action, _ := newAction(t, bigquery.NewMockBigQueryClient(), "--bigquery-config", "testdata/tables.yml")
		prompt, err := action.Prompt(t.Context())
		gt.NoError(t, err)
		gt.S(t, prompt).
			Contains("`test-project.raw_data.raw_gecko_volume_profile`").
			Contains("| coin_id | STRING | CoinGecko coin identifier |").
			Contains("raw_gecko_price")
	})
}

func TestRunInvalid(t *testing.T) {
	action, _ := newAction(t, bigquery.NewMockBigQueryClient())

	_, err := action.Run(t.Context(), "drop_everything", map[string]any{})
	gt.Error(t, err)

	_, err = action.Run(t.Context(), "execute_sql", map[string]any{})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagValidation))

	_, err = action.Run(t.Context(), "get_table_info", map[string]any{"dataset_id": "d"})
	gt.Error(t, err)

	var unconfigured bigquery.Action
	_, err = unconfigured.Run(t.Context(), "list_dataset_ids", map[string]any{})
	gt.Error(t, err)
}
