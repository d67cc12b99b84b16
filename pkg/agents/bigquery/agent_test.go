package bigquery_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bqagent/pkg/agents/bigquery"
)

func TestDefinition(t *testing.T) {
	def, err := bigquery.Definition("", "", "")
	gt.NoError(t, err)
	gt.NoError(t, def.Validate())

	gt.Equal(t, def.Name, "BigQuery_Agent")
	gt.Equal(t, def.Model, "gemini-2.5-pro")
	gt.Equal(t, def.Tools, []string{"bigquery"})
	gt.S(t, def.Description).Contains("execute SQL queries from natural language")

	gt.S(t, def.Instruction).
		Contains("`gfi-455410`.raw_data.TABLE_NAME").
		Contains("COUNT(DISTINCT market.name) AS distinct_market_names_count").
		Contains("ARRAY_AGG(DISTINCT COLUMN_NAME IGNORE NULLS)").
		Contains("ORDER BY")
}

func TestDefinitionCustomPath(t *testing.T) {
	def, err := bigquery.Definition("my-project", "markets", "gemini-2.5-flash")
	gt.NoError(t, err)
	gt.Equal(t, def.Model, "gemini-2.5-flash")
	gt.S(t, def.Instruction).
		Contains("`my-project`.markets.TABLE_NAME").
		Contains("`my-project`.markets.raw_gecko_volume_profile").
		NotContains("gfi-455410")
}
