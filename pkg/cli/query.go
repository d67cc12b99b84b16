package cli

import (
	bqagent "github.com/secmon-lab/bqagent/pkg/agents/bigquery"
	searchagent "github.com/secmon-lab/bqagent/pkg/agents/search"
	bqtool "github.com/secmon-lab/bqagent/pkg/tool/bigquery"
	searchtool "github.com/secmon-lab/bqagent/pkg/tool/search"
	"github.com/urfave/cli/v3"
)

func cmdQuery() *cli.Command {
	return cmdAgent("query", "bq",
		"Convert input logic into BigQuery SQL with BigQuery_Agent and run it",
		&bqagent.Factory{}, &bqtool.Action{})
}

func cmdSearch() *cli.Command {
	return cmdAgent("search", "g",
		"Ask my_first_agent, which answers with Google Search",
		&searchagent.Factory{}, &searchtool.Action{})
}
