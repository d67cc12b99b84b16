package bigquery

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/execute_sql.md
var executeSQLPromptTemplate string

//go:embed prompt/tables.md
var tablesPromptTemplate string

var (
	executeSQLTmpl = template.Must(template.New("execute_sql").Parse(executeSQLPromptTemplate))
	tablesTmpl     = template.Must(template.New("tables").Parse(tablesPromptTemplate))
)

func executeSQLPrompt(scanLimit string, mode WriteMode, maxRows int64) string {
	var buf bytes.Buffer
	if err := executeSQLTmpl.Execute(&buf, map[string]any{
		"limit":    scanLimit,
		"readOnly": mode == WriteModeBlocked,
		"maxRows":  maxRows,
	}); err != nil {
		return ""
	}
	return buf.String()
}

func tablesPrompt(projectID string, tables []*TableConfig) (string, error) {
	var buf bytes.Buffer
	if err := tablesTmpl.Execute(&buf, map[string]any{
		"projectID": projectID,
		"tables":    tables,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render tables prompt")
	}
	return buf.String(), nil
}
