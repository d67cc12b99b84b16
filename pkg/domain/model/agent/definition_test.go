package agent_test

import (
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bqagent/pkg/domain/model/agent"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
)

func TestDefinitionValidate(t *testing.T) {
	valid := agent.Definition{
		Name:        "BigQuery_Agent",
		Model:       "gemini-2.5-pro",
		Instruction: "write SQL",
		Tools:       []string{"bigquery"},
	}

	testCases := map[string]struct {
		mutate  func(d *agent.Definition)
		wantErr bool
	}{
		"valid":            {mutate: func(d *agent.Definition) {}},
		"no tools":         {mutate: func(d *agent.Definition) { d.Tools = nil }},
		"missing name":     {mutate: func(d *agent.Definition) { d.Name = "" }, wantErr: true},
		"missing model":    {mutate: func(d *agent.Definition) { d.Model = "" }, wantErr: true},
		"missing prompt":   {mutate: func(d *agent.Definition) { d.Instruction = "" }, wantErr: true},
		"empty tool":       {mutate: func(d *agent.Definition) { d.Tools = []string{""} }, wantErr: true},
		"duplicated tools": {mutate: func(d *agent.Definition) { d.Tools = []string{"a", "a"} }, wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			def := valid
			def.Tools = append([]string(nil), valid.Tools...)
			tc.mutate(&def)

			err := def.Validate()
			if tc.wantErr {
				gt.Error(t, err)
				gt.True(t, goerr.HasTag(err, errs.TagValidation))
				return
			}
			gt.NoError(t, err)
		})
	}
}
