package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bqagent/pkg/agents"
	"github.com/secmon-lab/bqagent/pkg/domain/model/agent"
	"github.com/urfave/cli/v3"
)

func cmdAgents() *cli.Command {
	var (
		asJSON      bool
		instruction bool
	)

	return &cli.Command{
		Name:  "agents",
		Usage: "Show declared agents",
		Flags: joinFlags(
			[]cli.Flag{
				&cli.BoolFlag{
					Name:        "json",
					Usage:       "Print definitions as JSON",
					Destination: &asJSON,
				},
				&cli.BoolFlag{
					Name:        "instruction",
					Aliases:     []string{"i"},
					Usage:       "Print instructions as well",
					Destination: &instruction,
				},
			},
			agents.AllFlags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			var defs []agent.Definition
			for _, f := range agents.All {
				def, err := f.Definition()
				if err != nil {
					return err
				}
				defs = append(defs, def)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(defs); err != nil {
					return goerr.Wrap(err, "failed to encode agent definitions")
				}
				return nil
			}

			for _, def := range defs {
				printDefinition(def, instruction)
			}
			return nil
		},
	}
}

func printDefinition(def agent.Definition, instruction bool) {
	bold := color.New(color.Bold)
	_, _ = bold.Printf("🤖 %s", def.Name)
	fmt.Printf(" (%s)\n", def.Model)
	fmt.Printf("  📄 %s\n", def.Description)
	fmt.Printf("  🔧 %s\n", strings.Join(def.Tools, ", "))
	if instruction {
		fmt.Println()
		fmt.Println(def.Instruction)
	}
	fmt.Println()
}
