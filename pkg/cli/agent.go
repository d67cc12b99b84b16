package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bqagent/pkg/agents"
	"github.com/secmon-lab/bqagent/pkg/cli/config"
	"github.com/secmon-lab/bqagent/pkg/domain/interfaces"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/usecase"
	"github.com/secmon-lab/bqagent/pkg/utils/logging"
	"github.com/secmon-lab/bqagent/pkg/utils/msg"
	"github.com/urfave/cli/v3"
)

var (
	traceColor  = color.New(color.FgHiBlack)
	answerColor = color.New(color.FgCyan)
	errorColor  = color.New(color.FgRed)
)

func printTrace(ctx context.Context, m string) {
	_, _ = traceColor.Fprintln(os.Stderr, m)
}

// cmdAgent builds a command that talks to a single agent, once with --query
// or interactively.
func cmdAgent(name, alias, usage string, factory agents.Factory, tool interfaces.Tool) *cli.Command {
	var (
		geminiCfg config.Gemini
		traceCfg  config.Trace
		query     string
	)

	tools := toolList{tool}
	flags := joinFlags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "query",
				Usage:       "Query prompt (if not provided, interactive mode will start)",
				Destination: &query,
			},
		},
		geminiCfg.Flags(),
		traceCfg.Flags(),
		factory.Flags(),
		tools.Flags(),
	)

	return &cli.Command{
		Name:    name,
		Aliases: []string{alias},
		Usage:   usage,
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			def, err := factory.Definition()
			if err != nil {
				return err
			}

			logging.From(ctx).Info("starting agent",
				"agent", def.Name,
				"gemini", &geminiCfg,
				"trace", &traceCfg,
				"tools", tools,
			)

			configured, err := tools.Configure(ctx)
			if err != nil {
				return err
			}

			agentOpts, closeTrace, err := traceCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer closeTrace()

			registry, err := agents.Build(ctx, []agents.Factory{factory}, geminiCfg.Provider, configured, agentOpts...)
			if err != nil {
				return err
			}
			if _, ok := registry.Get(def.Name); !ok {
				return goerr.New("agent is not available, required tool options are missing",
					goerr.T(errs.TagValidation),
					goerr.V("agent", def.Name),
					goerr.V("tools", def.Tools),
				)
			}

			uc := usecase.New(usecase.WithRegistry(registry))
			ctx = msg.With(ctx, printTrace)

			if query != "" {
				return runSingleQuery(ctx, uc, def.Name, query)
			}
			return runInteractiveMode(ctx, uc, def.Name, os.Stdin)
		},
	}
}

func runSingleQuery(ctx context.Context, uc *usecase.UseCases, name, query string) error {
	resp, err := uc.AskAgent(ctx, name, query)
	if err != nil {
		return goerr.Wrap(err, "failed to process query")
	}

	_, _ = answerColor.Println(resp.Text)
	return nil
}

func runInteractiveMode(ctx context.Context, uc *usecase.UseCases, name string, in io.Reader) error {
	logger := logging.From(ctx)
	logger.Info("Starting interactive mode", "agent", name)

	fmt.Printf("💬 Talking to %s. Type 'exit' or 'quit' to end the session.\n\n", name)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return goerr.Wrap(err, "failed to read input")
			}
			fmt.Println("\n👋 Session ended.")
			return nil
		}

		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			fmt.Println("👋 Session ended.")
			return nil
		}

		resp, err := uc.AskAgent(ctx, name, message)
		if err != nil {
			_, _ = errorColor.Printf("❌ Error: %s\n", err.Error())
			errs.Handle(ctx, err)
			continue
		}

		_, _ = answerColor.Println(resp.Text)
		fmt.Println()
	}
}
