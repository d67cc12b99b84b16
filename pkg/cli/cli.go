package cli

import (
	"context"

	"github.com/secmon-lab/bqagent/pkg/cli/config"
	"github.com/secmon-lab/bqagent/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg config.Logger
		sentryCfg config.Sentry
		closers   []func()
	)

	app := &cli.Command{
		Name:  "bqagent",
		Usage: "Natural language to BigQuery SQL agent",
		Flags: joinFlags(loggerCfg.Flags(), sentryCfg.Flags()),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			closeLog, err := loggerCfg.Configure()
			closers = append(closers, closeLog)
			if err != nil {
				return ctx, err
			}

			flush, err := sentryCfg.Configure()
			closers = append(closers, flush)
			if err != nil {
				return ctx, err
			}

			logging.Default().Debug("base options", "logger", loggerCfg, "sentry", sentryCfg)
			return logging.With(ctx, logging.Default()), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdAgents(),
			cmdQuery(),
			cmdSearch(),
			cmdReshape(),
			cmdServe(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", logging.ErrAttr(err))
		return err
	}

	return nil
}
