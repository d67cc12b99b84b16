package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/secmon-lab/bqagent/pkg/domain/interfaces"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func joinFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, flag := range flags {
		result = append(result, flag...)
	}
	return result
}

type toolList []interfaces.Tool

func (x toolList) Flags() []cli.Flag {
	flags := []cli.Flag{}
	for _, tool := range x {
		flags = append(flags, tool.Flags()...)
	}
	return flags
}

func (x toolList) LogValue() slog.Value {
	var attrs []slog.Attr
	for _, tool := range x {
		attrs = append(attrs, slog.Any(tool.Name(), tool.LogValue()))
	}
	return slog.GroupValue(attrs...)
}

// Configure returns the tools that have enough options to run. Tools
// reporting errs.ErrActionUnavailable are skipped.
func (x toolList) Configure(ctx context.Context) ([]interfaces.Tool, error) {
	var configured []interfaces.Tool
	for _, tool := range x {
		if err := tool.Configure(ctx); err != nil {
			if errors.Is(err, errs.ErrActionUnavailable) {
				logging.From(ctx).Debug("tool is not configured", "tool", tool.Name())
				continue
			}
			return nil, err
		}
		configured = append(configured, tool)
	}
	return configured, nil
}
