package interfaces

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/gollem"
	"github.com/urfave/cli/v3"
)

// Tool is a gollem.ToolSet that can be configured from CLI flags. Configure
// returns errs.ErrActionUnavailable when the tool has not been given enough
// options to run.
type Tool interface {
	Name() string
	Flags() []cli.Flag
	Configure(ctx context.Context) error
	LogValue() slog.Value
	Prompt(ctx context.Context) (string, error)
	gollem.ToolSet
}
