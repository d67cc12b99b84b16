package config

import (
	"context"
	"log/slog"

	"github.com/secmon-lab/bqagent/pkg/adapter/storage"
	traceAdapter "github.com/secmon-lab/bqagent/pkg/adapter/trace"
	"github.com/secmon-lab/bqagent/pkg/agents"
	"github.com/secmon-lab/bqagent/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Trace configures where agent execution traces are stored.
type Trace struct {
	bucket string
	prefix string
}

func (x *Trace) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "trace-bucket",
			Usage:       "Cloud Storage bucket for agent execution traces",
			Category:    "Trace",
			Destination: &x.bucket,
			Sources:     cli.EnvVars("BQAGENT_TRACE_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "trace-prefix",
			Usage:       "Object prefix for agent execution traces",
			Category:    "Trace",
			Destination: &x.prefix,
			Value:       traceAdapter.DefaultPrefix,
			Sources:     cli.EnvVars("BQAGENT_TRACE_PREFIX"),
		},
	}
}

func (x *Trace) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// Configure returns agent options that save traces to the bucket, and a
// closer for the storage client. Without --trace-bucket tracing is off.
func (x *Trace) Configure(ctx context.Context) ([]agents.Option, func(), error) {
	if x.bucket == "" {
		return nil, func() {}, nil
	}

	client, err := storage.New(ctx, x.bucket)
	if err != nil {
		return nil, func() {}, err
	}

	repo := traceAdapter.NewSafe(traceAdapter.New(client, x.prefix), logging.From(ctx))
	return []agents.Option{agents.WithTraceRepository(repo)}, func() { client.Close(context.Background()) }, nil
}
