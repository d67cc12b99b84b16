package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/secmon-lab/bqagent/pkg/agents"
	"github.com/secmon-lab/bqagent/pkg/cli/config"
	server "github.com/secmon-lab/bqagent/pkg/controller/http"
	bqtool "github.com/secmon-lab/bqagent/pkg/tool/bigquery"
	searchtool "github.com/secmon-lab/bqagent/pkg/tool/search"
	"github.com/secmon-lab/bqagent/pkg/usecase"
	"github.com/secmon-lab/bqagent/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		addr      string
		geminiCfg config.Gemini
		traceCfg  config.Trace
	)

	tools := toolList{
		&bqtool.Action{},
		&searchtool.Action{},
	}

	flags := joinFlags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Aliases:     []string{"a"},
				Sources:     cli.EnvVars("BQAGENT_ADDR"),
				Usage:       "Listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
		},
		geminiCfg.Flags(),
		traceCfg.Flags(),
		agents.AllFlags(),
		tools.Flags(),
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run HTTP server exposing the agents and the reshaper",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := logging.From(ctx)
			logger.Info("starting server",
				"addr", addr,
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

			registry, err := agents.Build(ctx, agents.All, geminiCfg.Provider, configured, agentOpts...)
			if err != nil {
				return err
			}
			if len(registry.List()) == 0 {
				logger.Warn("no agent is available, only /api/reshape is served")
			}

			uc := usecase.New(usecase.WithRegistry(registry))

			httpServer := http.Server{
				Addr:              addr,
				Handler:           server.New(uc),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				defer close(errCh)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			case <-sigCh:
			}

			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
}
