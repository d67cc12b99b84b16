package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bqagent/pkg/cli/config"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/urfave/cli/v3"
)

// parse runs a command carrying flags so that flag destinations are filled.
func parse(t *testing.T, flags []cli.Flag, args ...string) {
	t.Helper()
	cmd := &cli.Command{
		Name:   "test",
		Flags:  flags,
		Action: func(ctx context.Context, c *cli.Command) error { return nil },
	}
	gt.NoError(t, cmd.Run(t.Context(), append([]string{"test"}, args...)))
}

func TestLoggerConfigure(t *testing.T) {
	t.Run("log file", func(t *testing.T) {
		var cfg config.Logger
		path := filepath.Join(t.TempDir(), "bqagent.log")
		parse(t, cfg.Flags(), "--log-output", path, "--log-format", "json")

		closer, err := cfg.Configure()
		gt.NoError(t, err)
		closer()

		_, err = os.Stat(path)
		gt.NoError(t, err)
	})

	t.Run("invalid level", func(t *testing.T) {
		var cfg config.Logger
		parse(t, cfg.Flags(), "--log-level", "verbose")

		closer, err := cfg.Configure()
		gt.Error(t, err)
		gt.NotNil(t, closer)
	})

	t.Run("invalid format", func(t *testing.T) {
		var cfg config.Logger
		parse(t, cfg.Flags(), "--log-format", "xml")

		_, err := cfg.Configure()
		gt.Error(t, err)
	})
}

func TestSentryWithoutDSN(t *testing.T) {
	var cfg config.Sentry
	parse(t, cfg.Flags())

	flush, err := cfg.Configure()
	gt.NoError(t, err)
	flush()
}

func TestGemini(t *testing.T) {
	t.Run("project is required", func(t *testing.T) {
		var cfg config.Gemini
		parse(t, cfg.Flags())

		_, err := cfg.Provider(t.Context(), "gemini-2.5-pro")
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
	})

	t.Run("model override", func(t *testing.T) {
		var cfg config.Gemini
		parse(t, cfg.Flags())
		gt.Equal(t, cfg.Model("gemini-2.5-pro"), "gemini-2.5-pro")

		parse(t, cfg.Flags(), "--gemini-model", "gemini-2.5-flash")
		gt.Equal(t, cfg.Model("gemini-2.5-pro"), "gemini-2.5-flash")
	})
}

func TestTraceDisabled(t *testing.T) {
	var cfg config.Trace
	parse(t, cfg.Flags())

	opts, closer, err := cfg.Configure(t.Context())
	gt.NoError(t, err)
	gt.A(t, opts).Length(0)
	closer()
}
