package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/domain/model/row"
	"github.com/secmon-lab/bqagent/pkg/usecase"
	"github.com/secmon-lab/bqagent/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdReshape() *cli.Command {
	var (
		input  string
		output string
	)

	return &cli.Command{
		Name:  "reshape",
		Usage: "Reshape query result rows (JSON array of objects) into the compact result layout",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "Input JSON file ('-' for stdin)",
				Value:       "-",
				Destination: &input,
			},
			&cli.StringFlag{
				Name:        "output",
				Usage:       "Output JSON file ('-' for stdout)",
				Value:       "-",
				Destination: &output,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			data, err := readInput(ctx, input)
			if err != nil {
				return err
			}

			rows, err := row.DecodeRows(data)
			if err != nil {
				return goerr.Wrap(err, "invalid input", goerr.T(errs.TagValidation), goerr.V("input", input))
			}

			reshaped := usecase.New().ReshapeRows(ctx, rows)
			return writeOutput(ctx, output, reshaped)
		},
	}
}

func readInput(ctx context.Context, path string) ([]byte, error) {
	if path == "-" || path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read stdin")
		}
		return data, nil
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open input file", goerr.V("path", path))
	}
	defer safe.Close(ctx, f)

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read input file", goerr.V("path", path))
	}
	return data, nil
}

func writeOutput(ctx context.Context, path string, v any) error {
	w := io.Writer(os.Stdout)
	if path != "-" && path != "" {
		f, err := os.Create(filepath.Clean(path))
		if err != nil {
			return goerr.Wrap(err, "failed to create output file", goerr.V("path", path))
		}
		defer safe.Close(ctx, f)
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to write output", goerr.V("path", path))
	}
	return nil
}
