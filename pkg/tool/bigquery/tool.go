package bigquery

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/bqagent/pkg/domain/interfaces"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// WriteMode controls which statements execute_sql may run.
type WriteMode string

const (
	// WriteModeBlocked permits SELECT statements only.
	WriteModeBlocked WriteMode = "blocked"
	// WriteModeAllowed permits any statement.
	WriteModeAllowed WriteMode = "allowed"
)

const (
	funcListDatasetIDs = "list_dataset_ids"
	funcGetDatasetInfo = "get_dataset_info"
	funcListTableIDs   = "list_table_ids"
	funcGetTableInfo   = "get_table_info"
	funcExecuteSQL     = "execute_sql"
)

type Action struct {
	projectID                 string
	credentials               string
	impersonateServiceAccount string
	configFiles               []string
	writeModeStr              string
	scanLimitStr              string
	timeout                   time.Duration
	maxRows                   int64
	reshape                   bool

	writeMode WriteMode
	scanLimit uint64
	tables    []*TableConfig
	factory   BigQueryClientFactory
}

var _ interfaces.Tool = &Action{}

// TableConfig describes a table the agent is expected to query. It is only
// used to enrich the system prompt; tables that are not listed can still be
// queried.
type TableConfig struct {
	ProjectID   string         `yaml:"project_id" json:"project_id,omitempty"`
	DatasetID   string         `yaml:"dataset_id" json:"dataset_id"`
	TableID     string         `yaml:"table_id" json:"table_id"`
	Description string         `yaml:"description" json:"description,omitempty"`
	Columns     []ColumnConfig `yaml:"columns" json:"columns,omitempty"`
}

type ColumnConfig struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type,omitempty"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// configFile is the YAML layout of --bigquery-config.
type configFile struct {
	Tables []*TableConfig `yaml:"tables"`
}

func (x *Action) Name() string {
	return "bigquery"
}

func (x *Action) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bigquery-project-id",
			Usage:       "Google Cloud project ID used for BigQuery jobs",
			Destination: &x.projectID,
			Category:    "BigQuery",
			Sources:     cli.EnvVars("BQAGENT_BIGQUERY_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "bigquery-credentials",
			Usage:       "Path to Google Cloud credentials JSON file (default: Application Default Credentials)",
			Destination: &x.credentials,
			Category:    "BigQuery",
			Sources:     cli.EnvVars("BQAGENT_BIGQUERY_CREDENTIALS"),
		},
		&cli.StringFlag{
			Name:        "bigquery-impersonate-service-account",
			Usage:       "Service account email to impersonate",
			Destination: &x.impersonateServiceAccount,
			Category:    "BigQuery",
			Sources:     cli.EnvVars("BQAGENT_BIGQUERY_IMPERSONATE_SERVICE_ACCOUNT"),
		},
		&cli.StringSliceFlag{
			Name:        "bigquery-config",
			Usage:       "Path to YAML file or directory describing tables",
			Destination: &x.configFiles,
			Category:    "BigQuery",
			Sources:     cli.EnvVars("BQAGENT_BIGQUERY_CONFIG"),
		},
		&cli.StringFlag{
			Name:        "bigquery-write-mode",
			Usage:       "Statements execute_sql may run: blocked (SELECT only) or allowed",
			Destination: &x.writeModeStr,
			Category:    "BigQuery",
			Value:       string(WriteModeAllowed),
			Sources:     cli.EnvVars("BQAGENT_BIGQUERY_WRITE_MODE"),
		},
		&cli.StringFlag{
			Name:        "bigquery-scan-limit",
			Usage:       "Maximum bytes a query may scan, e.g. 10GB",
			Destination: &x.scanLimitStr,
			Category:    "BigQuery",
			Value:       "10GB",
			Sources:     cli.EnvVars("BQAGENT_BIGQUERY_SCAN_LIMIT"),
		},
		&cli.DurationFlag{
			Name:        "bigquery-timeout",
			Usage:       "Timeout for query execution",
			Destination: &x.timeout,
			Category:    "BigQuery",
			Value:       5 * time.Minute,
			Sources:     cli.EnvVars("BQAGENT_BIGQUERY_TIMEOUT"),
		},
		&cli.Int64Flag{
			Name:        "bigquery-max-rows",
			Usage:       "Maximum number of rows returned to the agent",
			Destination: &x.maxRows,
			Category:    "BigQuery",
			Value:       100,
			Sources:     cli.EnvVars("BQAGENT_BIGQUERY_MAX_ROWS"),
		},
		&cli.BoolFlag{
			Name:        "bigquery-reshape",
			Usage:       "Also return reshaped rows (primary key, result, detail) from execute_sql",
			Destination: &x.reshape,
			Category:    "BigQuery",
			Sources:     cli.EnvVars("BQAGENT_BIGQUERY_RESHAPE"),
		},
	}
}

func (x *Action) Configure(ctx context.Context) error {
	if x.projectID == "" {
		return errs.ErrActionUnavailable
	}

	switch mode := WriteMode(strings.ToLower(x.writeModeStr)); mode {
	case WriteModeBlocked, WriteModeAllowed:
		x.writeMode = mode
	case "":
		x.writeMode = WriteModeAllowed
	default:
		return goerr.New("invalid write mode", goerr.T(errs.TagValidation), goerr.V("mode", x.writeModeStr))
	}

	if x.scanLimitStr == "" {
		x.scanLimitStr = "10GB"
	}
	scanLimit, err := humanize.ParseBytes(x.scanLimitStr)
	if err != nil {
		return goerr.Wrap(err, "failed to parse scan limit", goerr.T(errs.TagValidation), goerr.V("scan_limit", x.scanLimitStr))
	}
	x.scanLimit = scanLimit

	if x.maxRows <= 0 {
		return goerr.New("max rows must be positive", goerr.T(errs.TagValidation), goerr.V("max_rows", x.maxRows))
	}
	if x.timeout <= 0 {
		x.timeout = 5 * time.Minute
	}

	x.tables = nil
	for _, path := range x.configFiles {
		tables, err := loadTableConfigs(path)
		if err != nil {
			return err
		}
		x.tables = append(x.tables, tables...)
	}

	if x.factory == nil {
		x.factory = &DefaultBigQueryClientFactory{}
	}

	return nil
}

func loadTableConfigs(path string) ([]*TableConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to stat config path", goerr.V("path", path))
	}
	if !info.IsDir() {
		return loadTableConfigFile(path)
	}

	var tables []*TableConfig
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return goerr.Wrap(err, "failed to walk directory", goerr.V("path", p))
		}
		if d.IsDir() {
			return nil
		}
		if ext := strings.ToLower(filepath.Ext(p)); ext != ".yaml" && ext != ".yml" {
			return nil
		}

		loaded, err := loadTableConfigFile(p)
		if err != nil {
			return err
		}
		tables = append(tables, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tables, nil
}

func loadTableConfigFile(path string) ([]*TableConfig, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read configuration file", goerr.V("path", path))
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse configuration file", goerr.V("path", path))
	}

	for i, t := range cfg.Tables {
		if t == nil || t.DatasetID == "" || t.TableID == "" {
			return nil, goerr.New("dataset_id and table_id are required",
				goerr.T(errs.TagValidation), goerr.V("path", path), goerr.V("index", i))
		}
	}

	return cfg.Tables, nil
}

func (x *Action) Specs(ctx context.Context) ([]gollem.ToolSpec, error) {
	projectParam := &gollem.Parameter{
		Type:        gollem.TypeString,
		Description: "Google Cloud project ID. Defaults to the configured project.",
	}
	datasetParam := &gollem.Parameter{
		Type:        gollem.TypeString,
		Description: "BigQuery dataset ID",
		Required:    true,
	}

	return []gollem.ToolSpec{
		{
			Name:        funcListDatasetIDs,
			Description: "List BigQuery dataset IDs in a Google Cloud project.",
			Parameters: map[string]*gollem.Parameter{
				"project_id": projectParam,
			},
		},
		{
			Name:        funcGetDatasetInfo,
			Description: "Get metadata of a BigQuery dataset: location, description and labels.",
			Parameters: map[string]*gollem.Parameter{
				"project_id": projectParam,
				"dataset_id": datasetParam,
			},
		},
		{
			Name:        funcListTableIDs,
			Description: "List table IDs in a BigQuery dataset.",
			Parameters: map[string]*gollem.Parameter{
				"project_id": projectParam,
				"dataset_id": datasetParam,
			},
		},
		{
			Name:        funcGetTableInfo,
			Description: "Get metadata of a BigQuery table including its column schema.",
			Parameters: map[string]*gollem.Parameter{
				"project_id": projectParam,
				"dataset_id": datasetParam,
				"table_id": {
					Type:        gollem.TypeString,
					Description: "BigQuery table ID",
					Required:    true,
				},
			},
		},
		{
			Name:        funcExecuteSQL,
			Description: executeSQLPrompt(x.scanLimitStr, x.writeMode, x.maxRows),
			Parameters: map[string]*gollem.Parameter{
				"project_id": projectParam,
				"query": {
					Type:        gollem.TypeString,
					Description: "GoogleSQL query to execute",
					Required:    true,
				},
			},
		},
	}, nil
}

// Prompt lists the configured tables for the system prompt.
func (x *Action) Prompt(ctx context.Context) (string, error) {
	if len(x.tables) == 0 {
		return "", nil
	}

	return tablesPrompt(x.projectID, x.tables)
}

func (x *Action) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project_id", x.projectID),
		slog.Bool("credentials", x.credentials != ""),
		slog.String("impersonate_service_account", x.impersonateServiceAccount),
		slog.Any("config_files", x.configFiles),
		slog.String("write_mode", string(x.writeMode)),
		slog.String("scan_limit", x.scanLimitStr),
		slog.Duration("timeout", x.timeout),
		slog.Int64("max_rows", x.maxRows),
		slog.Bool("reshape", x.reshape),
	)
}
