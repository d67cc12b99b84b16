package bigquery

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/domain/model/row"
	"github.com/secmon-lab/bqagent/pkg/service/reshape"
	"github.com/secmon-lab/bqagent/pkg/utils/logging"
	"github.com/secmon-lab/bqagent/pkg/utils/safe"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// QueryResult is the outcome of execute_sql.
type QueryResult struct {
	QueryID        string
	JobID          string
	StatementType  string
	BytesProcessed int64
	TotalRows      uint64
	HasMore        bool
	Rows           []*row.Row
	Reshaped       []*row.Row
}

func (x *Action) Run(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if x.projectID == "" || x.factory == nil {
		return nil, goerr.New("bigquery tool is not configured", goerr.T(errs.TagValidation))
	}

	projectID := x.projectID
	if v, ok := args["project_id"].(string); ok && v != "" {
		projectID = v
	}

	switch name {
	case funcListDatasetIDs:
		ids, err := x.ListDatasetIDs(ctx, projectID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"project_id": projectID, "dataset_ids": ids}, nil

	case funcGetDatasetInfo:
		datasetID, err := stringArg(args, "dataset_id")
		if err != nil {
			return nil, err
		}
		return x.getDatasetInfo(ctx, projectID, datasetID)

	case funcListTableIDs:
		datasetID, err := stringArg(args, "dataset_id")
		if err != nil {
			return nil, err
		}
		ids, err := x.ListTableIDs(ctx, projectID, datasetID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"project_id": projectID, "dataset_id": datasetID, "table_ids": ids}, nil

	case funcGetTableInfo:
		datasetID, err := stringArg(args, "dataset_id")
		if err != nil {
			return nil, err
		}
		tableID, err := stringArg(args, "table_id")
		if err != nil {
			return nil, err
		}
		return x.getTableInfo(ctx, projectID, datasetID, tableID)

	case funcExecuteSQL:
		query, err := stringArg(args, "query")
		if err != nil {
			return nil, err
		}
		result, err := x.ExecuteSQL(ctx, projectID, query)
		if err != nil {
			return nil, err
		}
		return result.toolResponse()

	default:
		return nil, goerr.New("invalid function name", goerr.T(errs.TagValidation), goerr.V("name", name))
	}
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", goerr.New(key+" parameter is required", goerr.T(errs.TagValidation))
	}
	return v, nil
}

// toolResponse encodes rows as JSON strings so column order survives the
// function response, which is an unordered map.
func (r *QueryResult) toolResponse() (map[string]any, error) {
	rowsJSON, err := json.Marshal(r.Rows)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal rows")
	}

	resp := map[string]any{
		"query_id":        r.QueryID,
		"statement_type":  r.StatementType,
		"bytes_processed": r.BytesProcessed,
		"total_rows":      r.TotalRows,
		"has_more":        r.HasMore,
		"rows_json":       string(rowsJSON),
	}

	if r.Reshaped != nil {
		reshapedJSON, err := json.Marshal(r.Reshaped)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal reshaped rows")
		}
		resp["reshaped_rows_json"] = string(reshapedJSON)
	}

	return resp, nil
}

func (x *Action) newClient(ctx context.Context, projectID string) (BigQueryClient, error) {
	var opts []option.ClientOption
	if x.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(x.credentials)) //nolint:staticcheck // path comes from operator configuration
	}
	if x.impersonateServiceAccount != "" {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: x.impersonateServiceAccount,
			Scopes: []string{
				"https://www.googleapis.com/auth/bigquery",
				"https://www.googleapis.com/auth/cloud-platform",
			},
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create impersonated credentials")
		}
		opts = append(opts, option.WithTokenSource(ts))
	}

	client, err := x.factory.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client",
			goerr.T(errs.TagExternal), goerr.V("project_id", projectID))
	}
	return client, nil
}

// ListDatasetIDs returns dataset IDs of projectID in sorted order.
func (x *Action) ListDatasetIDs(ctx context.Context, projectID string) ([]string, error) {
	client, err := x.newClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, client)

	ids, err := client.DatasetIDs(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list datasets", goerr.T(errs.TagExternal), goerr.V("project_id", projectID))
	}
	sort.Strings(ids)
	return ids, nil
}

// ListTableIDs returns table IDs of a dataset in sorted order.
func (x *Action) ListTableIDs(ctx context.Context, projectID, datasetID string) ([]string, error) {
	client, err := x.newClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, client)

	ids, err := client.Dataset(datasetID).TableIDs(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tables", goerr.T(errs.TagExternal),
			goerr.V("project_id", projectID), goerr.V("dataset_id", datasetID))
	}
	sort.Strings(ids)
	return ids, nil
}

func (x *Action) getDatasetInfo(ctx context.Context, projectID, datasetID string) (map[string]any, error) {
	client, err := x.newClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, client)

	md, err := client.Dataset(datasetID).Metadata(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get dataset metadata", goerr.T(errs.TagExternal),
			goerr.V("project_id", projectID), goerr.V("dataset_id", datasetID))
	}

	return map[string]any{
		"project_id":         projectID,
		"dataset_id":         datasetID,
		"name":               md.Name,
		"description":        md.Description,
		"location":           md.Location,
		"labels":             md.Labels,
		"creation_time":      formatTime(md.CreationTime),
		"last_modified_time": formatTime(md.LastModifiedTime),
	}, nil
}

func (x *Action) getTableInfo(ctx context.Context, projectID, datasetID, tableID string) (map[string]any, error) {
	client, err := x.newClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, client)

	md, err := client.Dataset(datasetID).Table(tableID).Metadata(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get table metadata", goerr.T(errs.TagExternal),
			goerr.V("project_id", projectID), goerr.V("dataset_id", datasetID), goerr.V("table_id", tableID))
	}

	columns := make([]map[string]any, 0, len(md.Schema))
	for _, f := range flattenSchema(md.Schema, nil) {
		col := map[string]any{
			"name": f.Name,
			"type": f.Type,
		}
		if f.Repeated {
			col["repeated"] = true
		}
		if f.Description != "" {
			col["description"] = f.Description
		}
		columns = append(columns, col)
	}

	info := map[string]any{
		"project_id":         projectID,
		"dataset_id":         datasetID,
		"table_id":           tableID,
		"type":               string(md.Type),
		"description":        md.Description,
		"location":           md.Location,
		"num_rows":           md.NumRows,
		"size":               humanize.Bytes(uint64(max(md.NumBytes, 0))),
		"creation_time":      formatTime(md.CreationTime),
		"last_modified_time": formatTime(md.LastModifiedTime),
		"columns":            columns,
	}
	if tp := md.TimePartitioning; tp != nil {
		info["time_partitioning"] = map[string]any{
			"field": tp.Field,
			"type":  string(tp.Type),
		}
	}

	return info, nil
}

// ExecuteSQL dry-runs query to check the scan size and statement type, then
// runs it and reads up to max rows.
func (x *Action) ExecuteSQL(ctx context.Context, projectID, query string) (*QueryResult, error) {
	logger := logging.From(ctx)
	logger.Debug("executing query", slog.String("project_id", projectID), slog.String("query", query))

	client, err := x.newClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, client)

	q := client.Query(query)
	q.SetDryRun(true)
	dryRun, err := q.Run(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to dry run query", goerr.T(errs.TagValidation), goerr.V("query", query))
	}

	bytesProcessed, statementType := dryRunStats(dryRun.LastStatus())
	if bytesProcessed < 0 {
		return nil, goerr.New("invalid negative bytes processed", goerr.V("bytes_processed", bytesProcessed))
	}
	if uint64(bytesProcessed) > x.scanLimit {
		return nil, goerr.New("query scan size exceeds limit",
			goerr.T(errs.TagQuotaExceeded),
			goerr.V("scan_size", humanize.Bytes(uint64(bytesProcessed))),
			goerr.V("scan_limit", humanize.Bytes(x.scanLimit)))
	}

	if x.writeMode == WriteModeBlocked && statementType != "SELECT" {
		return nil, goerr.Wrap(errs.ErrWriteBlocked, "only SELECT statements are allowed",
			goerr.T(errs.TagForbidden), goerr.V("statement_type", statementType))
	}

	q.SetDryRun(false)
	job, err := q.Run(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run query", goerr.T(errs.TagExternal), goerr.V("query", query))
	}

	waitCtx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	status, err := job.Wait(waitCtx)
	if err != nil {
		if waitCtx.Err() == context.DeadlineExceeded {
			return nil, goerr.Wrap(err, "query timed out", goerr.T(errs.TagTimeout),
				goerr.V("job_id", job.ID()), goerr.V("timeout", x.timeout))
		}
		return nil, goerr.Wrap(err, "failed to wait for job", goerr.T(errs.TagExternal), goerr.V("job_id", job.ID()))
	}
	if err := status.Err(); err != nil {
		return nil, goerr.Wrap(err, "query job failed", goerr.T(errs.TagExternal), goerr.V("job_id", job.ID()))
	}

	it, err := job.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read query results", goerr.T(errs.TagExternal), goerr.V("job_id", job.ID()))
	}

	rows, hasMore, err := readRows(it, int(x.maxRows))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to iterate query results", goerr.V("job_id", job.ID()))
	}

	result := &QueryResult{
		QueryID:        uuid.NewString(),
		JobID:          job.ID(),
		StatementType:  statementType,
		BytesProcessed: bytesProcessed,
		TotalRows:      it.TotalRows(),
		HasMore:        hasMore,
		Rows:           rows,
	}
	if x.reshape {
		result.Reshaped = reshape.Reshape(rows)
	}

	logger.Info("query executed",
		slog.String("query_id", result.QueryID),
		slog.String("job_id", result.JobID),
		slog.String("statement_type", statementType),
		slog.String("bytes_processed", humanize.Bytes(uint64(bytesProcessed))),
		slog.Int("rows", len(rows)),
	)

	return result, nil
}

func dryRunStats(status *bigquery.JobStatus) (int64, string) {
	if status == nil || status.Statistics == nil {
		return 0, ""
	}

	var statementType string
	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok && qs != nil {
		statementType = qs.StatementType
	}
	return status.Statistics.TotalBytesProcessed, statementType
}

// readRows reads at most limit rows. The second return value reports whether
// more rows were available.
func readRows(it BigQueryRowIterator, limit int) ([]*row.Row, bool, error) {
	rows := make([]*row.Row, 0)
	for {
		var values []bigquery.Value
		err := it.Next(&values)
		if err == iterator.Done {
			return rows, false, nil
		}
		if err != nil {
			return nil, false, err
		}

		if len(rows) >= limit {
			return rows, true, nil
		}
		rows = append(rows, toRow(it.Schema(), values))
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
