package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// mockBigQueryClientFactory always returns Client.
type mockBigQueryClientFactory struct {
	Client    BigQueryClient
	Err       error
	ProjectID []string
}

var _ BigQueryClientFactory = (*mockBigQueryClientFactory)(nil)

func (f *mockBigQueryClientFactory) NewClient(ctx context.Context, projectID string, opts ...option.ClientOption) (BigQueryClient, error) {
	f.ProjectID = append(f.ProjectID, projectID)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Client, nil
}

type mockQueryResult struct {
	Schema bigquery.Schema
	Rows   [][]bigquery.Value
}

// mockBigQueryClient is an in-memory BigQueryClient. Errors keys are
// "query_run", "dry_run", "job_wait", "job_read", "datasets", "tables",
// "dataset_metadata", "table_metadata" and "close".
type mockBigQueryClient struct {
	// datasetID -> metadata
	Datasets map[string]*bigquery.DatasetMetadata
	// "dataset.table" -> metadata
	Tables map[string]*bigquery.TableMetadata
	// query -> result
	QueryResults map[string]*mockQueryResult
	// query -> dry run statistics
	DryRunResults map[string]*bigquery.JobStatistics
	Errors        map[string]error
	// Wait blocks this long or until the context is done
	WaitDelay time.Duration

	ExecutedQueries []string
	Closed          int
}

var _ BigQueryClient = (*mockBigQueryClient)(nil)

func newMockBigQueryClient() *mockBigQueryClient {
	return &mockBigQueryClient{
		Datasets:      make(map[string]*bigquery.DatasetMetadata),
		Tables:        make(map[string]*bigquery.TableMetadata),
		QueryResults:  make(map[string]*mockQueryResult),
		DryRunResults: make(map[string]*bigquery.JobStatistics),
		Errors:        make(map[string]error),
	}
}

func (c *mockBigQueryClient) Query(query string) BigQueryQuery {
	return &mockBigQueryQuery{client: c, query: query}
}

func (c *mockBigQueryClient) Dataset(datasetID string) BigQueryDataset {
	return &mockBigQueryDataset{client: c, datasetID: datasetID}
}

func (c *mockBigQueryClient) DatasetIDs(ctx context.Context) ([]string, error) {
	if err, ok := c.Errors["datasets"]; ok {
		return nil, err
	}
	ids := make([]string, 0, len(c.Datasets))
	for id := range c.Datasets {
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *mockBigQueryClient) Close() error {
	c.Closed++
	if err, ok := c.Errors["close"]; ok {
		return err
	}
	return nil
}

type mockBigQueryQuery struct {
	client *mockBigQueryClient
	query  string
	dryRun bool
}

var _ BigQueryQuery = (*mockBigQueryQuery)(nil)

func (q *mockBigQueryQuery) Run(ctx context.Context) (BigQueryJob, error) {
	if q.dryRun {
		if err, ok := q.client.Errors["dry_run"]; ok {
			return nil, err
		}
	} else {
		if err, ok := q.client.Errors["query_run"]; ok {
			return nil, err
		}
		q.client.ExecutedQueries = append(q.client.ExecutedQueries, q.query)
	}

	return &mockBigQueryJob{client: q.client, query: q.query, dryRun: q.dryRun}, nil
}

func (q *mockBigQueryQuery) SetDryRun(dryRun bool) {
	q.dryRun = dryRun
}

type mockBigQueryJob struct {
	client *mockBigQueryClient
	query  string
	dryRun bool
}

var _ BigQueryJob = (*mockBigQueryJob)(nil)

func (j *mockBigQueryJob) Wait(ctx context.Context) (*bigquery.JobStatus, error) {
	if err, ok := j.client.Errors["job_wait"]; ok {
		return nil, err
	}

	if j.client.WaitDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(j.client.WaitDelay):
		}
	}

	return j.LastStatus(), nil
}

func (j *mockBigQueryJob) Read(ctx context.Context) (BigQueryRowIterator, error) {
	if err, ok := j.client.Errors["job_read"]; ok {
		return nil, err
	}
	if j.dryRun {
		return nil, goerr.New("cannot read from dry run job")
	}

	result := j.client.QueryResults[j.query]
	if result == nil {
		result = &mockQueryResult{}
	}
	return &mockBigQueryRowIterator{result: result}, nil
}

func (j *mockBigQueryJob) LastStatus() *bigquery.JobStatus {
	status := &bigquery.JobStatus{State: bigquery.Done}
	if !j.dryRun {
		return status
	}

	if stats, ok := j.client.DryRunResults[j.query]; ok {
		status.Statistics = stats
		return status
	}

	status.Statistics = &bigquery.JobStatistics{
		TotalBytesProcessed: 1000,
		Details:             &bigquery.QueryStatistics{StatementType: "SELECT"},
	}
	return status
}

func (j *mockBigQueryJob) ID() string {
	return fmt.Sprintf("mock-job-%d", len(j.client.ExecutedQueries))
}

type mockBigQueryRowIterator struct {
	result *mockQueryResult
	index  int
}

var _ BigQueryRowIterator = (*mockBigQueryRowIterator)(nil)

func (r *mockBigQueryRowIterator) Next(dst any) error {
	if r.index >= len(r.result.Rows) {
		return iterator.Done
	}

	v, ok := dst.(*[]bigquery.Value)
	if !ok {
		return goerr.New("unsupported destination type", goerr.V("type", fmt.Sprintf("%T", dst)))
	}
	*v = append([]bigquery.Value(nil), r.result.Rows[r.index]...)
	r.index++
	return nil
}

func (r *mockBigQueryRowIterator) Schema() bigquery.Schema {
	return r.result.Schema
}

func (r *mockBigQueryRowIterator) TotalRows() uint64 {
	return uint64(len(r.result.Rows))
}

type mockBigQueryDataset struct {
	client    *mockBigQueryClient
	datasetID string
}

var _ BigQueryDataset = (*mockBigQueryDataset)(nil)

func (d *mockBigQueryDataset) Table(tableID string) BigQueryTable {
	return &mockBigQueryTable{client: d.client, key: d.datasetID + "." + tableID}
}

func (d *mockBigQueryDataset) Metadata(ctx context.Context) (*bigquery.DatasetMetadata, error) {
	if err, ok := d.client.Errors["dataset_metadata"]; ok {
		return nil, err
	}
	md, ok := d.client.Datasets[d.datasetID]
	if !ok {
		return nil, goerr.New("dataset not found", goerr.V("dataset_id", d.datasetID))
	}
	return md, nil
}

func (d *mockBigQueryDataset) TableIDs(ctx context.Context) ([]string, error) {
	if err, ok := d.client.Errors["tables"]; ok {
		return nil, err
	}
	var ids []string
	for key := range d.client.Tables {
		if tableID, ok := strings.CutPrefix(key, d.datasetID+"."); ok {
			ids = append(ids, tableID)
		}
	}
	return ids, nil
}

type mockBigQueryTable struct {
	client *mockBigQueryClient
	key    string
}

var _ BigQueryTable = (*mockBigQueryTable)(nil)

func (t *mockBigQueryTable) Metadata(ctx context.Context) (*bigquery.TableMetadata, error) {
	if err, ok := t.client.Errors["table_metadata"]; ok {
		return nil, err
	}
	md, ok := t.client.Tables[t.key]
	if !ok {
		return nil, goerr.New("table not found", goerr.V("table", t.key))
	}
	return md, nil
}
