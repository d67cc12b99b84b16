package bigquery

import (
	"context"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BigQueryClient is the subset of *bigquery.Client used by the tool.
type BigQueryClient interface {
	Query(query string) BigQueryQuery
	Dataset(datasetID string) BigQueryDataset
	DatasetIDs(ctx context.Context) ([]string, error)
	Close() error
}

type BigQueryQuery interface {
	Run(ctx context.Context) (BigQueryJob, error)
	SetDryRun(dryRun bool)
}

type BigQueryJob interface {
	Wait(ctx context.Context) (*bigquery.JobStatus, error)
	Read(ctx context.Context) (BigQueryRowIterator, error)
	LastStatus() *bigquery.JobStatus
	ID() string
}

// BigQueryRowIterator reads result rows. Schema is valid after the first
// call of Next.
type BigQueryRowIterator interface {
	Next(dst any) error
	Schema() bigquery.Schema
	TotalRows() uint64
}

type BigQueryDataset interface {
	Table(tableID string) BigQueryTable
	Metadata(ctx context.Context) (*bigquery.DatasetMetadata, error)
	TableIDs(ctx context.Context) ([]string, error)
}

type BigQueryTable interface {
	Metadata(ctx context.Context) (*bigquery.TableMetadata, error)
}

// BigQueryClientFactory creates a client per project. Tests replace it with
// a fake.
type BigQueryClientFactory interface {
	NewClient(ctx context.Context, projectID string, opts ...option.ClientOption) (BigQueryClient, error)
}

type DefaultBigQueryClientFactory struct{}

var _ BigQueryClientFactory = (*DefaultBigQueryClientFactory)(nil)

func (f *DefaultBigQueryClientFactory) NewClient(ctx context.Context, projectID string, opts ...option.ClientOption) (BigQueryClient, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, err
	}
	return &DefaultBigQueryClient{client: client}, nil
}

type DefaultBigQueryClient struct {
	client *bigquery.Client
}

var _ BigQueryClient = (*DefaultBigQueryClient)(nil)

func (c *DefaultBigQueryClient) Query(query string) BigQueryQuery {
	return &DefaultBigQueryQuery{query: c.client.Query(query)}
}

func (c *DefaultBigQueryClient) Dataset(datasetID string) BigQueryDataset {
	return &DefaultBigQueryDataset{dataset: c.client.Dataset(datasetID)}
}

func (c *DefaultBigQueryClient) DatasetIDs(ctx context.Context) ([]string, error) {
	var ids []string
	it := c.client.Datasets(ctx)
	for {
		ds, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, ds.DatasetID)
	}
	return ids, nil
}

func (c *DefaultBigQueryClient) Close() error {
	return c.client.Close()
}

type DefaultBigQueryQuery struct {
	query *bigquery.Query
}

var _ BigQueryQuery = (*DefaultBigQueryQuery)(nil)

func (q *DefaultBigQueryQuery) Run(ctx context.Context) (BigQueryJob, error) {
	job, err := q.query.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &DefaultBigQueryJob{job: job}, nil
}

func (q *DefaultBigQueryQuery) SetDryRun(dryRun bool) {
	q.query.DryRun = dryRun
}

type DefaultBigQueryJob struct {
	job *bigquery.Job
}

var _ BigQueryJob = (*DefaultBigQueryJob)(nil)

func (j *DefaultBigQueryJob) Wait(ctx context.Context) (*bigquery.JobStatus, error) {
	return j.job.Wait(ctx)
}

func (j *DefaultBigQueryJob) Read(ctx context.Context) (BigQueryRowIterator, error) {
	iter, err := j.job.Read(ctx)
	if err != nil {
		return nil, err
	}
	return &DefaultBigQueryRowIterator{iter: iter}, nil
}

func (j *DefaultBigQueryJob) LastStatus() *bigquery.JobStatus {
	return j.job.LastStatus()
}

func (j *DefaultBigQueryJob) ID() string {
	return j.job.ID()
}

type DefaultBigQueryRowIterator struct {
	iter *bigquery.RowIterator
}

var _ BigQueryRowIterator = (*DefaultBigQueryRowIterator)(nil)

func (r *DefaultBigQueryRowIterator) Next(dst any) error {
	return r.iter.Next(dst)
}

func (r *DefaultBigQueryRowIterator) Schema() bigquery.Schema {
	return r.iter.Schema
}

func (r *DefaultBigQueryRowIterator) TotalRows() uint64 {
	return r.iter.TotalRows
}

type DefaultBigQueryDataset struct {
	dataset *bigquery.Dataset
}

var _ BigQueryDataset = (*DefaultBigQueryDataset)(nil)

func (d *DefaultBigQueryDataset) Table(tableID string) BigQueryTable {
	return &DefaultBigQueryTable{table: d.dataset.Table(tableID)}
}

func (d *DefaultBigQueryDataset) Metadata(ctx context.Context) (*bigquery.DatasetMetadata, error) {
	return d.dataset.Metadata(ctx)
}

func (d *DefaultBigQueryDataset) TableIDs(ctx context.Context) ([]string, error) {
	var ids []string
	it := d.dataset.Tables(ctx)
	for {
		t, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.TableID)
	}
	return ids, nil
}

type DefaultBigQueryTable struct {
	table *bigquery.Table
}

var _ BigQueryTable = (*DefaultBigQueryTable)(nil)

func (t *DefaultBigQueryTable) Metadata(ctx context.Context) (*bigquery.TableMetadata, error) {
	return t.table.Metadata(ctx)
}
