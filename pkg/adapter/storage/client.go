package storage

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bqagent/pkg/domain/interfaces"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/utils/safe"
	"google.golang.org/api/option"
)

// Client is a StorageClient over a Cloud Storage bucket.
type Client struct {
	client *storage.Client
	bucket string
}

var _ interfaces.StorageClient = &Client{}

func New(ctx context.Context, bucket string, opts ...option.ClientOption) (*Client, error) {
	if bucket == "" {
		return nil, goerr.New("bucket is required", goerr.T(errs.TagValidation))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.T(errs.TagExternal))
	}

	return &Client{client: client, bucket: bucket}, nil
}

func (x *Client) PutObject(ctx context.Context, object string) io.WriteCloser {
	w := x.client.Bucket(x.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/json"
	return w
}

func (x *Client) GetObject(ctx context.Context, object string) (io.ReadCloser, error) {
	rc, err := x.client.Bucket(x.bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, goerr.Wrap(err, "object not found",
			goerr.T(errs.TagNotFound),
			goerr.V("bucket", x.bucket),
			goerr.V("object", object),
		)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create reader",
			goerr.T(errs.TagExternal),
			goerr.V("bucket", x.bucket),
			goerr.V("object", object),
		)
	}
	return rc, nil
}

func (x *Client) Close(ctx context.Context) {
	safe.Close(ctx, x.client)
}
