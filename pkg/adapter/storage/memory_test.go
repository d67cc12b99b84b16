package storage_test

import (
	"io"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bqagent/pkg/adapter/storage"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
)

func TestMemoryClient(t *testing.T) {
	ctx := t.Context()
	client := storage.NewMemoryClient()

	w := client.PutObject(ctx, "traces/a.json")
	_, err := w.Write([]byte(`{"a":1}`))
	gt.NoError(t, err)

	// not visible before Close
	_, err = client.GetObject(ctx, "traces/a.json")
	gt.True(t, goerr.HasTag(err, errs.TagNotFound))

	gt.NoError(t, w.Close())
	gt.NoError(t, w.Close())
	_, err = w.Write([]byte("x"))
	gt.Error(t, err)

	rc, err := client.GetObject(ctx, "traces/a.json")
	gt.NoError(t, err)
	data, err := io.ReadAll(rc)
	gt.NoError(t, err)
	gt.Equal(t, string(data), `{"a":1}`)

	gt.Equal(t, client.Objects(), []string{"traces/a.json"})
	client.Close(ctx)
}
