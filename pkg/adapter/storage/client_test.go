package storage_test

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bqagent/pkg/adapter/storage"
	"github.com/secmon-lab/bqagent/pkg/domain/model/errs"
	"github.com/secmon-lab/bqagent/pkg/utils/test"
)

func TestClient(t *testing.T) {
	vars := test.NewEnvVars(t, "TEST_STORAGE_BUCKET")
	ctx := t.Context()

	client, err := storage.New(ctx, vars.Get("TEST_STORAGE_BUCKET"))
	gt.NoError(t, err)
	defer client.Close(ctx)

	object := fmt.Sprintf("bqagent-test/%d.json", time.Now().UnixNano())
	w := client.PutObject(ctx, object)
	_, err = w.Write([]byte(`{"ok":true}`))
	gt.NoError(t, err)
	gt.NoError(t, w.Close())

	rc, err := client.GetObject(ctx, object)
	gt.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	gt.NoError(t, err)
	gt.Equal(t, string(data), `{"ok":true}`)

	_, err = client.GetObject(ctx, object+".missing")
	gt.True(t, goerr.HasTag(err, errs.TagNotFound))
}

func TestNewWithoutBucket(t *testing.T) {
	_, err := storage.New(t.Context(), "")
	gt.True(t, goerr.HasTag(err, errs.TagValidation))
}
