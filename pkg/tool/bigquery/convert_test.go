package bigquery_test

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	bq "cloud.google.com/go/bigquery"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bqagent/pkg/tool/bigquery"
)

func TestToRow(t *testing.T) {
	schema := bq.Schema{
		{Name: "z_id", Type: bq.StringFieldType},
		{Name: "observed_at", Type: bq.TimestampFieldType},
		{Name: "price", Type: bq.NumericFieldType},
		{Name: "tags", Type: bq.StringFieldType, Repeated: true},
		{Name: "market", Type: bq.RecordFieldType, Schema: bq.Schema{
			{Name: "name", Type: bq.StringFieldType},
			{Name: "base", Type: bq.StringFieldType},
		}},
		{Name: "raw", Type: bq.BytesFieldType},
	}
	values := []bq.Value{
		"z",
		time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		big.NewRat(5, 2),
		[]bq.Value{"a", "b"},
		[]bq.Value{"binance", "BTC"},
		[]byte("hi"),
	}

	r := bigquery.ToRow(schema, values)
	data, err := json.Marshal(r)
	gt.NoError(t, err)
	gt.Equal(t, string(data),
		`{"z_id":"z","observed_at":"2025-01-02T03:04:05Z","price":2.5,"tags":["a","b"],"market":{"name":"binance","base":"BTC"},"raw":"aGk="}`)
}

func TestToRowWithoutSchema(t *testing.T) {
	r := bigquery.ToRow(nil, []bq.Value{int64(1), nil})
	gt.Equal(t, r.Names(), []string{"f0_", "f1_"})
	v, _ := r.Get("f1_")
	gt.Nil(t, v)
}

func TestConvertValue(t *testing.T) {
	gt.Nil(t, bigquery.ConvertValue(nil, nil))
	gt.Equal(t, bigquery.ConvertValue(nil, int64(7)), any(int64(7)))
	gt.Equal(t, bigquery.ConvertValue(nil, map[string]bq.Value{"a": "b"}), any(map[string]any{"a": "b"}))
}

func TestFlattenSchema(t *testing.T) {
	schema := bq.Schema{
		{Name: "id", Type: bq.StringFieldType},
		{Name: "payload", Type: bq.RecordFieldType, Schema: bq.Schema{
			{Name: "actor", Type: bq.RecordFieldType, Schema: bq.Schema{
				{Name: "id", Type: bq.IntegerFieldType, Description: "actor id"},
			}},
		}},
	}

	fields := bigquery.FlattenSchema(schema, nil)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	gt.Equal(t, names, []string{"id", "payload", "payload.actor", "payload.actor.id"})
	gt.Equal(t, fields[3].Description, "actor id")
	gt.Equal(t, fields[3].Type, "INTEGER")
}
