package bigquery

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/secmon-lab/bqagent/pkg/domain/model/row"
)

// toRow builds an ordered row from one result record. Column order follows
// the result schema.
func toRow(schema bigquery.Schema, values []bigquery.Value) *row.Row {
	r := row.New()
	for i, v := range values {
		name := fmt.Sprintf("f%d_", i)
		var field *bigquery.FieldSchema
		if i < len(schema) {
			field = schema[i]
			name = field.Name
		}
		r.Set(name, convertValue(field, v))
	}
	return r
}

// convertValue turns a BigQuery value into a JSON friendly value. RECORD
// columns become nested rows so their field order is kept too.
func convertValue(field *bigquery.FieldSchema, value bigquery.Value) any {
	if value == nil {
		return nil
	}

	if field != nil && field.Repeated {
		if items, ok := value.([]bigquery.Value); ok {
			elem := *field
			elem.Repeated = false
			result := make([]any, len(items))
			for i, item := range items {
				result[i] = convertValue(&elem, item)
			}
			return result
		}
	}

	switch v := value.(type) {
	case string, int, int64, float64, bool:
		return v
	case []byte:
		return base64.StdEncoding.EncodeToString(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case *big.Rat:
		f, _ := v.Float64()
		return f
	case []bigquery.Value:
		if field != nil && field.Type == bigquery.RecordFieldType {
			return toRow(field.Schema, v)
		}
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = convertValue(nil, item)
		}
		return result
	case map[string]bigquery.Value:
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[key] = convertValue(nil, item)
		}
		return result
	default:
		// civil.Date, civil.Time, civil.DateTime, *big.Int and others
		return fmt.Sprintf("%v", v)
	}
}
