package row

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Field is a single named value of a Row.
type Field struct {
	Name  string
	Value any
}

// Row is one record returned by a data query. Fields keep the order in which
// they were added (column order for BigQuery results, key order for JSON
// input) and that order survives JSON encoding.
type Row struct {
	fields *orderedmap.OrderedMap[string, any]
}

// New creates a Row from fields in the given order. A repeated name keeps its
// first position and takes the last value.
func New(fields ...Field) *Row {
	r := &Row{fields: orderedmap.New[string, any]()}
	for _, f := range fields {
		r.fields.Set(f.Name, f.Value)
	}
	return r
}

// F is a shorthand for building a Field.
func F(name string, value any) Field {
	return Field{Name: name, Value: value}
}

func (r *Row) init() {
	if r.fields == nil {
		r.fields = orderedmap.New[string, any]()
	}
}

// Set stores value under name. Existing fields keep their position.
func (r *Row) Set(name string, value any) {
	r.init()
	r.fields.Set(name, value)
}

func (r *Row) Get(name string) (any, bool) {
	if r == nil || r.fields == nil {
		return nil, false
	}
	return r.fields.Get(name)
}

func (r *Row) Len() int {
	if r == nil || r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Fields returns the fields in order.
func (r *Row) Fields() []Field {
	if r == nil || r.fields == nil {
		return nil
	}

	fields := make([]Field, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		fields = append(fields, Field{Name: pair.Key, Value: pair.Value})
	}
	return fields
}

// Names returns field names in order.
func (r *Row) Names() []string {
	fields := r.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Map returns an unordered copy of the row, e.g. for handing rows to an LLM
// tool response that expects plain maps.
func (r *Row) Map() map[string]any {
	m := make(map[string]any, r.Len())
	for _, f := range r.Fields() {
		m[f.Name] = plain(f.Value)
	}
	return m
}

func plain(v any) any {
	switch t := v.(type) {
	case *Row:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}

func (r *Row) MarshalJSON() ([]byte, error) {
	r.init()
	data, err := r.fields.MarshalJSON()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal row")
	}
	return data, nil
}

// UnmarshalJSON keeps numbers as json.Number so their text survives a round
// trip. Nested objects become *Row to keep their key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := raw.UnmarshalJSON(data); err != nil {
		return goerr.Wrap(err, "failed to unmarshal row")
	}

	r.fields = orderedmap.New[string, any](orderedmap.WithCapacity[string, any](raw.Len()))
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		v, err := decodeValue(pair.Value)
		if err != nil {
			return goerr.Wrap(err, "failed to unmarshal row field", goerr.V("field", pair.Key))
		}
		r.fields.Set(pair.Key, v)
	}
	return nil
}

func decodeValue(data json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, goerr.New("empty JSON value")
	}

	switch trimmed[0] {
	case '{':
		var nested Row
		if err := nested.UnmarshalJSON(trimmed); err != nil {
			return nil, err
		}
		return &nested, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal array")
		}
		values := make([]any, len(items))
		for i, item := range items {
			v, err := decodeValue(item)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid array element", goerr.V("index", i))
			}
			values[i] = v
		}
		return values, nil

	default:
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal value")
		}
		return v, nil
	}
}

// DecodeRows parses a JSON array of objects into rows, keeping key order.
func DecodeRows(data []byte) ([]*Row, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(err, "rows must be a JSON array of objects")
	}

	rows := make([]*Row, 0, len(raw))
	for i, msg := range raw {
		var r Row
		if err := r.UnmarshalJSON(msg); err != nil {
			return nil, goerr.Wrap(err, "invalid row", goerr.V("index", i))
		}
		rows = append(rows, &r)
	}
	return rows, nil
}
