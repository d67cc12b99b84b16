// Package reshape turns raw query rows into the compact layout presented to
// users: primary key first, a single score as "result", count and list
// columns folded into "detail", everything else passed through.
package reshape

import (
	"fmt"
	"strings"

	"github.com/secmon-lab/bqagent/pkg/domain/model/row"
)

const (
	FieldResult        = "result"
	FieldDetail        = "detail"
	FieldPrimarySource = "primary_source"
	FieldSource        = "source"
	FieldSourceLink    = "source_link"

	coinKey        = "coin_id"
	coinSource     = "coingecko"
	coinLinkPrefix = "https://www.coingecko.com/en/coins/"
)

// KeyOutcome tells how the primary key of a row was chosen.
type KeyOutcome int

const (
	KeyNone KeyOutcome = iota
	KeyBySuffix
	KeyByExactMatch
	KeyByFallback
)

func (x KeyOutcome) String() string {
	switch x {
	case KeyBySuffix:
		return "suffix"
	case KeyByExactMatch:
		return "exact"
	case KeyByFallback:
		return "fallback"
	default:
		return "none"
	}
}

// PrimaryKey is the field selected as identifier of a row.
type PrimaryKey struct {
	Name    string
	Value   any
	Outcome KeyOutcome
}

// SelectPrimaryKey returns the first field named "id" or ending with "_id".
// Without such a field the first field is used. An empty row has no key.
func SelectPrimaryKey(fields []row.Field) PrimaryKey {
	for _, f := range fields {
		if f.Name == "id" {
			return PrimaryKey{Name: f.Name, Value: f.Value, Outcome: KeyByExactMatch}
		}
		if strings.HasSuffix(f.Name, "_id") {
			return PrimaryKey{Name: f.Name, Value: f.Value, Outcome: KeyBySuffix}
		}
	}

	if len(fields) > 0 {
		return PrimaryKey{Name: fields[0].Name, Value: fields[0].Value, Outcome: KeyByFallback}
	}
	return PrimaryKey{Outcome: KeyNone}
}

// parts collects the pieces of one output row before assembly.
type parts struct {
	result    any
	hasResult bool
	detail    *row.Row
}

type rule struct {
	suffix string
	apply  func(p *parts, base string, value any)
}

// rules are checked in order; the first matching suffix wins.
var rules = []rule{
	{
		suffix: "_score",
		apply: func(p *parts, _ string, value any) {
			if p.hasResult {
				return
			}
			p.result, p.hasResult = value, true
		},
	},
	{
		suffix: "_count",
		apply: func(p *parts, base string, value any) {
			p.detail.Set("total_"+base, value)
		},
	},
	{
		suffix: "_list",
		apply: func(p *parts, base string, value any) {
			p.detail.Set(base+"_detail", value)
		},
	},
}

func matchRule(name string) (*rule, string) {
	for i := range rules {
		if base, ok := strings.CutSuffix(name, rules[i].suffix); ok {
			return &rules[i], base
		}
	}
	return nil, ""
}

// Reshape applies ReshapeRow to every row. Output order matches input order.
func Reshape(rows []*row.Row) []*row.Row {
	out := make([]*row.Row, len(rows))
	for i, r := range rows {
		out[i] = ReshapeRow(r)
	}
	return out
}

// ReshapeRow builds the compact form of a single row. Field order of the
// output is: primary key, result, detail, passthrough fields, provenance.
func ReshapeRow(r *row.Row) *row.Row {
	fields := r.Fields()
	key := SelectPrimaryKey(fields)

	p := &parts{detail: row.New()}
	var passthrough []row.Field

	for _, f := range fields {
		if matched, base := matchRule(f.Name); matched != nil {
			matched.apply(p, base, f.Value)
			continue
		}
		if key.Outcome != KeyNone && f.Name == key.Name {
			continue
		}
		passthrough = append(passthrough, f)
	}

	out := row.New()
	if key.Outcome != KeyNone {
		out.Set(key.Name, key.Value)
	}
	if p.hasResult {
		out.Set(FieldResult, p.result)
	}
	if p.detail.Len() > 0 {
		out.Set(FieldDetail, p.detail)
	}
	for _, f := range passthrough {
		out.Set(f.Name, f.Value)
	}

	if key.Outcome != KeyNone && key.Name == coinKey {
		out.Set(FieldPrimarySource, coinSource)
		out.Set(FieldSource, coinSource)
		out.Set(FieldSourceLink, coinLinkPrefix+fmt.Sprint(key.Value))
	}

	return out
}
