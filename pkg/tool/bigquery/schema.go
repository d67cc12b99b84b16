package bigquery

import (
	"strings"

	"cloud.google.com/go/bigquery"
)

type schemaField struct {
	Name        string
	Type        string
	Repeated    bool
	Description string
}

// flattenSchema lists columns depth first. Nested RECORD fields are named
// with dotted paths such as "payload.actor.id".
func flattenSchema(schema bigquery.Schema, prefix []string) []schemaField {
	var result []schemaField

	for _, field := range schema {
		path := append(append([]string{}, prefix...), field.Name)

		result = append(result, schemaField{
			Name:        strings.Join(path, "."),
			Type:        string(field.Type),
			Repeated:    field.Repeated,
			Description: field.Description,
		})

		if field.Type == bigquery.RecordFieldType {
			result = append(result, flattenSchema(field.Schema, path)...)
		}
	}

	return result
}
