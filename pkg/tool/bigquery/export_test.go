package bigquery

var FlattenSchema = flattenSchema

type SchemaField = schemaField

var (
	ToRow        = toRow
	ConvertValue = convertValue
)

var NewMockBigQueryClient = newMockBigQueryClient

type MockBigQueryClient = mockBigQueryClient
type MockBigQueryClientFactory = mockBigQueryClientFactory
type MockQueryResult = mockQueryResult

func (x *Action) SetClientFactory(f BigQueryClientFactory) {
	x.factory = f
}
