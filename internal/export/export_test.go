package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"capital-risk/internal/generator"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("parquet")
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, f)
	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestMetricsCSV(t *testing.T) {
	rows := MetricRows(3, generator.Metrics(3))
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 29)
	assert.Equal(t, metricHeader, records[0])
	assert.Equal(t, "3", records[1][0])
	assert.Equal(t, "lognm", records[1][2])
}

func TestScenariosCSV(t *testing.T) {
	rows := ScenarioRows(generator.Scenarios(4))
	require.Len(t, rows, 8)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, scenarioHeader, records[0])
	assert.Equal(t, "logn", records[1][3])
	assert.Equal(t, "par", records[2][3])
}

func TestMetricsParquetRoundTrip(t *testing.T) {
	rows := MetricRows(1, generator.Metrics(1))
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatParquet, rows))

	got, err := parquet.Read[MetricRow](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, got, len(rows))
	assert.Equal(t, rows[0], got[0])
	assert.Equal(t, rows[27], got[27])
}

func TestScenarioSchema(t *testing.T) {
	schema := parquet.SchemaOf(new(ScenarioRow))
	for _, col := range scenarioHeader {
		_, ok := schema.Lookup(col)
		assert.True(t, ok, "column %s", col)
	}
}
