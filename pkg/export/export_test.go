package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Row", "Time", "Problem"},
		Rows: []map[string]string{
			{"Row": "r2c1", "Time": "09:00", "Problem": ""},
			{"Row": "r6c1", "Time": "11:00", "Problem": "teacher not found: \"Ержан\""},
		},
		Widths: []float64{1, 1, 4},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())

	require.NoError(t, err)
	assert.Equal(t, "Row,Time,Problem\nr2c1,09:00,\nr6c1,11:00,\"teacher not found: \"\"Ержан\"\"\"\n", string(out))
}

func TestCSVExporterOptions(t *testing.T) {
	out, err := NewCSVExporter(WithDelimiter(';'), WithBOM()).Render(sampleDataset())

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("\ufeffRow;Time;Problem\n")))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)

	_, err = NewPDFExporter().Render(Dataset{}, "empty")
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter(WithLandscape()).Render(sampleDataset(), "Import preview")

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterMissingFont(t *testing.T) {
	_, err := NewPDFExporter(WithUTF8Font("/nonexistent/font.ttf")).Render(sampleDataset(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load pdf font")
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths(sampleDataset(), 180)
	assert.InDeltaSlice(t, []float64{30, 30, 120}, widths, 0.001)

	even := columnWidths(Dataset{Headers: []string{"a", "b"}, Widths: []float64{1, 0}}, 100)
	assert.Equal(t, []float64{50, 50}, even)
}
