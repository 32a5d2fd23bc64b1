package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title: "Course Substitution Requests",
		Columns: []Column{
			{Key: "pid", Label: "PID"},
			{Key: "name", Label: "Student", Weight: 2},
			{Key: "status"},
		},
		Rows: []map[string]string{
			{"pid": "1234567", "name": "Doe, Jane", "status": "Pending"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "PID,Student,status\n1234567,\"Doe, Jane\",Pending\n", string(out))
}

func TestExportersRequireColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestColumnWidthsFollowWeights(t *testing.T) {
	widths := columnWidths(sampleDataset().Columns)
	require.Len(t, widths, 3)
	assert.InDelta(t, widths[0]*2, widths[1], 0.0001)
	assert.InDelta(t, landscapeWidth, widths[0]+widths[1]+widths[2], 0.0001)
}
