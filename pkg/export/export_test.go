package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:       "Reports by category",
		GeneratedAt: time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC),
		Headers:     []string{"Group", "Name", "Count"},
		Rows: []map[string]string{
			{"Group": "category", "Name": "Clothing & Apparel", "Count": "3"},
			{"Group": "location", "Name": "Unspecified", "Count": "1"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Group,Name,Count\ncategory,Clothing & Apparel,3\nlocation,Unspecified,1\n", string(out))
}

func TestCSVExporterNeutralisesFormulas(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Count"},
		Rows:    []map[string]string{{"Name": "=HYPERLINK(\"x\")", "Count": "-1"}, {"Name": "Library"}},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Name,Count\n\"'=HYPERLINK(\"\"x\"\")\",'-1\nLibrary,\n", string(out))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestForFormat(t *testing.T) {
	e, err := ForFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, "pdf", e.Extension())

	e, err = ForFormat("")
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", e.ContentType())

	_, err = ForFormat("xlsx")
	assert.Error(t, err)
}
