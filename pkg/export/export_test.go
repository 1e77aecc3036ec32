package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterTable() Table {
	return Table{
		Headers: []string{"Student Name", "Grade Level"},
		Rows: [][]string{
			{"Ada Lovelace", "11"},
			{"Smith, Jo", "9"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(rosterTable())
	require.NoError(t, err)

	assert.Equal(t, "Student Name,Grade Level\nAda Lovelace,11\n\"Smith, Jo\",9\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}

func TestTableRejectsRaggedRows(t *testing.T) {
	table := Table{
		Headers: []string{"Student Name", "Grade Level"},
		Rows:    [][]string{{"Ada", "10"}, {"Alan", "11", "extra"}},
	}

	_, err := NewCSVExporter().Render(table)
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(table, "", "")
	assert.Error(t, err)
}

func TestCSVImporterSkipsHeaderAndBlankRows(t *testing.T) {
	input := "name,grade_level\nAda, 11\n\n,\nGrace,12\n"

	records, err := NewCSVImporter(2, 0).Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{Line: 2, Fields: []string{"Ada", "11"}}, records[0])
	assert.Equal(t, 5, records[1].Line)
}

func TestCSVImporterReportsShortRows(t *testing.T) {
	_, err := NewCSVImporter(2, 0).Read(strings.NewReader("name,grade\nAda\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestCSVImporterRowLimit(t *testing.T) {
	_, err := NewCSVImporter(2, 1).Read(strings.NewReader("name,grade\nA,1\nB,2\n"))
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(rosterTable(), "Chapter roster", "2 students")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
