package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/telemetry"
)

func TestTableData(t *testing.T) {
	rows := []query.Row{
		{"name": "ada", "id": 1},
		{"id": int64(2), "name": []byte("bob"), "email": nil},
	}

	headers, cells := TableData(rows)
	assert.Equal(t, []string{"email", "id", "name"}, headers)
	assert.Equal(t, [][]string{
		{NullText, "1", "ada"},
		{NullText, "2", "bob"},
	}, cells)

	headers, cells = TableData(rows, "name")
	assert.Equal(t, []string{"name"}, headers)
	assert.Equal(t, [][]string{{"ada"}, {"bob"}}, cells)
}

func TestWriteStats(t *testing.T) {
	c := telemetry.NewCollector()
	c.Record("SELECT", "SELECT 1", 2*time.Millisecond, nil)

	var buf bytes.Buffer
	WriteStats(&buf, c.Snapshot())
	assert.Contains(t, buf.String(), "SELECT")
	assert.Contains(t, buf.String(), "total       1")
}

func TestWriteRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRows(&buf, []query.Row{{"id": 1, "name": "ada"}}))
	assert.Contains(t, buf.String(), "ada")

	buf.Reset()
	require.NoError(t, WriteRows(&buf, nil))
	assert.Contains(t, buf.String(), "(no rows)")
}
