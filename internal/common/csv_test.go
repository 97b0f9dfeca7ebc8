package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRow struct {
	Date   string `csv:"Completed Date"`
	Amount string `csv:"Amount"`
	Note   string `csv:"Note"`
}

func TestReadRecords(t *testing.T) {
	text := "a;b;c\n1;2;3\n\n4;5\n\"x\"y;z\n"
	got := ReadRecords(text, ';')

	require.Len(t, got.Rows, 4)
	assert.Equal(t, []string{"a", "b", "c"}, got.Rows[0])
	assert.Equal(t, []string{"4", "5"}, got.Rows[2])
	assert.Equal(t, 0, got.Rejected)
}

func TestReadRecords_QuotedDelimiters(t *testing.T) {
	text := "\"1234567890\";\"T\";\"1500,00\";\"HUF\"\n"
	got := ReadRecords(text, ';')
	require.Len(t, got.Rows, 1)
	assert.Equal(t, []string{"1234567890", "T", "1500,00", "HUF"}, got.Rows[0])
}

func TestFirstRecord(t *testing.T) {
	rec, err := FirstRecord("Type,Completed Date\nx,y\n", ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"Type", "Completed Date"}, rec)

	_, err = FirstRecord("", ',')
	assert.Error(t, err)
}

func TestHeaderLine(t *testing.T) {
	assert.Equal(t, "completed date description", HeaderLine([]string{" Completed Date ", "DESCRIPTION"}))
}

func TestUnmarshalRows(t *testing.T) {
	header := []string{" Completed Date", "Amount ", "Ignored"}
	rows := [][]string{
		{"2025-01-02", "-2.50", "x"},
		{"2025-01-03"},
		{"2025-01-04", "7", "y", "extra"},
	}

	got, err := UnmarshalRows[testRow](header, rows)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "2025-01-02", got[0].Date)
	assert.Equal(t, "-2.50", got[0].Amount)
	assert.Equal(t, "", got[0].Note)
	assert.Equal(t, "", got[1].Amount)
	assert.Equal(t, "7", got[2].Amount)
}

func TestUnmarshalRows_NoHeader(t *testing.T) {
	_, err := UnmarshalRows[testRow](nil, nil)
	assert.Error(t, err)
}
