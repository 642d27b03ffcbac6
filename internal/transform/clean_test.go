package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "\ufeffIDCOMMESSA;CLIENTE;VALORE_ORDINE_RAW;TOTALE_PREVENTIVO_COMMERCIALE_RAW\n" +
	"---;---;---;---\n" +
	"C-001;Acme;1234,50;1500,00\n" +
	"C-002;Globex;0;10\n" +
	"C-003;Initech;-5,5;\n" +
	"C-004;Umbrella;n/a;3\n" +
	"C-005;Hooli; 99,9 ;abc\n"

func TestClean(t *testing.T) {
	rows, stats, err := Clean(strings.NewReader(sampleCSV), CleanOptions{
		ClientID:      "T1",
		ProcessedDate: "2026-03-14",
		SkipRows:      1,
	})
	require.NoError(t, err)

	assert.Equal(t, Stats{Read: 6, Skipped: 1, Dropped: 3, Written: 2}, stats)
	require.Len(t, rows, 2)

	assert.Equal(t, "C-001", rows[0].OrderID)
	assert.InDelta(t, 1234.5, rows[0].OrderValue, 1e-9)
	require.NotNil(t, rows[0].QuoteTotal)
	assert.InDelta(t, 1500.0, *rows[0].QuoteTotal, 1e-9)
	assert.Equal(t, "T1", rows[0].ClientIDFK)
	assert.Equal(t, "2026-03-14", rows[0].ProcessedDate)

	assert.Equal(t, "C-005", rows[1].OrderID)
	assert.InDelta(t, 99.9, rows[1].OrderValue, 1e-9)
	assert.Nil(t, rows[1].QuoteTotal)
}

func TestCleanWithoutSkipDropsJunkRow(t *testing.T) {
	_, stats, err := Clean(strings.NewReader(sampleCSV), CleanOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 4, stats.Dropped)
}

func TestCleanOptionalQuoteColumn(t *testing.T) {
	rows, _, err := Clean(strings.NewReader("IDCOMMESSA;VALORE_ORDINE_RAW\nA;1,5\n"), CleanOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].QuoteTotal)
}

func TestCleanMissingColumns(t *testing.T) {
	_, _, err := Clean(strings.NewReader("IDCOMMESSA;OTHER\nA;1\n"), CleanOptions{})
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, _, err = Clean(strings.NewReader("VALORE_ORDINE_RAW\n1\n"), CleanOptions{})
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestCleanEmptyInput(t *testing.T) {
	rows, stats, err := Clean(strings.NewReader(""), CleanOptions{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, stats.Read)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1234,50", 1234.5, true},
		{"12.5", 12.5, true},
		{" 7 ", 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1.234,56", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}
