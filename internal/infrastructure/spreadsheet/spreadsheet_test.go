package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestWriterAndReader_RoundTripXLSX(t *testing.T) {
	data, err := NewWriter().WriteSheet("Satışlar",
		[]string{"Sözleşme No", "Müşteri", "Liste Fiyatı"},
		[][]any{
			{"A-1", "Ayşe Yılmaz", 1250000.5},
			{"A-2", "Mehmet Kaya", 980000},
		})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Satışlar"}, f.GetSheetList())
	require.NoError(t, f.Close())

	sheet, err := NewReader().Read("satislar.XLSX", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Sözleşme No", "Müşteri", "Liste Fiyatı"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, 2, sheet.Rows[0].Number)
	assert.Equal(t, "Ayşe Yılmaz", sheet.Rows[0].Cell(1))
	assert.Equal(t, "1250000.5", sheet.Rows[0].Cell(2))
	assert.Equal(t, "980000", sheet.Rows[1].Cell(2))
}

func TestReader_CSV(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "utf8 with bom and semicolons",
			data: append([]byte{0xEF, 0xBB, 0xBF}, []byte("Sözleşme No;Müşteri\n\nA-1;Ayşe Yılmaz\n")...),
		},
		{
			name: "comma delimited",
			data: []byte("Sözleşme No,Müşteri\n,\nA-1, Ayşe Yılmaz \n"),
		},
		{
			name: "windows-1254",
			data: mustEncode(t, "Sözleşme No;Müşteri\r\n\r\nA-1;Ayşe Yılmaz\r\n"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := NewReader().Read("import.csv", bytes.NewReader(tt.data))
			require.NoError(t, err)
			assert.Equal(t, []string{"Sözleşme No", "Müşteri"}, sheet.Headers)
			require.Len(t, sheet.Rows, 1)
			assert.Equal(t, 3, sheet.Rows[0].Number)
			assert.Equal(t, "Ayşe Yılmaz", sheet.Rows[0].Cell(1))
		})
	}
}

func TestReader_Errors(t *testing.T) {
	r := NewReader(WithMaxBytes(16))

	_, err := r.Read("satis.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = r.Read("satis.csv", strings.NewReader(strings.Repeat("a", 17)))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = r.Read("satis.csv", strings.NewReader("\n \n"))
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = r.Read("satis.xlsx", strings.NewReader("not a zip"))
	assert.Error(t, err)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', detectDelimiter([]byte("a;b;c\n1,5;2;3")))
	assert.Equal(t, ',', detectDelimiter([]byte("a,b,c")))
	assert.Equal(t, '\t', detectDelimiter([]byte("a\tb\tc")))
	assert.Equal(t, ',', detectDelimiter([]byte("tek")))
}

func mustEncode(t *testing.T, s string) []byte {
	t.Helper()
	out, err := charmap.Windows1254.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}
