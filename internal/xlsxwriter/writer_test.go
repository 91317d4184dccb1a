package xlsxwriter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ratefilter/internal/types"
)

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{sheet}, f.GetSheetList())

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, w.Write(types.OutputRecord{Name: "A", BillingCode: "100", AvgRate: 15}))
	require.NoError(t, w.Write(types.OutputRecord{Name: "Visit, extended", BillingCode: "99215", AvgRate: 27.5}))
	require.Equal(t, 2, w.Rows())
	require.NoError(t, w.Flush())

	rows := readRows(t, buf.Bytes(), DefaultSheetName)
	require.Equal(t, [][]string{
		{"name", "billing_code", "avg_rate"},
		{"A", "100", "15"},
		{"Visit, extended", "99215", "27.5"},
	}, rows)
}

func TestWriter_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, Options{SheetName: "empty", Precision: -1})
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	rows := readRows(t, buf.Bytes(), "empty")
	require.Equal(t, [][]string{{"name", "billing_code", "avg_rate"}}, rows)
	require.Equal(t, 0, w.Rows())
}

func TestWriter_Precision(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, Options{Precision: 1})
	require.NoError(t, err)

	require.NoError(t, w.Write(types.OutputRecord{Name: "A", BillingCode: "1", AvgRate: 10.0 / 3.0}))
	require.NoError(t, w.Flush())

	rows := readRows(t, buf.Bytes(), DefaultSheetName)
	require.Equal(t, "3.3", rows[1][2])
}

func TestWriter_WriteAfterFlush(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	require.NoError(t, w.Flush())

	require.Error(t, w.Write(types.OutputRecord{Name: "A"}))
}
