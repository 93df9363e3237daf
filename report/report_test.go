package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/seqprof/aggregate"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func lengthRow(k int, v aggregate.Value) []string {
	return []string{Int(int64(k)), Int(v.A)}
}

func TestTableTSV(t *testing.T) {
	table := aggregate.NewDiscovered[int]()
	for _, n := range []int{30, 10, 30, 20} {
		require.NoError(t, table.Increment(n))
	}
	var buf bytes.Buffer
	require.NoError(t, Table(NewTSV(&buf), []string{"length", "count"}, table, AscendingOrder[int], lengthRow))
	assert.Equal(t, "length\tcount\n10\t1\n20\t1\n30\t2\n", buf.String())

	buf.Reset()
	require.NoError(t, Table(NewTSV(&buf), nil, table, InsertionOrder[int], lengthRow))
	assert.Equal(t, "30\t2\n10\t1\n20\t1\n", buf.String())
}

func TestTableCSV(t *testing.T) {
	table := aggregate.NewSeeded([]string{"A", "T", "C", "G"})
	require.NoError(t, table.Increment("G"))
	var buf bytes.Buffer
	row := func(k string, v aggregate.Value) []string { return []string{k, Int(v.A)} }
	require.NoError(t, Table(NewCSV(&buf), []string{"base", "count"}, table, InsertionOrder[string], row))
	assert.Equal(t, "base,count\nA,0\nT,0\nC,0\nG,1\n", buf.String())
}

func TestXLSXAndMulti(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "lengths.xlsx")
	x, err := NewXLSX(path, "lengths")
	require.NoError(t, err)

	var buf bytes.Buffer
	w := Multi(NewTSV(&buf), x)
	require.NoError(t, w.Write([]string{"length", "count"}))
	require.NoError(t, w.Write([]string{"18", "4"}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "length\tcount\n18\t4\n", buf.String())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close() // nolint: errcheck
	v, err := f.GetCellValue("lengths", "A1")
	require.NoError(t, err)
	assert.Equal(t, "length", v)
	v, err = f.GetCellValue("lengths", "B2")
	require.NoError(t, err)
	assert.Equal(t, "4", v)
}

func TestBarChart(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "lengths.png")
	require.NoError(t, BarChart(path, "Read lengths", "length", "count",
		[]string{"18", "19", "20"}, []float64{4, 0, 2}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.Size() > 0)

	assert.Error(t, BarChart(path, "", "", "", []string{"18"}, nil))
}

func TestFormat(t *testing.T) {
	for _, tt := range []struct {
		v    float64
		want string
	}{
		{30, "30.0"},
		{0, "0.0"},
		{2.5, "2.5"},
		{100.0 / 3, "33.333333333333336"},
		{1.0 / 3, "0.3333333333333333"},
		{1e-5, "1e-05"},
		{1e16, "1e+16"},
	} {
		assert.Equal(t, tt.want, Float(tt.v), "%v", tt.v)
	}
	assert.Equal(t, "42", Int(42))
}
