package methyl

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/seqprof/report"
	"github.com/grailbio/seqprof/util"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	pct, ok := Percent(3, 7)
	assert.True(t, ok)
	assert.Equal(t, 30.0, pct)
	_, ok = Percent(0, 0)
	assert.False(t, ok)

	assert.Equal(t, "30.0", FormatPercent(3, 7))
	assert.Equal(t, "100.0", FormatPercent(2, 0))
	assert.Equal(t, "NA", FormatPercent(0, 0))
}

func writeFile(t *testing.T, dir, name, data string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

const header = "track type=\"bedGraph\" description=\"methylation levels\"\n"

func TestContextCalls(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	files := ContextFiles{
		CG:  writeFile(t, tempDir, "CpG.bedGraph", header+"chr1\t10\t11\t30\t3\t7\nchr1\t20\t21\t50\t5\t5\n"),
		CHH: writeFile(t, tempDir, "CHH.bedGraph", header+"chr1\t12\t13\t0\t0\t90\n"),
	}
	calls, err := CountCalls(ctx, files)
	require.NoError(t, err)
	assert.Equal(t, []Context{CG, CHH}, calls.Keys())

	var buf bytes.Buffer
	require.NoError(t, WritePercentMethylation(report.NewTSV(&buf), calls))
	assert.Equal(t, "CG\t40.0\nCHH\t0.0\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteConversionRate(&buf, calls))
	assert.Equal(t, "CG Methylated/Total:\t 8 / 20\nCHH Methylated/Total:\t 0 / 90\nConversion Rate:\t "+
		report.Float(102.0/110*100)+"\n", buf.String())

	_, err = CountCalls(ctx, ContextFiles{})
	assert.True(t, util.IsFormatError(err))

	empty, err := CountCalls(ctx, ContextFiles{CHG: writeFile(t, tempDir, "CHG.bedGraph", header)})
	require.NoError(t, err)
	assert.Equal(t, "NA", ConversionRate(empty))
}

func TestSortedName(t *testing.T) {
	assert.Equal(t, "CpG.sorted.42.bedGraph", sortedName("/data/CpG.bedGraph", 42))
	assert.Equal(t, "CpG.sorted.42.bedGraph", sortedName("CpG.bedGraph.gz", 42))
	assert.Equal(t, "genes.sorted.7.bed", sortedName("genes.bed", 7))
}

const (
	featureBED = "chr2\t0\t100\tgeneC\n" +
		"chr1\t100\t200\tgeneB\n" +
		"chr1\t0\t50\tgeneA\n"
	signalBG = header +
		"chr1\t120\t121\t25\t1\t3\n" +
		"chr1\t10\t11\t30\t3\t7\n" +
		"chr1\t150\t151\t100\t4\t0\n" +
		"chr1\t60\t61\t100\t9\t0\n"
)

func TestInProcessTools(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	tools := InProcessTools{}

	bed := writeFile(t, tempDir, "genes.bed", featureBED)
	signal := writeFile(t, tempDir, "CpG.bedGraph", signalBG)
	sortedBED := filepath.Join(tempDir, "genes.sorted.bed")
	sortedSignal := filepath.Join(tempDir, "CpG.sorted.bedGraph")
	require.NoError(t, tools.Sort(ctx, bed, sortedBED, false))
	require.NoError(t, tools.Sort(ctx, signal, sortedSignal, true))

	got, err := os.ReadFile(sortedBED)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t0\t50\tgeneA\nchr1\t100\t200\tgeneB\nchr2\t0\t100\tgeneC\n", string(got))
	got, err = os.ReadFile(sortedSignal)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t10\t11\t30\t3\t7\nchr1\t60\t61\t100\t9\t0\nchr1\t120\t121\t25\t1\t3\nchr1\t150\t151\t100\t4\t0\n", string(got))

	sum := filepath.Join(tempDir, "sum.tmp")
	require.NoError(t, tools.MapSum(ctx, sortedBED, sortedSignal, sum))
	got, err = os.ReadFile(sum)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t0\t50\tgeneA\t3\t7\nchr1\t100\t200\tgeneB\t5\t3\nchr2\t0\t100\tgeneC\t0\t0\n", string(got))
}

func TestFeatureMethylation(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	tmpDir := filepath.Join(tempDir, "tmp")
	require.NoError(t, os.Mkdir(tmpDir, 0755))
	opts := FeatureOpts{
		BED:      writeFile(t, tempDir, "genes.bed", featureBED),
		BedGraph: writeFile(t, tempDir, "CpG.bedGraph", signalBG),
		TmpDir:   tmpDir,
		Tools:    InProcessTools{},
	}

	var buf bytes.Buffer
	require.NoError(t, FeatureMethylation(ctx, opts, report.NewTSV(&buf)))
	assert.Equal(t, "chr1\t0\t50\tgeneA\t30.0\nchr1\t100\t200\tgeneB\t62.5\nchr2\t0\t100\tgeneC\tNA\n", buf.String())
	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	opts.MinCov = 9
	opts.KeepSorted = true
	buf.Reset()
	require.NoError(t, FeatureMethylation(ctx, opts, report.NewTSV(&buf)))
	assert.Equal(t, "chr1\t0\t50\tgeneA\t30.0\n", buf.String())
	entries, err = os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// failingTools writes its outputs, then fails at MapSum.
type failingTools struct {
	InProcessTools
}

func (failingTools) MapSum(ctx context.Context, bed, signal, out string) error {
	if err := os.WriteFile(out, []byte("partial"), 0644); err != nil {
		return err
	}
	return fmt.Errorf("bedtools exited with status 1")
}

func TestFeatureMethylationCleansUpOnFailure(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	tmpDir := filepath.Join(tempDir, "tmp")
	require.NoError(t, os.Mkdir(tmpDir, 0755))
	opts := FeatureOpts{
		BED:      writeFile(t, tempDir, "genes.bed", featureBED),
		BedGraph: writeFile(t, tempDir, "CpG.bedGraph", signalBG),
		TmpDir:   tmpDir,
		Tools:    failingTools{},
	}
	var buf bytes.Buffer
	assert.Error(t, FeatureMethylation(ctx, opts, report.NewTSV(&buf)))
	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, buf.String())
}

// recordingTools records its calls and joins in memory.
type recordingTools struct {
	sorts       int
	bed, signal string
}

func (r *recordingTools) Sort(ctx context.Context, in, out string, skipHeader bool) error {
	r.sorts++
	return InProcessTools{}.Sort(ctx, in, out, skipHeader)
}

func (r *recordingTools) MapSum(ctx context.Context, bed, signal, out string) error {
	r.bed, r.signal = bed, signal
	return InProcessTools{}.MapSum(ctx, bed, signal, out)
}

func TestFeatureMethylationSortedInputs(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	tmpDir := filepath.Join(tempDir, "tmp")
	require.NoError(t, os.Mkdir(tmpDir, 0755))
	bed := writeFile(t, tempDir, "genes.sorted.bed", "chr1\t0\t50\tgeneA\nchr1\t100\t200\tgeneB\n")
	signal := writeFile(t, tempDir, "CpG.sorted.bedGraph", "chr1\t10\t11\t30\t3\t7\nchr1\t120\t121\t25\t1\t3\n")
	tools := &recordingTools{}
	opts := FeatureOpts{
		BED:      bed,
		BedGraph: signal,
		Sorted:   true,
		TmpDir:   tmpDir,
		Tools:    tools,
	}

	var buf bytes.Buffer
	require.NoError(t, FeatureMethylation(ctx, opts, report.NewTSV(&buf)))
	assert.Equal(t, "chr1\t0\t50\tgeneA\t30.0\nchr1\t100\t200\tgeneB\t25.0\n", buf.String())
	assert.Equal(t, 0, tools.sorts)
	assert.Equal(t, bed, tools.bed)
	assert.Equal(t, signal, tools.signal)
	for _, path := range []string{bed, signal} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExecTools(t *testing.T) {
	for _, tool := range []string{"sort", "bedtools"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not installed", tool)
		}
	}
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	tmpDir := filepath.Join(tempDir, "tmp")
	require.NoError(t, os.Mkdir(tmpDir, 0755))
	opts := FeatureOpts{
		BED:      writeFile(t, tempDir, "genes.bed", featureBED),
		BedGraph: writeFile(t, tempDir, "CpG.bedGraph", signalBG),
		TmpDir:   tmpDir,
		Tools:    ExecTools{},
	}
	var buf bytes.Buffer
	require.NoError(t, FeatureMethylation(ctx, opts, report.NewTSV(&buf)))
	assert.Equal(t, "chr1\t0\t50\tgeneA\t30.0\nchr1\t100\t200\tgeneB\t62.5\nchr2\t0\t100\tgeneC\tNA\n", buf.String())
}

func TestExecToolsFailure(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	tools := ExecTools{BedtoolsPath: filepath.Join(tempDir, "no-such-bedtools")}
	err := tools.MapSum(ctx, "a.bed", "b.bedGraph", filepath.Join(tempDir, "out"))
	assert.Error(t, err)
}
