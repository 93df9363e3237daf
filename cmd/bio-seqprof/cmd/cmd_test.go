package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"v.io/x/lib/cmdline"
)

func run(t *testing.T, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	env := &cmdline.Env{Stdout: &stdout, Stderr: &stderr, Vars: map[string]string{}}
	err := cmdline.ParseAndRun(newRoot(), env, args)
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, data string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func fastqOf(seqs ...string) string {
	var b strings.Builder
	for i, seq := range seqs {
		b.WriteString("@r" + string(rune('a'+i)) + "\n" + seq + "\n+\n" + strings.Repeat("I", len(seq)) + "\n")
	}
	return b.String()
}

func TestReadCommands(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	var seqs []string
	for _, n := range []int{10, 10, 12, 10, 15, 12, 10, 9} {
		seqs = append(seqs, strings.Repeat("A", n))
	}
	reads := writeFile(t, tempDir, "reads.fastq", fastqOf(seqs...))
	ends := writeFile(t, tempDir, "ends.fastq", fastqOf("ACGT", "TTTT", "GCGC"))
	qual := strings.Repeat("I", 12)
	kept := "@rc\n" + seqs[2] + "\n+\n" + qual + "\n@rf\n" + seqs[5] + "\n+\n" + qual + "\n"

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"fastq-lengths", "-n", "10", "--max_length", "12", reads}, "length\tcount\n10\t4\n11\t0\n12\t2\n"},
		{[]string{"fastq-lengths", reads}, "length\tcount\n9\t1\n10\t4\n12\t2\n15\t1\n"},
		{[]string{"fastq-unique", "-m", "10", ends}, "sequence\tcount\nACGT\t1\nTTTT\t1\nGCGC\t1\n"},
		{[]string{"end-bias", ends}, "end,A,T,C,G\n5_prime,1,1,0,1\n3_prime,0,2,1,0\n"},
		{[]string{"position-freq", "--length", "4", ends}, "position,A,T,C,G\n1,1,1,0,1\n2,0,1,2,0\n3,0,1,0,2\n4,0,2,1,0\n"},
		{[]string{"length-filter", "--min", "11", "--max", "12", reads}, kept},
	}
	for _, test := range tests {
		got, err := run(t, test.args...)
		require.NoError(t, err, "%v", test.args)
		assert.Equal(t, test.want, got, "%v", test.args)
	}
}

func TestReadCommandErrors(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	reads := writeFile(t, tempDir, "reads.fastq", fastqOf("ACGT"))
	for _, args := range [][]string{
		{"fastq-lengths", "-n", "12", "-m", "10", reads},
		{"bam-lengths", "-n", "1", "-m", "10", reads},
		{"bam-lengths", reads},
		{"position-freq", reads},
		{"length-filter", "-n", "1", reads},
		{"fastq-unique", filepath.Join(tempDir, "missing.fastq")},
		{"fastq-unique", reads, reads},
	} {
		_, err := run(t, args...)
		assert.Error(t, err, "%v", args)
	}
}

// writeBAM writes coordinate-sorted chr1 reads of the given (position, length)
// pairs to dir/name. Every base is C.
func writeBAM(t *testing.T, dir, name string, reads ...[2]int) string {
	ref, err := sam.NewReference("chr1", "", "", 10000, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{ref})
	require.NoError(t, err)
	header.SortOrder = sam.Coordinate
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := bam.NewWriter(f, header, 1)
	require.NoError(t, err)
	for i, r := range reads {
		pos, n := r[0], r[1]
		rec, err := sam.NewRecord("r"+string(rune('a'+i)), ref, nil, pos, -1, 0, 60,
			[]sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, n)},
			[]byte(strings.Repeat("C", n)), bytes.Repeat([]byte{30}, n), nil)
		require.NoError(t, err)
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestBAMCommands(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	reads := writeBAM(t, tempDir, "reads.bam", [2]int{100, 20}, [2]int{150, 22}, [2]int{200, 20}, [2]int{5000, 21}, [2]int{5010, 40})
	bed := writeFile(t, tempDir, "regions.bed", "chr1\t0\t1000\tnear\nchr1\t4990\t5020\n")
	c := func(n int) string { return strings.Repeat("C", n) }

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"bam-lengths", "-n", "20", "-m", "22", reads}, "length\tcount\n20\t2\n21\t1\n22\t1\n"},
		{[]string{"bam-lengths", "-n", "20", "-m", "22", "-region", "chr1:1-1000", reads}, "length\tcount\n20\t2\n21\t0\n22\t1\n"},
		{[]string{"bam-unique", "-n", "20", "-m", "22", reads},
			"sequence\tcount\n" + c(20) + "\t2\n" + c(22) + "\t1\n" + c(21) + "\t1\n"},
		{[]string{"bam-unique", "-region", "chr1:5001-5100", reads},
			"sequence\tcount\n" + c(21) + "\t1\n" + c(40) + "\t1\n"},
		{[]string{"bam-lengths-by-bed", "-n", "20", "-m", "22", "-b", bed, reads},
			"feature\t20\t21\t22\nnear\t2\t0\t1\nchr1:4991-5020\t0\t1\t0\n"},
	}
	for _, test := range tests {
		got, err := run(t, test.args...)
		require.NoError(t, err, "%v", test.args)
		assert.Equal(t, test.want, got, "%v", test.args)
	}
	_, err := os.Stat(reads + ".bai")
	assert.NoError(t, err)

	_, err = run(t, "bam-lengths", "-n", "20", "-m", "22", "-region", "chr9", reads)
	assert.Error(t, err)
}

const bedGraphHeader = "track type=\"bedGraph\"\n"

func TestMethylationCommands(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	cg := writeFile(t, tempDir, "CpG.bedGraph", bedGraphHeader+"chr1\t10\t11\t30\t3\t7\nchr1\t120\t121\t100\t5\t5\n")
	chh := writeFile(t, tempDir, "CHH.bedGraph", bedGraphHeader+"chr1\t12\t13\t0\t0\t90\n")

	got, err := run(t, "percent-methylation", "--CG", cg, "--CHH", chh)
	require.NoError(t, err)
	assert.Equal(t, "CG\t40.0\nCHH\t0.0\n", got)

	got, err = run(t, "conversion-rate", "--CG", cg)
	require.NoError(t, err)
	assert.Equal(t, "CG Methylated/Total:\t 8 / 20\nConversion Rate:\t 60.0\n", got)

	_, err = run(t, "conversion-rate")
	assert.Error(t, err)

	bed := writeFile(t, tempDir, "genes.bed", "chr1\t100\t200\tgeneB\nchr1\t0\t50\tgeneA\n")
	tmpDir := filepath.Join(tempDir, "tmp")
	require.NoError(t, os.Mkdir(tmpDir, 0755))
	got, err = run(t, "methylation-by-bed", "-inprocess", "-tmpdir", tmpDir, "-b", bed, "--bedGraph", cg, "--mincov", "1")
	require.NoError(t, err)
	assert.Equal(t, "chr1\t0\t50\tgeneA\t30.0\nchr1\t100\t200\tgeneB\t50.0\n", got)

	got, err = run(t, "methylation-by-bed", "-inprocess", "-tmpdir", tmpDir, "-b", bed, "-g", cg, "-m", "11")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	_, err = run(t, "methylation-by-bed", "-b", bed)
	assert.Error(t, err)
}

func TestGenomeCommands(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	genome := writeFile(t, tempDir, "genome.fa", ">chr1 first\nACGTA\nCGTAC\n>chr2\nGGGCC\n")
	depth := writeFile(t, tempDir, "per-base.bed", "chr1\t0\t10\t2\nchr2\t0\t5\t2\n")
	empty := writeFile(t, tempDir, "empty.fa", "")

	got, err := run(t, "coverage", "-f", genome, "--mosdepth", depth)
	require.NoError(t, err)
	assert.Equal(t, "Genome Size: 15\nTotal Depth: 30\nX Coverage: 2.0\n", got)

	_, err = run(t, "coverage", "-f", empty, "-m", depth)
	assert.Error(t, err)
	got, err = run(t, "coverage", "-f", empty, "-m", depth, "-zero-genome", "na")
	require.NoError(t, err)
	assert.Equal(t, "Genome Size: 0\nTotal Depth: 30\nX Coverage: NA\n", got)

	bed := writeFile(t, tempDir, "regions.bed", "chr1\t2\t6\tr1\nchr2\t0\t3\n")
	got, err = run(t, "getseq-by-bed", "--bed", bed, genome)
	require.NoError(t, err)
	assert.Equal(t, ">chr1:3-6_r1\nGTAC\n>chr2:1-3\nGGG\n", got)
}
