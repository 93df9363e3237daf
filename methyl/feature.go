package methyl

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/seqprof/aggregate"
	"github.com/grailbio/seqprof/encoding/tabular"
	"github.com/grailbio/seqprof/report"
	"github.com/grailbio/seqprof/util"
)

// FeatureOpts configures FeatureMethylation.
type FeatureOpts struct {
	// BED is the feature file.
	BED string
	// BedGraph is the methylation signal, with a header line unless Sorted.
	BedGraph string
	// MinCov drops features with fewer calls.
	MinCov int64
	// Sorted means BED and BedGraph are already sorted, and BedGraph has no
	// header, so they are passed to Tools.MapSum as is.
	Sorted bool
	// KeepSorted keeps the sorted copies of the inputs.
	KeepSorted bool
	// TmpDir holds the intermediate files. If "", os.TempDir().
	TmpDir string
	// Tools sorts and joins. If nil, ExecTools{}.
	Tools Tools
}

// sortedName returns the name of the sorted copy of path:
// "<name>.sorted.<pid><ext>", where a compression suffix is dropped.
func sortedName(path string, pid int) string {
	base := filepath.Base(path)
	if fileio.DetermineType(base) == fileio.Gzip {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s.sorted.%d%s", strings.TrimSuffix(base, ext), pid, ext)
}

// feature keys a map-sum row. line keeps features with identical fields
// apart.
type feature struct {
	line   int
	fields string
}

// FeatureMethylation reports the percent methylation of every feature of
// opts.BED with at least opts.MinCov calls. Each output row is the feature's
// BED fields followed by its percent methylation ("NA" without calls), in
// sorted feature order. Intermediate files are removed when done, also on
// failure.
func FeatureMethylation(ctx context.Context, opts FeatureOpts, w report.Writer) (err error) {
	tools := opts.Tools
	if tools == nil {
		tools = ExecTools{}
	}
	tmpDir := opts.TmpDir
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	pid := os.Getpid()

	var tmpFiles []string
	defer func() {
		log.Printf("Cleaning up temporary files...")
		for _, path := range tmpFiles {
			if rerr := file.Remove(ctx, path); rerr != nil && !errors.Is(errors.NotExist, rerr) {
				log.Error.Printf("methyl: remove %s: %v", path, rerr)
			}
		}
	}()

	bed, signal := opts.BED, opts.BedGraph
	if !opts.Sorted {
		sortedSignal := filepath.Join(tmpDir, sortedName(signal, pid))
		sortedBED := filepath.Join(tmpDir, sortedName(bed, pid))
		if opts.KeepSorted {
			log.Printf("Keeping sorted files %s and %s", sortedSignal, sortedBED)
		} else {
			tmpFiles = append(tmpFiles, sortedSignal, sortedBED)
		}
		log.Printf("Sorting MethylDackel .bedGraph file: %s", signal)
		if err := tools.Sort(ctx, signal, sortedSignal, true); err != nil {
			return err
		}
		log.Printf("Sorting features .bed file: %s", bed)
		if err := tools.Sort(ctx, bed, sortedBED, false); err != nil {
			return err
		}
		bed, signal = sortedBED, sortedSignal
	}

	sum := filepath.Join(tmpDir, fmt.Sprintf("bedtools_map_sum.%d.tmp", pid))
	tmpFiles = append(tmpFiles, sum)
	log.Printf("Summing methylation over features...")
	if err := tools.MapSum(ctx, bed, signal, sum); err != nil {
		return err
	}

	log.Printf("Calculating percent methylation per feature...")
	t, err := sumFeatures(ctx, sum, opts.MinCov)
	if err != nil {
		return err
	}
	return report.Table(w, nil, t, report.InsertionOrder[feature],
		func(f feature, v aggregate.Value) []string {
			return append(strings.Split(f.fields, "\t"), FormatPercent(v.A, v.B))
		})
}

// parseSum parses a bedtools sum, which may be printed as a float.
func parseSum(s *tabular.Scanner, i int) (int64, error) {
	if v, err := s.Int64(i); err == nil {
		return v, nil
	}
	v, err := strconv.ParseFloat(s.String(i), 64)
	if err != nil || v < 0 || v != math.Trunc(v) {
		return 0, s.Errorf("field %d: %q is not a call count", i+1, s.String(i))
	}
	return int64(v), nil
}

// sumFeatures reads map-sum rows: the feature's fields followed by the
// methylated and unmethylated call sums.
func sumFeatures(ctx context.Context, path string, minCov int64) (t *aggregate.Table[feature], err error) {
	in, err := util.Open(ctx, path, util.OpenOpts{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	s := tabular.NewScanner(in, tabular.Opts{Name: path, MinFields: 5})
	t = aggregate.NewDiscovered[feature]()
	for s.Scan() {
		n := s.Len()
		m, err := parseSum(s, n-2)
		if err != nil {
			return nil, err
		}
		u, err := parseSum(s, n-1)
		if err != nil {
			return nil, err
		}
		if m+u < minCov {
			continue
		}
		f := feature{line: s.Line(), fields: strings.Join(s.Fields()[:n-2], "\t")}
		if err := t.Add(f, m, u); err != nil {
			return nil, err
		}
	}
	return t, s.Err()
}
