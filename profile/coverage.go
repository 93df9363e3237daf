package profile

import (
	"fmt"
	"io"

	"github.com/grailbio/seqprof/aggregate"
	"github.com/grailbio/seqprof/encoding/fasta"
	"github.com/grailbio/seqprof/encoding/tabular"
	"github.com/grailbio/seqprof/report"
	"github.com/grailbio/seqprof/util"
)

// ZeroPolicy decides what XCoverage does with an empty genome.
type ZeroPolicy int

const (
	// ZeroFail makes an empty genome an error.
	ZeroFail ZeroPolicy = iota
	// ZeroNA reports the coverage of an empty genome as "NA".
	ZeroNA
)

// ParseZeroPolicy parses "fail" or "na".
func ParseZeroPolicy(s string) (ZeroPolicy, error) {
	switch s {
	case "fail":
		return ZeroFail, nil
	case "na", "NA":
		return ZeroNA, nil
	}
	return ZeroFail, fmt.Errorf("unknown zero-genome policy %q, want fail or na", s)
}

// Coverage summarizes sequencing depth over a genome.
type Coverage struct {
	GenomeSize int64
	TotalDepth int64
}

const (
	genomeKey = "genome"
	depthKey  = "depth"
)

// GenomeSize sums the sequence lengths of src.
func GenomeSize(src aggregate.Source[fasta.Record]) (int64, error) {
	t := aggregate.NewSeeded([]string{genomeKey})
	_, err := aggregate.Run(src, func(rec fasta.Record, emit func(string, aggregate.Value) error) error {
		return emit(genomeKey, aggregate.Value{A: int64(len(rec.Seq))})
	}, t)
	return t.Get(genomeKey).A, err
}

// TotalDepth sums (end - start) * depth over the rows of a per-interval
// depth file such as mosdepth's per-base.bed.gz. name identifies r in error
// messages.
func TotalDepth(r io.Reader, name string) (int64, error) {
	s := tabular.NewScanner(r, tabular.Opts{Name: name, MinFields: 4, MaxFields: 4})
	t := aggregate.NewSeeded([]string{depthKey})
	for s.Scan() {
		start, err := s.Int64(1)
		if err != nil {
			return 0, err
		}
		end, err := s.Int64(2)
		if err != nil {
			return 0, err
		}
		depth, err := s.Int64(3)
		if err != nil {
			return 0, err
		}
		if end < start || depth < 0 {
			return 0, s.Errorf("invalid depth row [%d, %d) x %d", start, end, depth)
		}
		if err := t.Add(depthKey, (end-start)*depth, 0); err != nil {
			return 0, err
		}
	}
	return t.Get(depthKey).A, s.Err()
}

// X returns TotalDepth / GenomeSize, formatted. An empty genome is an error
// under ZeroFail and "NA" under ZeroNA.
func (c Coverage) X(policy ZeroPolicy) (string, error) {
	if c.GenomeSize == 0 {
		if policy == ZeroNA {
			return "NA", nil
		}
		return "", util.FormatErrorf("genome size is zero, cannot compute coverage")
	}
	return report.Float(float64(c.TotalDepth) / float64(c.GenomeSize)), nil
}

// WriteCoverage prints the genome size, total depth and X coverage of c.
func WriteCoverage(w io.Writer, c Coverage, policy ZeroPolicy) error {
	x, err := c.X(policy)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Genome Size: %d\nTotal Depth: %d\nX Coverage: %s\n", c.GenomeSize, c.TotalDepth, x)
	return err
}
