package profile

import (
	"context"
	"strconv"

	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/seqprof/aggregate"
	"github.com/grailbio/seqprof/encoding/bamprovider"
	"github.com/grailbio/seqprof/interval"
	"github.com/grailbio/seqprof/report"
)

// LengthOpts configures a read-length profile.
type LengthOpts struct {
	Bounds
	// Dense reports every length in Bounds, including those no read has.
	// Otherwise only observed lengths are reported.
	Dense bool
}

// DefaultLengthOpts profiles every observed length.
var DefaultLengthOpts = LengthOpts{Bounds: AllLengths}

func newLengthTable(opts LengthOpts) *aggregate.Table[int] {
	if opts.Dense {
		return aggregate.DenseRange(opts.Min, opts.Max)
	}
	return aggregate.NewDiscovered[int]()
}

// SeqLengths counts the sequences of src by length.
func SeqLengths(src aggregate.Source[string], opts LengthOpts) (*aggregate.Table[int], error) {
	t := newLengthTable(opts)
	n, err := aggregate.Run(src, aggregate.Count(LengthIn(opts.Bounds)), t)
	log.Debug.Printf("profile: %d sequences, %d within [%d, %d]", n, t.Total().A, opts.Min, opts.Max)
	return t, err
}

// RecordSeq returns the read sequence of rec.
func RecordSeq(rec *sam.Record) string { return string(rec.Seq.Expand()) }

// recordLengthIn keys a BAM record by its query length without expanding its
// sequence.
func recordLengthIn(b Bounds) func(rec *sam.Record) (int, bool) {
	return func(rec *sam.Record) (int, bool) {
		n := rec.Seq.Length
		return n, b.Contains(n)
	}
}

// RecordLengths counts the records of src by query length.
func RecordLengths(src aggregate.Source[*sam.Record], opts LengthOpts) (*aggregate.Table[int], error) {
	t := newLengthTable(opts)
	_, err := aggregate.Run(src, aggregate.Count(recordLengthIn(opts.Bounds)), t)
	return t, err
}

// WriteLengths writes the "length count" report of t in ascending length
// order.
func WriteLengths(w report.Writer, t *aggregate.Table[int]) error {
	return report.Table(w, []string{"length", "count"}, t, report.AscendingOrder[int],
		func(k int, v aggregate.Value) []string {
			return []string{strconv.Itoa(k), report.Int(v.A)}
		})
}

// PlotLengths draws t as a bar chart saved to path.
func PlotLengths(path string, t *aggregate.Table[int]) error {
	keys := aggregate.Ascending(t)
	labels := make([]string, len(keys))
	values := make([]float64, len(keys))
	for i, k := range keys {
		labels[i] = strconv.Itoa(k)
		values[i] = float64(t.Get(k).A)
	}
	return report.BarChart(path, "Read length profile", "length", "count", labels, values)
}

// RegionLengths is the length profile of the reads overlapping one region.
type RegionLengths struct {
	Region  interval.Entry
	Lengths *aggregate.Table[int]
}

// LengthsByRegion computes a dense length profile for each region, in order,
// calling fn with each result as soon as it is complete.
func LengthsByRegion(ctx context.Context, p *bamprovider.Provider, regions []interval.Entry, b Bounds, fn func(RegionLengths) error) error {
	opts := LengthOpts{Bounds: b, Dense: true}
	for _, region := range regions {
		it, err := p.NewRegionIterator(ctx, region)
		if err != nil {
			return err
		}
		t, err := RecordLengths(it, opts)
		if cerr := it.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		if err := fn(RegionLengths{Region: region, Lengths: t}); err != nil {
			return err
		}
	}
	return nil
}

// WriteLengthsByRegion writes one row per region: the region label followed
// by the count of every length in b. The header row names the lengths.
func WriteLengthsByRegion(ctx context.Context, w report.Writer, p *bamprovider.Provider, regions []interval.Entry, b Bounds) error {
	header := []string{"feature"}
	for n := b.Min; n <= b.Max; n++ {
		header = append(header, strconv.Itoa(n))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	err := LengthsByRegion(ctx, p, regions, b, func(r RegionLengths) error {
		row := []string{r.Region.Label()}
		for _, k := range r.Lengths.Keys() {
			row = append(row, report.Int(r.Lengths.Get(k).A))
		}
		return w.Write(row)
	})
	if err != nil {
		return err
	}
	return w.Flush()
}
