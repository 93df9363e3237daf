package profile

import (
	"bufio"
	"fmt"
	"io"

	"github.com/biogo/biogo/alphabet"
	biofasta "github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/grailbio/seqprof/aggregate"
	"github.com/grailbio/seqprof/encoding/fasta"
	"github.com/grailbio/seqprof/interval"
)

// FASTALineWidth is the number of bases per line written by GetSeqByBED.
const FASTALineWidth = 80

// regionID names the sequence extracted for r: "chr:start-end_name" with a
// 1-based start, without "_name" when r is unnamed.
func regionID(r interval.Entry) string {
	id := fmt.Sprintf("%s:%d-%d", r.ChrName, r.Start0+1, r.End)
	if r.Name != "" {
		id += "_" + r.Name
	}
	return id
}

// GetSeqByBED writes, as FASTA, the subsequence of each region taken from the
// matching sequence of src. Output follows the order of src, then the order
// of regions within a chromosome. Regions extending past the end of their
// sequence are truncated, and regions on chromosomes absent from src produce
// nothing.
func GetSeqByBED(src aggregate.Source[fasta.Record], regions []interval.Entry, w io.Writer) error {
	byChr := map[string][]interval.Entry{}
	for _, r := range regions {
		byChr[r.ChrName] = append(byChr[r.ChrName], r)
	}
	out := bufio.NewWriter(w)
	fw := biofasta.NewWriter(out, FASTALineWidth)
	for src.Scan() {
		rec := src.Record()
		for _, r := range byChr[rec.Name] {
			start, end := int(r.Start0), int(r.End)
			if end > len(rec.Seq) {
				end = len(rec.Seq)
			}
			if start > end {
				start = end
			}
			s := linear.NewSeq(regionID(r), alphabet.BytesToLetters([]byte(rec.Seq[start:end])), alphabet.DNA)
			if _, err := fw.Write(s); err != nil {
				return err
			}
		}
	}
	if err := src.Err(); err != nil {
		return err
	}
	return out.Flush()
}
