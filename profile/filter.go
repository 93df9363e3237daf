package profile

import (
	"io"

	"github.com/grailbio/seqprof/encoding/fastq"
)

// FilterLengths copies the FASTQ reads of r whose sequence length is within b
// to w. Lines are written with surrounding whitespace removed. It returns the
// number of reads read and kept.
func FilterLengths(r io.Reader, w io.Writer, b Bounds) (total, kept int, err error) {
	s := fastq.NewLenientScanner(r, fastq.All)
	fw := fastq.NewWriter(w)
	var read fastq.Read
	for s.Scan(&read) {
		total++
		if !b.Contains(len(read.Seq)) {
			continue
		}
		kept++
		if err := fw.Write(&read); err != nil {
			return total, kept, err
		}
	}
	if err := s.Err(); err != nil {
		return total, kept, err
	}
	return total, kept, fw.Flush()
}
