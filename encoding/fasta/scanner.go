// Package fasta reads genome sequence (FASTA) files one named sequence at a
// time. FASTA files consist of a number of named sequences that may be
// interrupted by newlines.  For example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Sequence names are the stretch of characters excluding spaces immediately
// after '>'. Any text after a space is ignored: '>chr1 A viral sequence'
// becomes 'chr1'.
package fasta

import (
	"io"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	biofasta "github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/pkg/errors"
)

// Record is one named sequence with its line breaks removed.
type Record struct {
	Name string
	Seq  string
}

// Scanner streams Records from FASTA data. It implements
// aggregate.Source[Record]. Thread compatible.
type Scanner struct {
	sc  *seqio.Scanner
	rec Record
	err error
}

// NewScanner creates a Scanner that reads FASTA data from r.
func NewScanner(r io.Reader) *Scanner {
	template := linear.NewSeq("", nil, alphabet.DNA)
	return &Scanner{sc: seqio.NewScanner(biofasta.NewReader(r, template))}
}

// Scan advances to the next sequence.
func (s *Scanner) Scan() bool {
	if s.err != nil || !s.sc.Next() {
		return false
	}
	seq, ok := s.sc.Seq().(*linear.Seq)
	if !ok {
		s.err = errors.Errorf("fasta: unexpected sequence type %T", s.sc.Seq())
		return false
	}
	s.rec = Record{
		Name: seq.Name(),
		Seq:  string(alphabet.LettersToBytes(seq.Seq)),
	}
	return true
}

// Record returns the current sequence.
func (s *Scanner) Record() Record { return s.rec }

// Err returns the error, if any, that stopped the scan.
func (s *Scanner) Err() error {
	if s.err != nil {
		return s.err
	}
	if err := s.sc.Error(); err != nil {
		// The biogo reader already prefixes its messages with "fasta:".
		return errors.WithStack(err)
	}
	return nil
}
