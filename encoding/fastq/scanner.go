package fastq

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var (
	// ErrShort is returned when a truncated FASTQ file is encountered.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.New("invalid FASTQ file")
)

// maxLineSize bounds the length of a single FASTQ line. Long-read data can
// exceed bufio.Scanner's 64KiB default.
const maxLineSize = 64 << 20

// A Read is a FASTQ read, comprising an ID, sequence, line 3
// ("unknown"), and a quality string.
type Read struct {
	ID, Seq, Unk, Qual string
}

var errEOF = errors.New("eof")

// Scanner provides a convenient interface for reading FASTQ read
// data. The Scan method returns the next read, returning a boolean
// indicating whether the read succeeded. Scanners are not
// threadsafe.
//
// A strict Scanner (NewScanner) requires ID lines to begin with "@" and line 3
// to begin with "+", and reports a truncated trailing read as ErrShort.
//
// A lenient Scanner (NewLenientScanner) only relies on the 4-line framing: it
// performs no validation, trims surrounding whitespace from every line, and
// silently drops a trailing partial read.
type Scanner struct {
	b       *bufio.Scanner
	err     error
	fields  Field
	lenient bool
}

// Field enumerates FASTQ fields. It is used to specify fields to read in
// NewScanner.
type Field uint

const (
	// ID causes the Read.ID field to be filled
	ID Field = 1 << iota
	// Seq causes the Read.Seq field to be filled
	Seq
	// Unk causes the Read.Unk field to be filled
	Unk
	// Qual causes the Read.Qual field to be filled
	Qual
	// All equals ID|Seq|Unk|Qual.
	All = ID | Seq | Unk | Qual
)

func newBufScanner(r io.Reader) *bufio.Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(nil, maxLineSize)
	return b
}

// NewScanner constructs a new strict Scanner that reads raw FASTQ data from
// the provided reader. Fields is a bitset of the fields to read. A typical
// value would be All or ID|Seq|Qual.
func NewScanner(r io.Reader, fields Field) *Scanner {
	return &Scanner{b: newBufScanner(r), fields: fields}
}

// NewLenientScanner constructs a Scanner that trusts the 4-line framing of
// its input. See Scanner.
func NewLenientScanner(r io.Reader, fields Field) *Scanner {
	return &Scanner{b: newBufScanner(r), fields: fields, lenient: true}
}

// Scan the next read into the provided read. Scan returns a boolean
// indicating whether the scan succeeded. Once Scan returns false, it
// never returns true again. Upon completion, the user should check
// the Err method to determine whether scanning stopped because of an
// error or because the end of the stream was reached.
func (f *Scanner) Scan(read *Read) bool {
	if f.err != nil {
		return false
	}
	if !f.b.Scan() {
		if f.err = f.b.Err(); f.err == nil {
			f.err = errEOF
		}
		return false
	}
	id := f.line()
	if !f.lenient && (len(id) == 0 || id[0] != '@') {
		f.err = ErrInvalid
		return false
	}
	if f.fields&ID != 0 {
		read.ID = string(id)
	}
	if !f.scan() {
		return false
	}
	if f.fields&Seq != 0 {
		read.Seq = string(f.line())
	}
	if !f.scan() {
		return false
	}
	unk := f.line()
	if !f.lenient && (len(unk) == 0 || unk[0] != '+') {
		f.err = ErrInvalid
		return false
	}
	if f.fields&Unk != 0 {
		read.Unk = string(unk)
	}
	if !f.scan() {
		return false
	}
	if f.fields&Qual != 0 {
		read.Qual = string(f.line())
	}
	return true
}

func (f *Scanner) line() []byte {
	if f.lenient {
		return bytes.TrimSpace(f.b.Bytes())
	}
	return f.b.Bytes()
}

func (f *Scanner) scan() bool {
	ok := f.b.Scan()
	if !ok {
		if f.err = f.b.Err(); f.err == nil {
			f.err = ErrShort
			if f.lenient {
				f.err = errEOF
			}
		}
	}
	return ok
}

// Err returns the scanning error, if any.
func (f *Scanner) Err() error {
	if f.err == errEOF {
		return nil
	}
	return f.err
}

// SeqSource adapts a lenient Scanner to a stream of read sequences. It
// implements aggregate.Source[string].
type SeqSource struct {
	s    *Scanner
	read Read
	n    int
}

// NewSeqSource creates a SeqSource reading FASTQ data from r.
func NewSeqSource(r io.Reader) *SeqSource {
	return &SeqSource{s: NewLenientScanner(r, Seq)}
}

// Scan advances to the next complete read.
func (s *SeqSource) Scan() bool {
	if !s.s.Scan(&s.read) {
		return false
	}
	s.n++
	return true
}

// Record returns the sequence of the current read.
func (s *SeqSource) Record() string { return s.read.Seq }

// Err returns the scanning error, if any.
func (s *SeqSource) Err() error { return s.s.Err() }

// N returns the number of reads scanned so far.
func (s *SeqSource) N() int { return s.n }
