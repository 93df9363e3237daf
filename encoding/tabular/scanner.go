// Package tabular reads line-oriented, whitespace-delimited text such as BED,
// bedGraph and methylation context reports.
package tabular

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	gunsafe "github.com/grailbio/base/unsafe"
)

// Opts controls a Scanner.
type Opts struct {
	// Name identifies the input in error messages, usually its path.
	Name string
	// MinFields is the number of fields every non-blank line must have.
	MinFields int
	// MaxFields caps the number of fields split out of a line; the rest of the
	// line is ignored. Zero means no cap.
	MaxFields int
	// SkipHeader drops exactly one leading line, whatever its content.
	SkipHeader bool
	// SkipComments drops lines starting with '#', "track" or "browser".
	SkipComments bool
}

const maxLineSize = 16 << 20

// Scanner splits a stream into rows of fields. Runs of characters <= ' '
// delimit fields, so both tab- and space-separated files are accepted. Blank
// lines are skipped. Field slices are valid until the next call to Scan.
// Thread compatible.
type Scanner struct {
	b      *bufio.Scanner
	opts   Opts
	lineNo int
	fields [][]byte
	err    error
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader, opts Opts) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(nil, maxLineSize)
	return &Scanner{b: b, opts: opts}
}

// getTokens appends the fields of line to tokens, stopping after max fields
// when max > 0. Any (group of) characters <= ' ' is treated as a delimiter.
func getTokens(tokens [][]byte, line []byte, max int) [][]byte {
	posEnd := 0
	lineLen := len(line)
	for max <= 0 || len(tokens) < max {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if line[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			break
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if line[posEnd] <= ' ' {
				break
			}
		}
		tokens = append(tokens, line[pos:posEnd])
	}
	return tokens
}

func isComment(fields [][]byte) bool {
	first := gunsafe.BytesToString(fields[0])
	return first[0] == '#' || first == "track" || first == "browser"
}

// Scan advances to the next non-blank row. It returns false at the end of the
// input or on error; check Err to distinguish the two.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.b.Scan() {
		s.lineNo++
		if s.lineNo == 1 && s.opts.SkipHeader {
			continue
		}
		s.fields = getTokens(s.fields[:0], s.b.Bytes(), s.opts.MaxFields)
		if len(s.fields) == 0 {
			continue
		}
		if s.opts.SkipComments && isComment(s.fields) {
			continue
		}
		if len(s.fields) < s.opts.MinFields {
			s.err = s.Errorf("expected at least %d fields, found %d", s.opts.MinFields, len(s.fields))
			return false
		}
		return true
	}
	if err := s.b.Err(); err != nil {
		s.err = errors.E(err, "read", s.opts.Name)
	}
	return false
}

// Len returns the number of fields in the current row.
func (s *Scanner) Len() int { return len(s.fields) }

// Line returns the 1-based line number of the current row.
func (s *Scanner) Line() int { return s.lineNo }

// String returns a copy of field i of the current row.
func (s *Scanner) String(i int) string { return string(s.fields[i]) }

// Fields returns copies of all fields of the current row.
func (s *Scanner) Fields() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = string(f)
	}
	return out
}

// Int parses field i of the current row as a base-10 integer. The error is a
// format error naming the input and line.
func (s *Scanner) Int(i int) (int, error) {
	v, err := strconv.Atoi(gunsafe.BytesToString(s.fields[i]))
	if err != nil {
		return 0, s.Errorf("field %d: %q is not an integer", i+1, s.fields[i])
	}
	return v, nil
}

// Int64 is like Int, but returns an int64.
func (s *Scanner) Int64(i int) (int64, error) {
	v, err := strconv.ParseInt(gunsafe.BytesToString(s.fields[i]), 10, 64)
	if err != nil {
		return 0, s.Errorf("field %d: %q is not an integer", i+1, s.fields[i])
	}
	return v, nil
}

// Errorf returns a format error (kind errors.Invalid) that names the input
// and the current line.
func (s *Scanner) Errorf(format string, args ...interface{}) error {
	name := s.opts.Name
	if name == "" {
		name = "<input>"
	}
	args = append([]interface{}{name, s.lineNo}, args...)
	return errors.E(errors.Invalid, fmt.Sprintf("%s:%d: "+format, args...))
}

// Err returns the error, if any, that stopped the scan.
func (s *Scanner) Err() error { return s.err }
