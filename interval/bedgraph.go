package interval

import (
	"io"

	"github.com/grailbio/seqprof/encoding/tabular"
)

// SignalRow is one line of a methylation bedGraph: an interval followed by a
// percentage and the methylated and unmethylated call counts in columns five
// and six.
type SignalRow struct {
	ChrName      string
	Start0       PosType
	End          PosType
	Methylated   int64
	Unmethylated int64
}

// SignalScanner streams SignalRows. It implements
// aggregate.Source[SignalRow].
type SignalScanner struct {
	s   *tabular.Scanner
	row SignalRow
	err error
}

// NewSignalScanner creates a SignalScanner reading r. name identifies the
// input in error messages. If header is set, the first line is dropped
// unread, as MethylDackel writes a "track" line there. Other "track",
// "browser" and '#' lines are skipped too.
func NewSignalScanner(r io.Reader, name string, header bool) *SignalScanner {
	return &SignalScanner{s: tabular.NewScanner(r, tabular.Opts{
		Name:         name,
		MinFields:    6,
		MaxFields:    6,
		SkipHeader:   header,
		SkipComments: true,
	})}
}

// Scan advances to the next row.
func (g *SignalScanner) Scan() bool {
	if g.err != nil || !g.s.Scan() {
		return false
	}
	var (
		start, end int
		m, u       int64
	)
	if start, g.err = g.s.Int(1); g.err != nil {
		return false
	}
	if end, g.err = g.s.Int(2); g.err != nil {
		return false
	}
	if start < 0 || end < start || end >= posTypeMax {
		g.err = g.s.Errorf("invalid interval [%d, %d)", start, end)
		return false
	}
	if m, g.err = g.s.Int64(4); g.err != nil {
		return false
	}
	if u, g.err = g.s.Int64(5); g.err != nil {
		return false
	}
	if m < 0 || u < 0 {
		g.err = g.s.Errorf("negative methylation counts %d, %d", m, u)
		return false
	}
	g.row = SignalRow{
		ChrName:      g.s.String(0),
		Start0:       PosType(start),
		End:          PosType(end),
		Methylated:   m,
		Unmethylated: u,
	}
	return true
}

// Record returns the current row.
func (g *SignalScanner) Record() SignalRow { return g.row }

// Err returns the error, if any, that stopped the scan.
func (g *SignalScanner) Err() error {
	if g.err != nil {
		return g.err
	}
	return g.s.Err()
}
