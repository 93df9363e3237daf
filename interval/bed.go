package interval

import (
	"context"
	"io"

	"github.com/grailbio/seqprof/encoding/tabular"
	"github.com/grailbio/seqprof/util"
)

// BEDScanner streams Entries from BED data. Lines need at least three
// columns; "track", "browser" and '#' lines are skipped. It implements
// aggregate.Source[Entry].
type BEDScanner struct {
	s   *tabular.Scanner
	e   Entry
	err error
}

// NewBEDScanner creates a BEDScanner reading r. name identifies the input in
// error messages.
func NewBEDScanner(r io.Reader, name string) *BEDScanner {
	return &BEDScanner{s: tabular.NewScanner(r, tabular.Opts{Name: name, MinFields: 3, SkipComments: true})}
}

// Scan advances to the next entry.
func (b *BEDScanner) Scan() bool {
	if b.err != nil || !b.s.Scan() {
		return false
	}
	start, err := b.s.Int(1)
	if err != nil {
		b.err = err
		return false
	}
	end, err := b.s.Int(2)
	if err != nil {
		b.err = err
		return false
	}
	if start < 0 || end < start || end >= posTypeMax {
		b.err = b.s.Errorf("invalid interval [%d, %d)", start, end)
		return false
	}
	b.e = Entry{
		ChrName: b.s.String(0),
		Start0:  PosType(start),
		End:     PosType(end),
		Fields:  b.s.Fields(),
	}
	if b.s.Len() > 3 {
		b.e.Name = b.e.Fields[3]
	}
	return true
}

// Record returns the current entry.
func (b *BEDScanner) Record() Entry { return b.e }

// Err returns the error, if any, that stopped the scan.
func (b *BEDScanner) Err() error {
	if b.err != nil {
		return b.err
	}
	return b.s.Err()
}

// ReadBED reads all entries of the BED file at path, in file order. The file
// may be gzip-compressed.
func ReadBED(ctx context.Context, path string) (entries []Entry, err error) {
	in, err := util.Open(ctx, path, util.OpenOpts{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	s := NewBEDScanner(in, path)
	for s.Scan() {
		entries = append(entries, s.Record())
	}
	return entries, s.Err()
}
