package profile

import (
	"strconv"

	"github.com/grailbio/seqprof/aggregate"
	"github.com/grailbio/seqprof/report"
	"github.com/grailbio/seqprof/util"
)

// Bases are the nucleotides profiled, in report column order.
var Bases = []byte("ATCG")

func isBase(b byte) bool {
	switch b {
	case 'A', 'T', 'C', 'G':
		return true
	}
	return false
}

// End names a read end.
type End string

const (
	FivePrime  End = "5_prime"
	ThreePrime End = "3_prime"
)

// EndBase keys an end-bias table.
type EndBase struct {
	End  End
	Base byte
}

// EndBias counts the first and last base of every sequence of src whose
// length is within b. Empty sequences have no ends and are skipped. A base
// other than A, T, C or G is a format error.
func EndBias(src aggregate.Source[string], b Bounds) (*aggregate.Table[EndBase], error) {
	t := aggregate.NewSeeded(aggregate.Product([]End{FivePrime, ThreePrime}, Bases,
		func(e End, base byte) EndBase { return EndBase{e, base} }))
	n := 0
	_, err := aggregate.Run(src, func(seq string, emit func(EndBase, aggregate.Value) error) error {
		n++
		if len(seq) == 0 || !b.Contains(len(seq)) {
			return nil
		}
		first, last := seq[0], seq[len(seq)-1]
		for _, c := range [...]byte{first, last} {
			if !isBase(c) {
				return util.FormatErrorf("read %d: unexpected base %q", n, c)
			}
		}
		if err := emit(EndBase{FivePrime, first}, aggregate.One); err != nil {
			return err
		}
		return emit(EndBase{ThreePrime, last}, aggregate.One)
	}, t)
	return t, err
}

// WriteEndBias writes one row per read end with the count of each base.
func WriteEndBias(w report.Writer, t *aggregate.Table[EndBase]) error {
	if err := w.Write([]string{"end", "A", "T", "C", "G"}); err != nil {
		return err
	}
	for _, e := range []End{FivePrime, ThreePrime} {
		row := []string{string(e)}
		for _, base := range Bases {
			row = append(row, report.Int(t.Get(EndBase{e, base}).A))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Flush()
}

// PosBase keys a per-position base table. Pos is 1-based.
type PosBase struct {
	Pos  int
	Base byte
}

// PositionFreq counts the base at every position of the sequences of src
// that are exactly length long. A base other than A, T, C or G is a format
// error.
func PositionFreq(src aggregate.Source[string], length int) (*aggregate.Table[PosBase], error) {
	if length < 0 {
		return nil, util.FormatErrorf("negative read length %d", length)
	}
	positions := make([]int, length)
	for i := range positions {
		positions[i] = i + 1
	}
	t := aggregate.NewSeeded(aggregate.Product(positions, Bases,
		func(pos int, base byte) PosBase { return PosBase{pos, base} }))
	n := 0
	_, err := aggregate.Run(src, func(seq string, emit func(PosBase, aggregate.Value) error) error {
		n++
		if len(seq) != length {
			return nil
		}
		for i := 0; i < len(seq); i++ {
			if !isBase(seq[i]) {
				return util.FormatErrorf("read %d, position %d: unexpected base %q", n, i+1, seq[i])
			}
			if err := emit(PosBase{i + 1, seq[i]}, aggregate.One); err != nil {
				return err
			}
		}
		return nil
	}, t)
	return t, err
}

// WritePositionFreq writes one row per position, 1 to length, with the count
// of each base.
func WritePositionFreq(w report.Writer, t *aggregate.Table[PosBase], length int) error {
	if err := w.Write([]string{"position", "A", "T", "C", "G"}); err != nil {
		return err
	}
	for pos := 1; pos <= length; pos++ {
		row := []string{strconv.Itoa(pos)}
		for _, base := range Bases {
			row = append(row, report.Int(t.Get(PosBase{pos, base}).A))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Flush()
}
