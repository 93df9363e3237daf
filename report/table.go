package report

import (
	"cmp"
	"math"
	"strconv"
	"strings"

	"github.com/grailbio/seqprof/aggregate"
)

// Order lists the keys of a table in report order.
type Order[K comparable] func(t *aggregate.Table[K]) []K

// InsertionOrder reports a discovered table in first-seen order, and a seeded
// one in the order of its domain.
func InsertionOrder[K comparable](t *aggregate.Table[K]) []K { return t.Keys() }

// AscendingOrder reports keys in ascending order.
func AscendingOrder[K cmp.Ordered](t *aggregate.Table[K]) []K { return aggregate.Ascending(t) }

// Int formats a count.
func Int(v int64) string { return strconv.FormatInt(v, 10) }

// Float formats v with the fewest digits that read back as v, always with a
// fractional part or an exponent: 30 is "30.0", 1/3 is "0.3333333333333333"
// and 1e-5 is "1e-05".
func Float(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Table writes header, if not nil, followed by one row per key of t, then
// flushes w. row formats one key and its value.
func Table[K comparable](w Writer, header []string, t *aggregate.Table[K], order Order[K], row func(k K, v aggregate.Value) []string) error {
	if header != nil {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for _, k := range order(t) {
		if err := w.Write(row(k, t.Get(k))); err != nil {
			return err
		}
	}
	return w.Flush()
}
