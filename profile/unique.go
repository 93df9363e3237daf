package profile

import (
	"github.com/grailbio/seqprof/aggregate"
	"github.com/grailbio/seqprof/report"
)

// UniqueSeqs counts the distinct sequences of src whose length is within b.
// Keys are kept in first-seen order.
func UniqueSeqs(src aggregate.Source[string], b Bounds) (*aggregate.Table[string], error) {
	t := aggregate.NewDiscovered[string]()
	_, err := aggregate.Run(src, aggregate.Count(func(seq string) (string, bool) {
		return seq, b.Contains(len(seq))
	}), t)
	return t, err
}

// WriteUnique writes the "sequence count" report of t in first-seen order.
func WriteUnique(w report.Writer, t *aggregate.Table[string]) error {
	return report.Table(w, []string{"sequence", "count"}, t, report.InsertionOrder[string],
		func(seq string, v aggregate.Value) []string {
			return []string{seq, report.Int(v.A)}
		})
}
