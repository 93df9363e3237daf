// Package aggregate implements the streaming key -> value tables shared by all
// seqprof profilers.
//
// A profiler is a Source of records, an Extractor that maps each record to
// zero or more (key, value) observations, and a Table that accumulates them.
// Run drives one linear pass:
//
//	t := aggregate.DenseRange(18, 35)
//	n, err := aggregate.Run[string, int](src, aggregate.Count(profile.LengthIn(bounds)), t)
//
// A Table is either seeded, with its whole key domain present at zero before
// the pass starts, or discovered, growing one key at a time in first-seen
// order. Seeded tables reject keys outside of their domain with an error
// IsOutOfDomain recognizes; extractors are expected to filter such records
// upstream.
package aggregate
