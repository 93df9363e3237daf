package aggregate

// Source is a lazy, finite, single-pass stream of records. Scan advances to
// the next record and reports whether there is one; Record returns it; Err
// returns the error that stopped the scan, or nil at a clean end of stream.
type Source[R any] interface {
	Scan() bool
	Record() R
	Err() error
}

// An Extractor maps one record to zero or more observations, passing each to
// emit. Returning an error aborts the pass.
type Extractor[R any, K comparable] func(rec R, emit func(k K, v Value) error) error

// Run consumes src to its end, feeding every record through extract into t.
// It returns the number of records read.
func Run[R any, K comparable](src Source[R], extract Extractor[R, K], t *Table[K]) (int, error) {
	emit := func(k K, v Value) error { return t.Add(k, v.A, v.B) }
	n := 0
	for src.Scan() {
		n++
		if err := extract(src.Record(), emit); err != nil {
			return n, err
		}
	}
	return n, src.Err()
}

// Count returns an Extractor that counts each record under key(rec). Records
// for which key returns ok == false are skipped.
func Count[R any, K comparable](key func(rec R) (k K, ok bool)) Extractor[R, K] {
	return func(rec R, emit func(K, Value) error) error {
		k, ok := key(rec)
		if !ok {
			return nil
		}
		return emit(k, One)
	}
}

// SliceSource is a Source over an in-memory slice.
type SliceSource[R any] struct {
	recs []R
	i    int
}

// NewSliceSource creates a Source that yields recs in order.
func NewSliceSource[R any](recs []R) *SliceSource[R] {
	return &SliceSource[R]{recs: recs, i: -1}
}

// Scan implements Source.
func (s *SliceSource[R]) Scan() bool {
	if s.i+1 >= len(s.recs) {
		s.i = len(s.recs)
		return false
	}
	s.i++
	return true
}

// Record implements Source.
func (s *SliceSource[R]) Record() R { return s.recs[s.i] }

// Err implements Source.
func (s *SliceSource[R]) Err() error { return nil }

type mapped[R, S any] struct {
	src Source[R]
	f   func(R) S
}

func (m mapped[R, S]) Scan() bool { return m.src.Scan() }
func (m mapped[R, S]) Record() S  { return m.f(m.src.Record()) }
func (m mapped[R, S]) Err() error { return m.src.Err() }

// Map returns a Source that yields f(rec) for every record of src.
func Map[R, S any](src Source[R], f func(R) S) Source[S] {
	return mapped[R, S]{src: src, f: f}
}
