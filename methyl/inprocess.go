// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package methyl

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/biogo/store/interval"
	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/seqprof/encoding/tabular"
	seqinterval "github.com/grailbio/seqprof/interval"
	"github.com/grailbio/seqprof/util"
)

// InProcessTools implements Tools in memory. Its output matches ExecTools
// run in the C locale. Whole inputs are held in memory, so it suits feature
// and signal files of moderate size.
type InProcessTools struct{}

// sortLine orders lines like "sort -k1,1 -k2,2n": by first field, then by the
// numeric value of the second, then by the whole line. seq keeps equal lines
// apart in the tree.
type sortLine struct {
	chrom string
	start int
	line  string
	seq   int
}

// Compare implements llrb.Comparable.
func (l sortLine) Compare(o llrb.Comparable) int {
	l2 := o.(sortLine)
	if c := strings.Compare(l.chrom, l2.chrom); c != 0 {
		return c
	}
	if l.start != l2.start {
		if l.start < l2.start {
			return -1
		}
		return 1
	}
	if c := strings.Compare(l.line, l2.line); c != 0 {
		return c
	}
	return l.seq - l2.seq
}

func newSortLine(line string, seq int) sortLine {
	fields := strings.Fields(line)
	l := sortLine{line: line, seq: seq}
	if len(fields) > 0 {
		l.chrom = fields[0]
	}
	if len(fields) > 1 {
		// Like sort -n, a field that is not a number sorts as zero.
		l.start, _ = strconv.Atoi(fields[1])
	}
	return l
}

// Sort implements Tools.
func (InProcessTools) Sort(ctx context.Context, in, out string, skipHeader bool) (err error) {
	src, err := util.Open(ctx, in, util.OpenOpts{})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	var tree llrb.Tree
	s := bufio.NewScanner(src)
	s.Buffer(nil, 16<<20)
	n := 0
	for s.Scan() {
		n++
		if n == 1 && skipHeader {
			continue
		}
		tree.Insert(newSortLine(s.Text(), n))
	}
	if err := s.Err(); err != nil {
		return errors.E(err, "read", in)
	}
	return writeLines(ctx, out, func(emit func(string) error) error {
		var err error
		tree.Do(func(c llrb.Comparable) bool {
			err = emit(c.(sortLine).line)
			return err != nil
		})
		return err
	})
}

// writeLines creates out and writes every line produced by gen to it.
func writeLines(ctx context.Context, out string, gen func(emit func(string) error) error) error {
	dst, err := file.Create(ctx, out)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(dst.Writer(ctx))
	err = gen(func(line string) error {
		if _, err := w.WriteString(line); err != nil {
			return err
		}
		return w.WriteByte('\n')
	})
	if err == nil {
		err = w.Flush()
	}
	if cerr := dst.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// signal is one bedGraph row stored in an interval tree.
type signal struct {
	start, end int
	id         uintptr
	m, u       int64
}

// Overlap implements interval.IntOverlapper.
func (s signal) Overlap(b interval.IntRange) bool { return s.start < b.End && b.Start < s.end }

// Range implements interval.IntRanger.
func (s signal) Range() interval.IntRange { return interval.IntRange{Start: s.start, End: s.end} }

// ID implements interval.IntInterface.
func (s signal) ID() uintptr { return s.id }

// query is a half-open feature interval.
type query struct{ start, end int }

func (q query) Overlap(b interval.IntRange) bool { return q.start < b.End && b.Start < q.end }

func readSignal(ctx context.Context, path string) (trees map[string]*interval.IntTree, err error) {
	in, err := util.Open(ctx, path, util.OpenOpts{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	trees = map[string]*interval.IntTree{}
	s := seqinterval.NewSignalScanner(in, path, false)
	var id uintptr
	for s.Scan() {
		row := s.Record()
		t := trees[row.ChrName]
		if t == nil {
			t = &interval.IntTree{}
			trees[row.ChrName] = t
		}
		id++
		e := signal{start: int(row.Start0), end: int(row.End), id: id, m: row.Methylated, u: row.Unmethylated}
		if err := t.Insert(e, true); err != nil {
			return nil, errors.E(err, "index signal", path)
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	for _, t := range trees {
		t.AdjustRanges()
	}
	return trees, nil
}

// MapSum implements Tools.
func (InProcessTools) MapSum(ctx context.Context, bed, signalPath, out string) (err error) {
	trees, err := readSignal(ctx, signalPath)
	if err != nil {
		return err
	}
	in, err := util.Open(ctx, bed, util.OpenOpts{})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	s := tabular.NewScanner(in, tabular.Opts{Name: bed, MinFields: 3, SkipComments: true})
	return writeLines(ctx, out, func(emit func(string) error) error {
		for s.Scan() {
			start, err := s.Int(1)
			if err != nil {
				return err
			}
			end, err := s.Int(2)
			if err != nil {
				return err
			}
			var m, u int64
			if t := trees[s.String(0)]; t != nil {
				for _, e := range t.Get(query{start, end}) {
					m += e.(signal).m
					u += e.(signal).u
				}
			}
			line := strings.Join(s.Fields(), "\t") + "\t" + strconv.FormatInt(m, 10) + "\t" + strconv.FormatInt(u, 10)
			if err := emit(line); err != nil {
				return err
			}
		}
		return s.Err()
	})
}
