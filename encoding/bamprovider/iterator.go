// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf/index"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/seqprof/interval"
	"github.com/grailbio/seqprof/util"
)

// Iterator streams records from a BAM file. A whole-file iterator yields
// every placed record (one with a reference and a non-negative position). A
// region iterator yields the records that overlap its 0-based half-open
// region. The caller must Close the iterator. Thread compatible.
type Iterator struct {
	ctx    context.Context
	path   string
	in     file.File
	reader *bam.Reader

	// ref is nil for whole-file iterators. region is clamped to the
	// reference length.
	ref    *sam.Reference
	region interval.Entry

	rec  *sam.Record
	done bool
	err  error
}

func (p *Provider) newIterator(ctx context.Context) (*Iterator, error) {
	in, err := file.Open(ctx, p.Path)
	if err != nil {
		return nil, err
	}
	r, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		_ = in.Close(ctx)
		return nil, errors.E(errors.Invalid, err, "open", p.Path)
	}
	return &Iterator{ctx: ctx, path: p.Path, in: in, reader: r}, nil
}

// NewIterator creates an iterator over the placed records of the whole file,
// in file order.
func (p *Provider) NewIterator(ctx context.Context) (*Iterator, error) {
	return p.newIterator(ctx)
}

// NewRegionIterator creates an iterator over the records that overlap
// region. The reference must be named in the BAM header.
func (p *Provider) NewRegionIterator(ctx context.Context, region interval.Entry) (*Iterator, error) {
	header, err := p.Header(ctx)
	if err != nil {
		return nil, err
	}
	var ref *sam.Reference
	for _, r := range header.Refs() {
		if r.Name() == region.ChrName {
			ref = r
			break
		}
	}
	if ref == nil {
		return nil, util.FormatErrorf("%s: reference %q not in BAM header", p.Path, region.ChrName)
	}
	idx, err := p.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	it, err := p.newIterator(ctx)
	if err != nil {
		return nil, err
	}
	if int(region.End) > ref.Len() {
		region.End = interval.PosType(ref.Len())
	}
	it.ref, it.region = ref, region
	if region.Len() <= 0 {
		it.done = true
		return it, nil
	}
	chunks, err := idx.Chunks(ref, int(region.Start0), int(region.End))
	if err != nil || len(chunks) == 0 {
		// The index has no bins for the region: there are no reads in it.
		if err != nil && err != index.ErrInvalid {
			log.Debug.Printf("bamprovider: %s: chunks for %s: %v", p.index, region.Label(), err)
		}
		it.done = true
		return it, nil
	}
	if err := it.reader.Seek(chunks[0].Begin); err != nil {
		_ = it.Close()
		return nil, errors.E(err, "seek", p.Path)
	}
	return it, nil
}

// Scan advances to the next record.
func (i *Iterator) Scan() bool {
	if i.done || i.err != nil {
		return false
	}
	for {
		rec, err := i.reader.Read()
		if err == io.EOF {
			i.done = true
			return false
		}
		if err != nil {
			i.err = errors.E(errors.Invalid, err, "read", i.path)
			return false
		}
		if rec.Ref == nil || rec.Pos < 0 {
			if i.ref != nil {
				// Unplaced reads sort after all placed ones.
				i.done = true
				return false
			}
			continue
		}
		if i.ref != nil {
			if rec.Ref.ID() < i.ref.ID() {
				continue
			}
			if rec.Ref.ID() > i.ref.ID() || rec.Pos >= int(i.region.End) {
				i.done = true
				return false
			}
			if !i.region.Overlaps(rec.Ref.Name(), rec.Pos, rec.End()) {
				continue
			}
		}
		i.rec = rec
		return true
	}
}

// Record returns the current record.
func (i *Iterator) Record() *sam.Record { return i.rec }

// Err returns the error, if any, that stopped the iteration.
func (i *Iterator) Err() error { return i.err }

// Close releases the file handles of i and returns the iteration error, if
// any.
func (i *Iterator) Close() error {
	var err errors.Once
	err.Set(i.err)
	if i.reader != nil {
		err.Set(i.reader.Close())
		i.reader = nil
	}
	if i.in != nil {
		err.Set(i.in.Close(i.ctx))
		i.in = nil
	}
	return err.Err()
}
