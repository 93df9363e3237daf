// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/bam"
)

// BuildIndex reads the coordinate-sorted BAM file at bamPath and writes its
// BAI index to indexPath.
func BuildIndex(ctx context.Context, bamPath, indexPath string) (err error) {
	in, err := file.Open(ctx, bamPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	r, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		return errors.E(errors.Invalid, err, "index", bamPath)
	}
	defer r.Close() // nolint: errcheck

	var idx bam.Index
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.E(errors.Invalid, err, "index", bamPath)
		}
		if err := idx.Add(rec, r.LastChunk()); err != nil {
			return errors.E(errors.Invalid, err, "index", bamPath, "(is the file coordinate-sorted?)")
		}
	}

	out, err := file.Create(ctx, indexPath)
	if err != nil {
		return err
	}
	if err := bam.WriteIndex(out.Writer(ctx), &idx); err != nil {
		_ = out.Close(ctx)
		return errors.E(err, "write index", indexPath)
	}
	return out.Close(ctx)
}
