package util

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"
)

// OpenOpts defines behavior of Open.
type OpenOpts struct {
	// Parallel selects the block-parallel gzip decoder. It pays off for large
	// FASTQ files; BED and bedGraph inputs are usually too small to benefit.
	Parallel bool
}

// reader closes the decompressor (if any) and then the underlying file.
type reader struct {
	io.Reader
	ctx    context.Context
	in     file.File
	closer io.Closer
}

func (r *reader) Close() error {
	var err errors.Once
	if r.closer != nil {
		err.Set(r.closer.Close())
	}
	err.Set(r.in.Close(r.ctx))
	return err.Err()
}

// Open opens path for reading. If the name carries a gzip suffix (".gz"), the
// returned reader yields the decompressed stream. The caller must Close the
// reader.
func Open(ctx context.Context, path string, opts OpenOpts) (io.ReadCloser, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	r := &reader{Reader: in.Reader(ctx), ctx: ctx, in: in}
	if fileio.DetermineType(path) != fileio.Gzip {
		return r, nil
	}
	var gz io.ReadCloser
	if opts.Parallel {
		gz, err = pgzip.NewReader(r.Reader)
	} else {
		gz, err = gzip.NewReader(r.Reader)
	}
	if err != nil {
		_ = in.Close(ctx)
		return nil, errors.E(errors.Invalid, err, "gunzip", path)
	}
	r.Reader, r.closer = gz, gz
	return r, nil
}
