// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"context"
	"strings"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/seqprof/util"
)

// ProviderOpts defines options for Open.
type ProviderOpts struct {
	// Index is the pathname of the *.bam.bai file. If "", Path + ".bai".
	Index string
	// NoBuildIndex makes Open fail instead of writing a missing index.
	NoBuildIndex bool
}

// Provider gives access to one BAM file. Both the BAM and the index paths may
// name any file registered with grailbio/base/file. Thread compatible.
type Provider struct {
	// Path of the *.bam file.
	Path  string
	index string

	mu     sync.Mutex
	header *sam.Header
	idx    *bam.Index
	err    errors.Once
}

// Open checks that path names a BAM file, makes sure it has an index, and
// returns a Provider for it. A path without the ".bam" suffix is a format
// error.
func Open(ctx context.Context, path string, opts ProviderOpts) (*Provider, error) {
	if !strings.HasSuffix(path, ".bam") {
		return nil, util.FormatErrorf("%s: not a BAM file, expected a .bam suffix", path)
	}
	p := &Provider{Path: path, index: opts.Index}
	if p.index == "" {
		p.index = path + ".bai"
	}
	if _, err := file.Stat(ctx, p.index); err != nil {
		if opts.NoBuildIndex {
			return nil, errors.E(errors.NotExist, err, "index", p.index)
		}
		log.Printf("bamprovider: index %s not found, building it", p.index)
		if err := BuildIndex(ctx, path, p.index); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// IndexPath returns the path of the index used by p.
func (p *Provider) IndexPath() string { return p.index }

// Header returns the header of the BAM file.
func (p *Provider) Header(ctx context.Context) (*sam.Header, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.header != nil {
		return p.header, nil
	}
	in, err := file.Open(ctx, p.Path)
	if err != nil {
		p.err.Set(err)
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	r, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		err = errors.E(errors.Invalid, err, "read header", p.Path)
		p.err.Set(err)
		return nil, err
	}
	defer r.Close() // nolint: errcheck
	p.header = r.Header()
	return p.header, nil
}

func (p *Provider) readIndex(ctx context.Context) (*bam.Index, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idx != nil {
		return p.idx, nil
	}
	in, err := file.Open(ctx, p.index)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	if p.idx, err = bam.ReadIndex(in.Reader(ctx)); err != nil {
		return nil, errors.E(errors.Invalid, err, "read index", p.index)
	}
	return p.idx, nil
}

// Close releases p. It returns the first error any of p's operations hit.
func (p *Provider) Close() error {
	return p.err.Err()
}
