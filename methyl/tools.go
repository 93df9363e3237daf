// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package methyl

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/seqprof/util"
)

// Tools sorts interval files and joins features with signal.
type Tools interface {
	// Sort writes the lines of in to out ordered by chromosome name, then by
	// numeric start. If skipHeader is set, the first line of in is dropped.
	Sort(ctx context.Context, in, out string, skipHeader bool) error
	// MapSum writes each line of the sorted BED file bed to out, followed by
	// the sums of the methylated and unmethylated calls (columns 5 and 6) of
	// the rows of the sorted signal file that overlap it. Features without
	// overlapping rows get zero sums.
	MapSum(ctx context.Context, bed, signal, out string) error
}

// ExecTools implements Tools with GNU sort and bedtools.
type ExecTools struct {
	// SortPath is the sort executable. If "", "sort" is looked up in $PATH.
	SortPath string
	// BedtoolsPath is the bedtools executable. If "", "bedtools" is looked up
	// in $PATH.
	BedtoolsPath string
}

func orDefault(path, name string) string {
	if path == "" {
		return name
	}
	return path
}

// run runs name with args, reading stdin and writing stdout to the file at
// out. A failure carries the tool's standard error.
func run(ctx context.Context, stdin io.Reader, out, name string, args ...string) (err error) {
	dst, err := file.Create(ctx, out)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(dst.Writer(ctx))
	cmd := exec.CommandContext(ctx, name, args...)
	// Byte order makes sort agree with bedtools and InProcessTools.
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	cmd.Stdin = stdin
	cmd.Stdout = w
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	log.Debug.Printf("methyl: running %s %v > %s", name, args, out)
	if err = cmd.Run(); err != nil {
		_ = dst.Close(ctx)
		return errors.E(errors.Other, err, name, stderr.String())
	}
	if err = w.Flush(); err != nil {
		_ = dst.Close(ctx)
		return err
	}
	return dst.Close(ctx)
}

// Sort implements Tools.
func (t ExecTools) Sort(ctx context.Context, in, out string, skipHeader bool) (err error) {
	src, err := util.Open(ctx, in, util.OpenOpts{})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	r := bufio.NewReader(src)
	if skipHeader {
		if _, err := r.ReadString('\n'); err != nil && err != io.EOF {
			return errors.E(err, "read header", in)
		}
	}
	return run(ctx, r, out, orDefault(t.SortPath, "sort"), "-k1,1", "-k2,2n")
}

// MapSum implements Tools.
func (t ExecTools) MapSum(ctx context.Context, bed, signal, out string) error {
	return run(ctx, nil, out, orDefault(t.BedtoolsPath, "bedtools"),
		"map", "-a", bed, "-b", signal, "-c", "5,6", "-o", "sum,sum", "-null", "0")
}
