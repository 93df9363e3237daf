package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/seqprof/aggregate"
	"github.com/grailbio/seqprof/encoding/bamprovider"
	"github.com/grailbio/seqprof/encoding/fastq"
	"github.com/grailbio/seqprof/interval"
	"github.com/grailbio/seqprof/profile"
	"github.com/grailbio/seqprof/report"
	"github.com/grailbio/seqprof/util"
	"v.io/x/lib/cmdline"
)

// lengthFlags holds a read-length range. -1 means unset.
type lengthFlags struct {
	min, max int
}

// register adds the range flags under their short and long names.
func (f *lengthFlags) register(fs *flag.FlagSet, minName, maxName string, defMin, defMax int) {
	fs.IntVar(&f.min, "n", defMin, "Minimum read length, inclusive")
	fs.IntVar(&f.min, minName, defMin, "Same as -n")
	fs.IntVar(&f.max, "m", defMax, "Maximum read length, inclusive")
	fs.IntVar(&f.max, maxName, defMax, "Same as -m")
}

// both reports whether both ends of the range were given.
func (f lengthFlags) both() bool { return f.min >= 0 && f.max >= 0 }

func (f lengthFlags) bounds() (profile.Bounds, error) {
	b := profile.AllLengths
	if f.min >= 0 {
		b.Min = f.min
	}
	if f.max >= 0 {
		b.Max = f.max
	}
	if b.Min > b.Max {
		return b, fmt.Errorf("minimum length %d exceeds maximum length %d", b.Min, b.Max)
	}
	return b, nil
}

func (f lengthFlags) requireBoth(cmd string) (profile.Bounds, error) {
	if !f.both() {
		return profile.Bounds{}, fmt.Errorf("%s requires both -n and -m", cmd)
	}
	return f.bounds()
}

func oneArg(cmd string, argv []string) (string, error) {
	if len(argv) != 1 {
		return "", fmt.Errorf("%s takes one pathname argument, but got %v", cmd, argv)
	}
	return argv[0], nil
}

// newWriter returns a tab-separated writer on out that also fills the
// spreadsheet at xlsxPath, if set.
func newWriter(out io.Writer, xlsxPath, sheet string) (report.Writer, error) {
	w := report.NewTSV(out)
	if xlsxPath == "" {
		return w, nil
	}
	x, err := report.NewXLSX(xlsxPath, sheet)
	if err != nil {
		return nil, err
	}
	return report.Multi(w, x), nil
}

// withFASTQ calls fn with the read sequences of the FASTQ file at path.
func withFASTQ(ctx context.Context, path string, fn func(src *fastq.SeqSource) error) (err error) {
	in, err := util.Open(ctx, path, util.OpenOpts{Parallel: true})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(fastq.NewSeqSource(in))
}

// withBAM calls fn with the reads of the BAM file at path, restricted to
// region unless it is "".
func withBAM(ctx context.Context, path, index, region string, fn func(src aggregate.Source[*sam.Record]) error) error {
	p, err := bamprovider.Open(ctx, path, bamprovider.ProviderOpts{Index: index})
	if err != nil {
		return err
	}
	var it *bamprovider.Iterator
	if region == "" {
		it, err = p.NewIterator(ctx)
	} else {
		var r interval.Entry
		if r, err = interval.ParseRegionString(region); err == nil {
			it, err = p.NewRegionIterator(ctx, r)
		}
	}
	if err != nil {
		_ = p.Close()
		return err
	}
	var e errors.Once
	e.Set(fn(it))
	e.Set(it.Close())
	e.Set(p.Close())
	return e.Err()
}

func newRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-seqprof",
		Short:    "Profile short-read sequencing data",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdFASTQLengths(),
			newCmdBAMLengths(),
			newCmdBAMLengthsByBED(),
			newCmdFASTQUnique(),
			newCmdBAMUnique(),
			newCmdEndBias(),
			newCmdPositionFreq(),
			newCmdLengthFilter(),
			newCmdCoverage(),
			newCmdPercentMethylation(),
			newCmdConversionRate(),
			newCmdMethylationByBED(),
			newCmdGetSeqByBED(),
		},
	}
}

func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newRoot())
}
