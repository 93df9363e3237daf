package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
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

const indexHelp = "Input BAM index filename. By default set to input bampath + .bai; built if missing"

// lengthReport writes a length table to out, and optionally to a spreadsheet
// and a chart.
func lengthReport(out io.Writer, t *aggregate.Table[int], xlsxPath, plotPath string) error {
	w, err := newWriter(out, xlsxPath, "lengths")
	if err != nil {
		return err
	}
	if err := profile.WriteLengths(w, t); err != nil {
		return err
	}
	if plotPath != "" {
		return profile.PlotLengths(plotPath, t)
	}
	return nil
}

func newCmdFASTQLengths() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "fastq-lengths",
		Short: "Print the read length profile of a FASTQ file",
		Long: `
Prints a "length count" row for every read length, in ascending order. When
both -n and -m are given, every length in [n, m] is printed, including those
no read has.`,
		ArgsName: "fastq",
	}
	var (
		lengths          lengthFlags
		xlsxPath, plotTo string
	)
	lengths.register(&cmd.Flags, "min_length", "max_length", -1, -1)
	cmd.Flags.StringVar(&xlsxPath, "xlsx", "", "Also write the profile to this .xlsx file")
	cmd.Flags.StringVar(&plotTo, "plot", "", "Also draw the profile to this .png or .svg file")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		path, err := oneArg(cmd.Name, argv)
		if err != nil {
			return err
		}
		b, err := lengths.bounds()
		if err != nil {
			return err
		}
		opts := profile.LengthOpts{Bounds: b, Dense: lengths.both()}
		return withFASTQ(vcontext.Background(), path, func(src *fastq.SeqSource) error {
			t, err := profile.SeqLengths(src, opts)
			if err != nil {
				return err
			}
			return lengthReport(env.Stdout, t, xlsxPath, plotTo)
		})
	})
	return cmd
}

func newCmdBAMLengths() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "bam-lengths",
		Short:    "Print the read length profile of a BAM file",
		ArgsName: "bam",
	}
	var (
		lengths          lengthFlags
		index, region    string
		xlsxPath, plotTo string
	)
	lengths.register(&cmd.Flags, "min_length", "max_length", -1, -1)
	cmd.Flags.StringVar(&index, "index", "", indexHelp)
	cmd.Flags.StringVar(&region, "region", "", `Count only reads overlapping this region, e.g. "chr1:1,001-2,000" or "chr1"`)
	cmd.Flags.StringVar(&xlsxPath, "xlsx", "", "Also write the profile to this .xlsx file")
	cmd.Flags.StringVar(&plotTo, "plot", "", "Also draw the profile to this .png or .svg file")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		path, err := oneArg(cmd.Name, argv)
		if err != nil {
			return err
		}
		b, err := lengths.requireBoth(cmd.Name)
		if err != nil {
			return err
		}
		opts := profile.LengthOpts{Bounds: b, Dense: true}
		return withBAM(vcontext.Background(), path, index, region, func(src aggregate.Source[*sam.Record]) error {
			t, err := profile.RecordLengths(src, opts)
			if err != nil {
				return err
			}
			return lengthReport(env.Stdout, t, xlsxPath, plotTo)
		})
	})
	return cmd
}

func newCmdBAMLengthsByBED() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "bam-lengths-by-bed",
		Short: "Print the read length profile of every BED region",
		Long: `
Prints one row per BED region, in BED order: the region name (or
"chr:start-end" when unnamed) followed by the number of overlapping reads of
every length in [n, m].`,
		ArgsName: "bam",
	}
	var (
		lengths    lengthFlags
		index, bed string
	)
	lengths.register(&cmd.Flags, "min_length", "max_length", -1, -1)
	cmd.Flags.StringVar(&index, "index", "", indexHelp)
	cmd.Flags.StringVar(&bed, "b", "", "BED file of regions")
	cmd.Flags.StringVar(&bed, "bed", "", "Same as -b")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		path, err := oneArg(cmd.Name, argv)
		if err != nil {
			return err
		}
		if bed == "" {
			return fmt.Errorf("%s requires -b", cmd.Name)
		}
		b, err := lengths.requireBoth(cmd.Name)
		if err != nil {
			return err
		}
		ctx := vcontext.Background()
		regions, err := interval.ReadBED(ctx, bed)
		if err != nil {
			return err
		}
		p, err := bamprovider.Open(ctx, path, bamprovider.ProviderOpts{Index: index})
		if err != nil {
			return err
		}
		err = profile.WriteLengthsByRegion(ctx, report.NewTSV(env.Stdout), p, regions, b)
		if cerr := p.Close(); cerr != nil && err == nil {
			err = cerr
		}
		return err
	})
	return cmd
}

func newCmdFASTQUnique() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "fastq-unique",
		Short:    "Count the reads of a FASTQ file by sequence",
		ArgsName: "fastq",
	}
	var lengths lengthFlags
	lengths.register(&cmd.Flags, "min_length", "max_length", -1, -1)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		path, err := oneArg(cmd.Name, argv)
		if err != nil {
			return err
		}
		b, err := lengths.bounds()
		if err != nil {
			return err
		}
		return withFASTQ(vcontext.Background(), path, func(src *fastq.SeqSource) error {
			t, err := profile.UniqueSeqs(src, b)
			if err != nil {
				return err
			}
			return profile.WriteUnique(report.NewTSV(env.Stdout), t)
		})
	})
	return cmd
}

func newCmdBAMUnique() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "bam-unique",
		Short:    "Count the reads of a BAM file by sequence",
		ArgsName: "bam",
	}
	var (
		lengths       lengthFlags
		index, region string
	)
	lengths.register(&cmd.Flags, "min_length", "max_length", -1, -1)
	cmd.Flags.StringVar(&index, "index", "", indexHelp)
	cmd.Flags.StringVar(&region, "region", "", "Count only reads overlapping this region")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		path, err := oneArg(cmd.Name, argv)
		if err != nil {
			return err
		}
		b, err := lengths.bounds()
		if err != nil {
			return err
		}
		return withBAM(vcontext.Background(), path, index, region, func(src aggregate.Source[*sam.Record]) error {
			t, err := profile.UniqueSeqs(aggregate.Map(src, profile.RecordSeq), b)
			if err != nil {
				return err
			}
			return profile.WriteUnique(report.NewTSV(env.Stdout), t)
		})
	})
	return cmd
}

func newCmdEndBias() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "end-bias",
		Short:    "Print the first and last base counts of FASTQ reads as CSV",
		ArgsName: "fastq",
	}
	var lengths lengthFlags
	lengths.register(&cmd.Flags, "min_length", "max_length", 0, 150)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		path, err := oneArg(cmd.Name, argv)
		if err != nil {
			return err
		}
		b, err := lengths.bounds()
		if err != nil {
			return err
		}
		return withFASTQ(vcontext.Background(), path, func(src *fastq.SeqSource) error {
			t, err := profile.EndBias(src, b)
			if err != nil {
				return err
			}
			return profile.WriteEndBias(report.NewCSV(env.Stdout), t)
		})
	})
	return cmd
}

func newCmdPositionFreq() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "position-freq",
		Short:    "Print per-position base counts of FASTQ reads of one length as CSV",
		ArgsName: "fastq",
	}
	var length int
	cmd.Flags.IntVar(&length, "l", 0, "Read length; reads of other lengths are ignored")
	cmd.Flags.IntVar(&length, "length", 0, "Same as -l")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		path, err := oneArg(cmd.Name, argv)
		if err != nil {
			return err
		}
		if length <= 0 {
			return fmt.Errorf("%s requires a positive -l", cmd.Name)
		}
		return withFASTQ(vcontext.Background(), path, func(src *fastq.SeqSource) error {
			t, err := profile.PositionFreq(src, length)
			if err != nil {
				return err
			}
			log.Debug.Printf("%s: %d reads", path, src.N())
			return profile.WritePositionFreq(report.NewCSV(env.Stdout), t, length)
		})
	})
	return cmd
}

func newCmdLengthFilter() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "length-filter",
		Short:    "Print the FASTQ reads whose length is in [min, max]",
		ArgsName: "fastq",
	}
	var lengths lengthFlags
	lengths.register(&cmd.Flags, "min", "max", -1, -1)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		path, err := oneArg(cmd.Name, argv)
		if err != nil {
			return err
		}
		b, err := lengths.requireBoth(cmd.Name)
		if err != nil {
			return err
		}
		return filterFASTQ(vcontext.Background(), path, env.Stdout, b)
	})
	return cmd
}

func filterFASTQ(ctx context.Context, path string, out io.Writer, b profile.Bounds) (err error) {
	in, err := util.Open(ctx, path, util.OpenOpts{Parallel: true})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	total, kept, err := profile.FilterLengths(in, out, b)
	log.Printf("%s: kept %d of %d reads", path, kept, total)
	return err
}
