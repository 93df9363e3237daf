package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/seqprof/encoding/fasta"
	"github.com/grailbio/seqprof/interval"
	"github.com/grailbio/seqprof/profile"
	"github.com/grailbio/seqprof/util"
	"v.io/x/lib/cmdline"
)

// withFile calls fn with the contents of path, decompressed if needed.
func withFile(ctx context.Context, path string, fn func(r io.Reader) error) (err error) {
	in, err := util.Open(ctx, path, util.OpenOpts{})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(in)
}

func newCmdCoverage() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "coverage",
		Short: "Print the X coverage of a genome from a per-base depth file",
		Long: `
Divides the depth summed over a mosdepth per-base BED file (chrom, start, end,
depth) by the total length of the FASTA genome.`,
	}
	var fastaPath, depthPath, zero string
	cmd.Flags.StringVar(&fastaPath, "f", "", "FASTA genome")
	cmd.Flags.StringVar(&fastaPath, "fasta", "", "Same as -f")
	cmd.Flags.StringVar(&depthPath, "m", "", "mosdepth per-base.bed.gz file")
	cmd.Flags.StringVar(&depthPath, "mosdepth", "", "Same as -m")
	cmd.Flags.StringVar(&zero, "zero-genome", "fail", `What to do when the genome is empty: "fail", or "na" to print NA`)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("%s takes no arguments, but got %v", cmd.Name, argv)
		}
		if fastaPath == "" || depthPath == "" {
			return fmt.Errorf("%s requires -f and -m", cmd.Name)
		}
		policy, err := profile.ParseZeroPolicy(zero)
		if err != nil {
			return err
		}
		ctx := vcontext.Background()
		var c profile.Coverage
		if err := withFile(ctx, fastaPath, func(r io.Reader) (err error) {
			c.GenomeSize, err = profile.GenomeSize(fasta.NewScanner(r))
			return err
		}); err != nil {
			return err
		}
		if err := withFile(ctx, depthPath, func(r io.Reader) (err error) {
			c.TotalDepth, err = profile.TotalDepth(r, depthPath)
			return err
		}); err != nil {
			return err
		}
		return profile.WriteCoverage(env.Stdout, c, policy)
	})
	return cmd
}

func newCmdGetSeqByBED() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "getseq-by-bed",
		Short:    "Print the sequence of every BED region as FASTA",
		ArgsName: "fasta",
	}
	var bed string
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
		ctx := vcontext.Background()
		regions, err := interval.ReadBED(ctx, bed)
		if err != nil {
			return err
		}
		return withFile(ctx, path, func(r io.Reader) error {
			return profile.GetSeqByBED(fasta.NewScanner(r), regions, env.Stdout)
		})
	})
	return cmd
}
