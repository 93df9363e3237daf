package cmd

import (
	"flag"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/seqprof/methyl"
	"github.com/grailbio/seqprof/report"
	"v.io/x/lib/cmdline"
)

func contextFlags(fs *flag.FlagSet) methyl.ContextFiles {
	files := methyl.ContextFiles{}
	for _, c := range methyl.Contexts {
		c := c
		fs.Func(string(c), fmt.Sprintf("MethylDackel %s bedGraph", c), func(path string) error {
			files[c] = path
			return nil
		})
	}
	return files
}

func newCmdPercentMethylation() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "percent-methylation",
		Short: "Print the percent methylation of each cytosine context",
		Long: `
Prints a "context percent" row for each bedGraph given, or NA for a context
without calls.`,
	}
	files := contextFlags(&cmd.Flags)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("%s takes no arguments, but got %v", cmd.Name, argv)
		}
		calls, err := methyl.CountCalls(vcontext.Background(), files)
		if err != nil {
			return err
		}
		return methyl.WritePercentMethylation(report.NewTSV(env.Stdout), calls)
	})
	return cmd
}

func newCmdConversionRate() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "conversion-rate",
		Short: "Print the bisulfite conversion rate",
		Long: `
Prints the methylated and total calls of each context given, then the share
of unmethylated calls over all calls.`,
	}
	files := contextFlags(&cmd.Flags)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("%s takes no arguments, but got %v", cmd.Name, argv)
		}
		calls, err := methyl.CountCalls(vcontext.Background(), files)
		if err != nil {
			return err
		}
		return methyl.WriteConversionRate(env.Stdout, calls)
	})
	return cmd
}

func newCmdMethylationByBED() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "methylation-by-bed",
		Short: "Print the percent methylation of every BED feature",
		Long: `
Sorts the feature and signal files, sums the methylated and unmethylated
calls over each feature with "bedtools map", and prints each feature's BED
fields followed by its percent methylation. Features with fewer than -mincov
calls are dropped.`,
	}
	var (
		opts                  methyl.FeatureOpts
		inProcess             bool
		sortPath, bedtoolsBin string
	)
	cmd.Flags.StringVar(&opts.BED, "b", "", "BED file of features")
	cmd.Flags.StringVar(&opts.BED, "bed", "", "Same as -b")
	cmd.Flags.StringVar(&opts.BedGraph, "g", "", "MethylDackel bedGraph file")
	cmd.Flags.StringVar(&opts.BedGraph, "bedGraph", "", "Same as -g")
	cmd.Flags.Int64Var(&opts.MinCov, "m", 0, "Minimum number of calls over a feature")
	cmd.Flags.Int64Var(&opts.MinCov, "mincov", 0, "Same as -m")
	cmd.Flags.BoolVar(&opts.Sorted, "s", false, "Inputs are sorted already and the bedGraph has no header")
	cmd.Flags.BoolVar(&opts.Sorted, "sorted", false, "Same as -s")
	cmd.Flags.BoolVar(&opts.KeepSorted, "k", false, "Keep the sorted copies of the inputs")
	cmd.Flags.BoolVar(&opts.KeepSorted, "keep_sorted", false, "Same as -k")
	cmd.Flags.StringVar(&opts.TmpDir, "tmpdir", "", "Directory of intermediate files. By default the system temporary directory")
	cmd.Flags.BoolVar(&inProcess, "inprocess", false, "Sort and sum in memory instead of running sort and bedtools")
	cmd.Flags.StringVar(&sortPath, "sort-bin", "", "sort executable. By default looked up in $PATH")
	cmd.Flags.StringVar(&bedtoolsBin, "bedtools-bin", "", "bedtools executable. By default looked up in $PATH")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("%s takes no arguments, but got %v", cmd.Name, argv)
		}
		if opts.BED == "" || opts.BedGraph == "" {
			return fmt.Errorf("%s requires -b and -g", cmd.Name)
		}
		if inProcess {
			opts.Tools = methyl.InProcessTools{}
		} else {
			opts.Tools = methyl.ExecTools{SortPath: sortPath, BedtoolsPath: bedtoolsBin}
		}
		return methyl.FeatureMethylation(vcontext.Background(), opts, report.NewTSV(env.Stdout))
	})
	return cmd
}
