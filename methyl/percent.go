package methyl

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/seqprof/aggregate"
	"github.com/grailbio/seqprof/interval"
	"github.com/grailbio/seqprof/report"
	"github.com/grailbio/seqprof/util"
)

// Percent returns 100*m/(m+u). ok is false when there are no calls.
func Percent(m, u int64) (pct float64, ok bool) {
	if m+u == 0 {
		return 0, false
	}
	return float64(m) / float64(m+u) * 100, true
}

// FormatPercent formats Percent(m, u), or "NA" when there are no calls.
func FormatPercent(m, u int64) string {
	pct, ok := Percent(m, u)
	if !ok {
		return "NA"
	}
	return report.Float(pct)
}

// Context is a cytosine methylation context.
type Context string

const (
	CG  Context = "CG"
	CHG Context = "CHG"
	CHH Context = "CHH"
)

// Contexts lists the contexts in report order.
var Contexts = []Context{CG, CHG, CHH}

// ContextFiles maps a context to the bedGraph holding its calls. Contexts
// without a file are skipped.
type ContextFiles map[Context]string

// Calls holds the methylated (A) and unmethylated (B) call totals of each
// context.
type Calls = aggregate.Table[Context]

// CountCalls sums the methylated and unmethylated calls in each file of
// files. The first line of every file is a header. At least one file is
// required.
func CountCalls(ctx context.Context, files ContextFiles) (*Calls, error) {
	var present []Context
	for _, c := range Contexts {
		if files[c] != "" {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		return nil, util.FormatErrorf("no bedGraph given; at least one of CG, CHG or CHH is required")
	}
	t := aggregate.NewSeeded(present)
	for _, c := range present {
		if err := countFile(ctx, c, files[c], t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func countFile(ctx context.Context, c Context, path string, t *Calls) (err error) {
	in, err := util.Open(ctx, path, util.OpenOpts{})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	var src aggregate.Source[interval.SignalRow] = interval.NewSignalScanner(in, path, true)
	_, err = aggregate.Run(src, func(row interval.SignalRow, emit func(Context, aggregate.Value) error) error {
		return emit(c, aggregate.Value{A: row.Methylated, B: row.Unmethylated})
	}, t)
	return err
}

// WritePercentMethylation writes one "context percent" row per context of
// calls, without a header.
func WritePercentMethylation(w report.Writer, calls *Calls) error {
	return report.Table(w, nil, calls, report.InsertionOrder[Context],
		func(c Context, v aggregate.Value) []string {
			return []string{string(c), FormatPercent(v.A, v.B)}
		})
}

// ConversionRate returns the share of unmethylated calls over all calls, in
// percent, or "NA" when there are no calls.
func ConversionRate(calls *Calls) string {
	total := calls.Total()
	return FormatPercent(total.B, total.A)
}

// WriteConversionRate writes the methylated and total calls of each context
// followed by the conversion rate.
func WriteConversionRate(w io.Writer, calls *Calls) error {
	for _, c := range calls.Keys() {
		v := calls.Get(c)
		if _, err := fmt.Fprintf(w, "%s Methylated/Total:\t %d / %d\n", c, v.A, v.A+v.B); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Conversion Rate:\t %s\n", ConversionRate(calls))
	return err
}
