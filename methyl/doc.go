// Package methyl summarizes methylation calls read from MethylDackel-style
// bedGraph files: per-context percent methylation, bisulfite conversion rate,
// and percent methylation over the features of a BED file.
//
// Per-feature summaries need both inputs sorted and joined by interval. The
// Tools interface abstracts those two steps; ExecTools runs GNU sort and
// bedtools, and InProcessTools does the same work in memory.
package methyl
