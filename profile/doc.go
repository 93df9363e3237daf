// Package profile implements the read and sequence profilers of seqprof.
//
// Each profiler pairs a record source (FASTQ sequences, BAM records, FASTA
// sequences or BED rows) with an aggregate.Extractor and a seeded or
// discovered aggregate.Table, and has a matching Write function that renders
// the table with a report.Writer.
package profile
