/*Package interval reads the genomic intervals used by seqprof: BED feature
  files, bedGraph signal files, and samtools-style region strings.
  Coordinates are 0-based and half-open, as in BED. Every position must fit
  in a PosType, which is int32 since that's what BAM files are limited to.
*/
package interval
