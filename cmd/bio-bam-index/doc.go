/*Command bio-bam-index reads a coordinate-sorted .bam file and writes its
  .bai index. The other bio-seqprof commands build a missing index on their
  own; bio-bam-index builds it ahead of time, for example before several
  region queries run in parallel.

  Usage: bio-bam-index [-index foo.bam.bai] foo.bam
*/
package main
