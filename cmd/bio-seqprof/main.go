// bio-seqprof profiles short-read sequencing data: read lengths, base
// composition, unique sequences, coverage and methylation.
package main

import "github.com/grailbio/seqprof/cmd/bio-seqprof/cmd"

func main() {
	cmd.Run()
}
