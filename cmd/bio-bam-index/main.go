package main

// See doc.go for documentation
import (
	"flag"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/seqprof/encoding/bamprovider"
)

var index = flag.String("index", "", "Output index path. By default the input path + .bai")

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Error.Printf("usage: bio-bam-index [-index path] bampath")
		os.Exit(2)
	}
	path := flag.Arg(0)
	out := *index
	if out == "" {
		out = path + ".bai"
	}
	if err := bamprovider.BuildIndex(vcontext.Background(), path, out); err != nil {
		log.Fatalf("bio-bam-index: %v", err)
	}
	log.Printf("wrote %s", out)
}
