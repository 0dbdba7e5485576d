package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/downfa11-org/logdb/pkg/bench"
)

func main() {
	dataDir := flag.String("data-dir", "bench-data", "directory for benchmark files")
	records := flag.Int("records", 10000, "records to append")
	sync := flag.Bool("sync", false, "fdatasync after every log write")
	flag.Parse()

	runner := bench.NewRunner(*dataDir, *records, *sync)
	if err := runner.Run(); err != nil {
		fmt.Println("benchmark failed:", err)
		os.Exit(1)
	}
}
