package main

import (
	"fmt"
	"log"
	"os"

	"github.com/beetlebugorg/avc/pkg/avc"
)

func main() {
	// Find every AVCBin directory and E00 file under the workspace
	paths, err := avc.FindCoverages("data")
	if err != nil {
		log.Fatal(err)
	}

	covs, errs := avc.OpenAll(paths, avc.LoadOptions{
		Parallel:   true,
		Workers:    4,
		SkipErrors: true,
		Progress: func(loaded, total int) {
			fmt.Printf("\rOpening: %d/%d", loaded, total)
		},
		ErrorLog: os.Stderr,
	})
	fmt.Println()

	if len(errs) > 0 {
		fmt.Printf("Skipped %d coverages\n", len(errs))
	}
	for _, cov := range covs {
		fmt.Printf("%-12s %-6s %v\n", cov.Name(), cov.Representation(), cov.ListLayers())
		cov.Close()
	}

	// Coverages can also be read straight from a zip archive
	zipped, err := avc.Open("zip://data/archive.zip!workspace/roads")
	if err != nil {
		log.Fatal(err)
	}
	defer zipped.Close()
	fmt.Printf("From zip: %s\n", zipped.Name())
}
