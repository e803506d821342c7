package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/avc/pkg/avc"
)

func main() {
	cov, err := avc.Open("data/parcels.e00")
	if err != nil {
		log.Fatal(err)
	}
	defer cov.Close()

	// Build the R-tree once; later queries reuse it
	idx, err := cov.LayerByName("PAL").Index()
	if err != nil {
		log.Fatal(err)
	}

	// Query window in coverage units (UTM metres here)
	window := avc.Bounds{
		MinX: 340000, MinY: 4100000,
		MaxX: 340500, MaxY: 4100500,
	}
	features := idx.FeaturesInBounds(window)

	fmt.Printf("Polygons in window: %d of %d\n", len(features), idx.Len())
	for _, f := range features {
		b, _ := f.Bounds()
		fmt.Printf("  %d: [%.1f,%.1f] to [%.1f,%.1f]\n", f.FID(), b.MinX, b.MinY, b.MaxX, b.MaxY)
	}
}
