package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/avc/pkg/avc"
)

func main() {
	// Open an AVCBin coverage directory (or an .e00 file)
	cov, err := avc.Open("data/roads")
	if err != nil {
		log.Fatal(err)
	}
	defer cov.Close()

	fmt.Printf("Coverage: %s (%s)\n", cov.Name(), cov.Representation())
	if srs := cov.SpatialReference(); srs != nil {
		fmt.Printf("Projection: %s\n", srs)
	}

	for _, layer := range cov.Layers() {
		n, err := layer.FeatureCount()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Layer %s: %d %s features\n", layer.Name(), n, layer.GeometryType())
	}
}
