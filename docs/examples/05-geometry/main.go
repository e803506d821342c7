package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/beetlebugorg/avc/pkg/avc"
)

func main() {
	cov, err := avc.Open("data/parcels", avc.WithValidateGeometry(true))
	if err != nil {
		log.Fatal(err)
	}
	defer cov.Close()

	it, err := cov.LayerByName("PAL").Iterate()
	if err != nil {
		log.Fatal(err)
	}
	defer it.Close()

	fc := geojson.NewFeatureCollection()
	for it.Next() {
		f := it.Feature()

		// Polygons whose arcs are missing still arrive, without geometry
		if err := f.GeometryErr(); err != nil {
			log.Printf("polygon %d: %v", f.FID(), err)
			continue
		}

		poly := f.Geometry().(orb.Polygon)
		fmt.Printf("Polygon %d: %d rings, area %.2f\n", f.FID(), len(poly), planar.Area(poly))
		fc.Append(f.GeoJSON())
	}
	if err := it.Err(); err != nil {
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		log.Fatal(err)
	}
}
