package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/beetlebugorg/avc/pkg/avc"
)

func safeOpen(path string) (*avc.Coverage, error) {
	cov, err := avc.Open(path)
	if err != nil {
		switch avc.KindOf(err) {
		case avc.UnsupportedEncoding:
			return nil, fmt.Errorf("%s is a compressed E00; decompress it first: %w", path, err)
		case avc.NotRecognized:
			return nil, fmt.Errorf("%s is not a coverage: %w", path, err)
		}
		return nil, err
	}
	return cov, nil
}

func main() {
	cov, err := safeOpen("data/parcels.e00")
	if err != nil {
		log.Printf("Error: %v", err)
		return
	}
	defer cov.Close()

	// Per-feature problems never stop iteration
	pal := cov.LayerByName("PAL")
	if pal == nil {
		return
	}
	err = pal.ForEach(func(f *avc.Feature) bool {
		var missing *avc.MissingArcError
		if errors.As(f.GeometryErr(), &missing) {
			log.Printf("polygon %d references missing arc %d", f.FID(), missing.ArcID)
		}
		return true
	})
	if errors.Is(err, avc.ErrCorruptRecord) {
		log.Printf("truncated table: %v", err)
	}

	_, err = safeOpen("data/compressed.e00")
	if err != nil {
		log.Printf("Expected error: %v", err)
	}
}
