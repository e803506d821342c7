// Package avc reads Arc/Info vector coverages.
//
// Both storage forms are supported: the AVCBin binary coverage directory
// (arc.adf, pal.adf, lab.adf, cnt.adf, tol.adf, prj.adf with the INFO
// attribute tables in the workspace's info directory) and the uncompressed
// E00 export file. Compressed E00 files are rejected.
//
// # Basic Usage
//
//	cov, err := avc.Open("data/roads")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cov.Close()
//
//	arcs := cov.LayerByName("ARC")
//	it, err := arcs.Iterate()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer it.Close()
//	for it.Next() {
//	    f := it.Feature()
//	    fmt.Println(f.FID(), f.WKT())
//	}
//	if err := it.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Layers
//
// A coverage exposes up to four layers, in this order:
//
//   - ARC: arcs as line strings with UserId, FNODE_, TNODE_, LPOLY_, RPOLY_
//     and the AAT attributes
//   - CNT: polygon centroids as points with their LabelIds
//   - LAB: label points with ValueId, PolyId and the PAT attributes
//   - PAL: polygons assembled from their arcs, with ArcIds and the PAT
//     attributes
//
// The universe polygon (PolyId 1) is left out of PAL unless
// WithKeepUniversePolygon is given. A polygon whose ring cannot be built
// is still returned; its Geometry is nil and GeometryErr says why.
//
// # Spatial Queries
//
//	idx, err := cov.LayerByName("PAL").Index()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	hits := idx.FeaturesInBounds(avc.Bounds{
//	    MinX: 340000, MinY: 4100000,
//	    MaxX: 341000, MaxY: 4101000,
//	})
//
// # Errors
//
// Open failures classify with KindOf and match the sentinel errors with
// errors.Is:
//
//	if errors.Is(err, avc.ErrUnsupportedEncoding) {
//	    // compressed E00
//	}
package avc
