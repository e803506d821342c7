package avc

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

// minExtent pads degenerate rectangles; the R-tree requires non-zero
// dimensions.
const minExtent = 1e-6

// LayerIndex is an R-tree over the features of one layer.
type LayerIndex struct {
	rtree    *rtreego.Rtree
	features []*Feature
	bounds   Bounds
	hasBound bool
}

// indexedFeature wraps a feature for R-tree storage.
type indexedFeature struct {
	feature *Feature
	bounds  Bounds
}

// Bounds implements rtreego.Spatial.
func (f *indexedFeature) Bounds() rtreego.Rect {
	return rectOf(f.bounds)
}

func rectOf(b Bounds) rtreego.Rect {
	point := rtreego.Point{b.MinX, b.MinY}
	lengths := []float64{b.MaxX - b.MinX, b.MaxY - b.MinY}
	for i := range lengths {
		if lengths[i] < minExtent {
			lengths[i] = minExtent
		}
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// Index reads every feature of the layer into an R-tree. The index is built
// once and shared; features without geometry are kept but never match a
// bounds query.
func (l *Layer) Index() (*LayerIndex, error) {
	l.indexOnce.Do(func() {
		l.index, l.indexErr = buildLayerIndex(l)
	})
	return l.index, l.indexErr
}

func buildLayerIndex(l *Layer) (*LayerIndex, error) {
	idx := &LayerIndex{rtree: rtreego.NewTree(2, 25, 50)}
	err := l.ForEach(func(f *Feature) bool {
		idx.features = append(idx.features, f)
		fb, ok := f.Bounds()
		if !ok {
			return true
		}
		idx.rtree.Insert(&indexedFeature{feature: f, bounds: fb})
		if idx.hasBound {
			idx.bounds = idx.bounds.Union(fb)
		} else {
			idx.bounds, idx.hasBound = fb, true
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Len returns the number of indexed features.
func (idx *LayerIndex) Len() int {
	return len(idx.features)
}

// Features returns every feature in iteration order.
func (idx *LayerIndex) Features() []*Feature {
	return idx.features
}

// Bounds returns the extent of all geometries. ok is false when no feature
// has geometry.
func (idx *LayerIndex) Bounds() (b Bounds, ok bool) {
	return idx.bounds, idx.hasBound
}

// FeaturesInBounds returns the features whose extent intersects bounds,
// ordered by FID.
func (idx *LayerIndex) FeaturesInBounds(bounds Bounds) []*Feature {
	spatials := idx.rtree.SearchIntersect(rectOf(bounds))
	result := make([]*Feature, 0, len(spatials))
	for _, s := range spatials {
		indexed := s.(*indexedFeature)
		if indexed.bounds.Intersects(bounds) {
			result = append(result, indexed.feature)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].fid < result[j].fid })
	return result
}
