package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/beetlebugorg/avc/pkg/avc"
)

func newDumpCmd(a *app) *cobra.Command {
	var (
		layerName string
		format    string
		limit     int
		bbox      string
	)

	cmd := &cobra.Command{
		Use:   "dump PATH",
		Short: "Print the features of a coverage layer as WKT or GeoJSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("format") {
				a.cfg.Format = format
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}

			opts, err := a.cfg.OpenOptions()
			if err != nil {
				return err
			}
			c, err := avc.Open(args[0], opts...)
			if err != nil {
				return err
			}
			defer c.Close()

			var layers []*avc.Layer
			if layerName != "" {
				l := c.LayerByName(layerName)
				if l == nil {
					return fmt.Errorf("coverage %s has no layer %q (layers: %s)",
						c.Name(), layerName, strings.Join(c.ListLayers(), ", "))
				}
				layers = append(layers, l)
			} else {
				layers = c.Layers()
			}

			var bounds *avc.Bounds
			if bbox != "" {
				b, err := parseBounds(bbox)
				if err != nil {
					return err
				}
				bounds = &b
			}

			feats, err := collectFeatures(layers, bounds, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if strings.EqualFold(a.cfg.Format, "geojson") {
				return writeGeoJSON(out, feats)
			}
			writeWKT(out, feats)
			return nil
		},
	}

	cmd.Flags().StringVarP(&layerName, "layer", "l", "", "layer to dump (ARC, CNT, LAB, PAL); all layers when empty")
	cmd.Flags().StringVarP(&format, "format", "f", "wkt", "output format (wkt, geojson)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum features per layer, 0 for all")
	cmd.Flags().StringVar(&bbox, "bbox", "", "only features intersecting minx,miny,maxx,maxy")
	return cmd
}

type layerFeature struct {
	layer   string
	feature *avc.Feature
}

func collectFeatures(layers []*avc.Layer, bounds *avc.Bounds, limit int) ([]layerFeature, error) {
	var out []layerFeature
	for _, l := range layers {
		var feats []*avc.Feature
		if bounds != nil {
			idx, err := l.Index()
			if err != nil {
				return nil, fmt.Errorf("indexing %s: %w", l.Name(), err)
			}
			feats = idx.FeaturesInBounds(*bounds)
			if limit > 0 && len(feats) > limit {
				feats = feats[:limit]
			}
		} else {
			err := l.ForEach(func(f *avc.Feature) bool {
				feats = append(feats, f)
				return limit <= 0 || len(feats) < limit
			})
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", l.Name(), err)
			}
		}
		for _, f := range feats {
			out = append(out, layerFeature{layer: l.Name(), feature: f})
		}
	}
	return out, nil
}

func writeWKT(w io.Writer, feats []layerFeature) {
	for _, lf := range feats {
		f := lf.feature
		geom := f.WKT()
		if geom == "" {
			geom = "EMPTY"
			if err := f.GeometryErr(); err != nil {
				geom = "EMPTY (" + err.Error() + ")"
			}
		}
		fmt.Fprintf(w, "%s %d\t%s", lf.layer, f.FID(), geom)
		props := f.Properties()
		for _, k := range sortedKeys(props) {
			fmt.Fprintf(w, "\t%s=%v", k, props[k])
		}
		fmt.Fprintln(w)
	}
}

func writeGeoJSON(w io.Writer, feats []layerFeature) error {
	fc := geojson.NewFeatureCollection()
	for _, lf := range feats {
		gf := lf.feature.GeoJSON()
		gf.Properties["layer"] = lf.layer
		fc.Append(gf)
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding GeoJSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseBounds(s string) (avc.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return avc.Bounds{}, fmt.Errorf("bbox %q: want minx,miny,maxx,maxy", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return avc.Bounds{}, fmt.Errorf("bbox %q: %w", s, err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return avc.Bounds{}, fmt.Errorf("bbox %q: minimum exceeds maximum", s)
	}
	return avc.Bounds{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}, nil
}
