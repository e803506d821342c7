package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/avc/pkg/avc"
)

func main() {
	cov, err := avc.Open("data/wells.e00", mustEncoding("cp1252"))
	if err != nil {
		log.Fatal(err)
	}
	defer cov.Close()

	labels := cov.LayerByName("LAB")
	if labels == nil {
		log.Fatal("coverage has no label points")
	}

	// Schema: ValueId, PolyId, then the PAT items
	for _, f := range labels.Fields() {
		fmt.Printf("%-16s %s\n", f.Name, f.Type)
	}

	name := labels.FieldIndex("NAME")
	err = labels.ForEach(func(f *avc.Feature) bool {
		valueID, _ := f.Int(0)
		if s, ok := f.Text(name); ok {
			fmt.Printf("%d: %s\n", valueID, s)
		} else {
			fmt.Printf("%d: no attribute row\n", valueID)
		}
		return true
	})
	if err != nil {
		log.Fatal(err)
	}

	// INFO tables not joined to a layer are read row by row
	rows, err := cov.Rows("BND")
	if err != nil {
		return
	}
	defer rows.Close()
	for rows.Next() {
		fmt.Println("BND:", rows.Row())
	}
}

func mustEncoding(name string) avc.Option {
	enc, err := avc.EncodingByName(name)
	if err != nil {
		log.Fatal(err)
	}
	return avc.WithEncoding(enc)
}
