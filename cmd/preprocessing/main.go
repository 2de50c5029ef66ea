package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"lintang/campusnav/pkg/campus"
	"lintang/campusnav/pkg/osmparser"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

var (
	mapFile = flag.String("f", "campus.osm", "openstreetmap extract with campusnav:id nodes and campusnav:path ways")
	outFile = flag.String("o", "locations.json", "output location dataset")
)

func newBar(max int64, step string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(max,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(step),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func main() {
	flag.Parse()

	f, err := os.Open(*mapFile)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		log.Fatal(err)
	}

	bar := newBar(st.Size(), "[cyan][1/3][reset] reading openstreetmap extract...")
	reader := progressbar.NewReader(f, bar)
	locs, err := osmparser.LoadOSM(context.Background(), &reader)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("")

	bar = newBar(int64(len(locs)), "[cyan][2/3][reset] validating campus locations...")
	g, err := campus.NewLocationGraph(locs)
	if err != nil {
		log.Fatal(err)
	}
	bar.Add(len(locs))
	fmt.Println("")

	report := g.Audit()
	for _, d := range report.Dangling {
		fmt.Printf("warning: %s connects to unknown location %s\n", d.From, d.To)
	}
	for _, id := range report.SelfLoops {
		fmt.Printf("warning: %s connects to itself\n", id)
	}
	fmt.Printf("%d one-way connections\n", len(report.Asymmetric))

	out, err := os.Create(*outFile)
	if err != nil {
		log.Fatal(err)
	}
	defer out.Close()

	bar = newBar(1, "[cyan][3/3][reset] writing location dataset...")
	if err := campus.EncodeJSON(out, g.All()); err != nil {
		log.Fatal(err)
	}
	bar.Add(1)

	fmt.Printf("\n%d locations written to %s\n", g.Len(), *outFile)
}
