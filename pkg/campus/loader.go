package campus

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"lintang/campusnav/pkg/datastructure"

	jsoniter "github.com/json-iterator/go"
)

//go:embed data/locations.json
var embeddedLocations []byte

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoadEmbedded builds the graph of the bundled campus dataset.
func LoadEmbedded() (*LocationGraph, error) {
	return DecodeJSON(bytes.NewReader(embeddedLocations))
}

// LoadJSONFile builds a graph from a JSON array of locations on disk.
func LoadJSONFile(path string) (*LocationGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open location dataset: %w", err)
	}
	defer f.Close()
	return DecodeJSON(f)
}

func DecodeJSON(r io.Reader) (*LocationGraph, error) {
	var locs []datastructure.Location
	if err := json.NewDecoder(r).Decode(&locs); err != nil {
		return nil, fmt.Errorf("decode location dataset: %w", err)
	}
	return NewLocationGraph(locs)
}

// EncodeJSON writes locs in the same format DecodeJSON reads.
func EncodeJSON(w io.Writer, locs []datastructure.Location) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(locs); err != nil {
		return fmt.Errorf("encode location dataset: %w", err)
	}
	return nil
}
