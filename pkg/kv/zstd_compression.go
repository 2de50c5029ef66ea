package kv

import (
	"time"

	"lintang/campusnav/pkg/datastructure"

	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

// storedRoute is the on-disk form of a route history record.
type storedRoute struct {
	ID        uint64
	From      string
	To        string
	Stops     []string
	Distance  float64
	CreatedAt int64 // unix nano
}

func toStored(r datastructure.RouteRecord) storedRoute {
	return storedRoute{
		ID:        r.ID,
		From:      r.From,
		To:        r.To,
		Stops:     r.Stops,
		Distance:  r.Distance,
		CreatedAt: r.CreatedAt.UnixNano(),
	}
}

func (s storedRoute) toRecord() datastructure.RouteRecord {
	return datastructure.RouteRecord{
		ID:        s.ID,
		From:      s.From,
		To:        s.To,
		Stops:     s.Stops,
		Distance:  s.Distance,
		CreatedAt: time.Unix(0, s.CreatedAt).UTC(),
	}
}

func Encode(r datastructure.RouteRecord) ([]byte, error) {
	return binary.Marshal(toStored(r))
}

func Decode(bb []byte) (datastructure.RouteRecord, error) {
	var s storedRoute
	if err := binary.Unmarshal(bb, &s); err != nil {
		return datastructure.RouteRecord{}, err
	}
	return s.toRecord(), nil
}

func Compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func Decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}

	return bb, nil
}

func CompressRoute(r datastructure.RouteRecord) ([]byte, error) {
	bb, err := Encode(r)
	if err != nil {
		return nil, err
	}
	return Compress(bb)
}

func LoadRoute(bbCompressed []byte) (datastructure.RouteRecord, error) {
	bb, err := Decompress(bbCompressed)
	if err != nil {
		return datastructure.RouteRecord{}, err
	}
	return Decode(bb)
}
