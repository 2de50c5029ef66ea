package kv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"lintang/campusnav/pkg/datastructure"

	"github.com/cockroachdb/pebble"
)

var (
	historyPrefix     = []byte("history/")
	historyUpperBound = []byte("history0") // '/' + 1
)

// KVDB stores the route history in pebble. Keys are the history prefix
// followed by a big-endian sequence number, so iteration order is insertion
// order.
type KVDB struct {
	db  *pebble.DB
	mu  sync.Mutex
	seq uint64
	now func() time.Time
}

func NewKVDB(db *pebble.DB) (*KVDB, error) {
	k := &KVDB{db: db, now: time.Now}
	last, err := k.lastSeq()
	if err != nil {
		return nil, err
	}
	k.seq = last
	return k, nil
}

func historyKey(seq uint64) []byte {
	key := make([]byte, len(historyPrefix)+8)
	copy(key, historyPrefix)
	binary.BigEndian.PutUint64(key[len(historyPrefix):], seq)
	return key
}

func (k *KVDB) lastSeq() (uint64, error) {
	iter, err := k.db.NewIter(&pebble.IterOptions{
		LowerBound: historyPrefix,
		UpperBound: historyUpperBound,
	})
	if err != nil {
		return 0, fmt.Errorf("open history iterator: %w", err)
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, nil
	}
	key := iter.Key()
	if len(key) != len(historyPrefix)+8 {
		return 0, fmt.Errorf("malformed history key %q", key)
	}
	return binary.BigEndian.Uint64(key[len(historyPrefix):]), nil
}

// AppendRoute stores rec under the next sequence number and returns it with
// ID and CreatedAt filled in.
func (k *KVDB) AppendRoute(ctx context.Context, rec datastructure.RouteRecord) (datastructure.RouteRecord, error) {
	if err := ctx.Err(); err != nil {
		return datastructure.RouteRecord{}, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	rec.ID = k.seq + 1
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = k.now().UTC()
	}
	val, err := CompressRoute(rec)
	if err != nil {
		return datastructure.RouteRecord{}, fmt.Errorf("encode route %d: %w", rec.ID, err)
	}
	if err := k.db.Set(historyKey(rec.ID), val, pebble.Sync); err != nil {
		return datastructure.RouteRecord{}, fmt.Errorf("save route %d: %w", rec.ID, err)
	}
	k.seq = rec.ID
	return rec, nil
}

// GetRoute returns the history record with the given id.
func (k *KVDB) GetRoute(ctx context.Context, id uint64) (datastructure.RouteRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return datastructure.RouteRecord{}, false, err
	}
	val, closer, err := k.db.Get(historyKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return datastructure.RouteRecord{}, false, nil
	}
	if err != nil {
		return datastructure.RouteRecord{}, false, fmt.Errorf("get route %d: %w", id, err)
	}
	defer closer.Close()

	rec, err := LoadRoute(val)
	if err != nil {
		return datastructure.RouteRecord{}, false, fmt.Errorf("decode route %d: %w", id, err)
	}
	return rec, true, nil
}

// RecentRoutes returns at most limit records, newest first.
func (k *KVDB) RecentRoutes(ctx context.Context, limit int) ([]datastructure.RouteRecord, error) {
	routes := []datastructure.RouteRecord{}
	if limit <= 0 {
		return routes, nil
	}

	iter, err := k.db.NewIter(&pebble.IterOptions{
		LowerBound: historyPrefix,
		UpperBound: historyUpperBound,
	})
	if err != nil {
		return nil, fmt.Errorf("open history iterator: %w", err)
	}
	defer iter.Close()

	for valid := iter.Last(); valid && len(routes) < limit; valid = iter.Prev() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := LoadRoute(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("decode route %q: %w", iter.Key(), err)
		}
		routes = append(routes, rec)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return routes, nil
}

func (k *KVDB) Close() error {
	return k.db.Close()
}
