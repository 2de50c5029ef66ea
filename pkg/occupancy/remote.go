package occupancy

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"lintang/campusnav/pkg/datastructure"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Feed is what the rest of the service reads from an occupancy source.
type Feed interface {
	Occupancy(locationID string) datastructure.Occupancy
	Snapshot() map[string]datastructure.Occupancy
	Updates() []datastructure.OccupancyUpdate
}

type remoteReading struct {
	Level datastructure.CrowdLevel `json:"level"`
	Count int                      `json:"count"`
}

// RemoteFeed polls an HTTP endpoint returning
// {"<location id>": {"level": "low|medium|high", "count": n}}.
type RemoteFeed struct {
	url     string
	client  *httpclient.Client
	resolve func(string) string
	known   func(string) bool

	mu      sync.RWMutex
	data    map[string]datastructure.Occupancy
	updates []datastructure.OccupancyUpdate
	now     func() time.Time
}

type RemoteOption func(*RemoteFeed)

// WithKnown drops readings whose resolved id is not a known location.
func WithKnown(known func(string) bool) RemoteOption {
	return func(f *RemoteFeed) {
		f.known = known
	}
}

// WithResolver maps the ids of the remote feed to canonical location ids.
func WithResolver(resolve func(string) string) RemoteOption {
	return func(f *RemoteFeed) {
		f.resolve = resolve
	}
}

func NewRemoteFeed(url string, timeout time.Duration, retries int, opts ...RemoteOption) *RemoteFeed {
	backoff := heimdall.NewConstantBackoff(100*time.Millisecond, 50*time.Millisecond)
	f := &RemoteFeed{
		url: url,
		client: httpclient.NewClient(
			httpclient.WithHTTPTimeout(timeout),
			httpclient.WithRetryCount(retries),
			httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		),
		resolve: func(id string) string { return id },
		known:   func(string) bool { return true },
		data:    make(map[string]datastructure.Occupancy),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Poll fetches the feed once and merges it into the snapshot. Entries with an
// unknown location, an unknown level or a negative count are skipped.
func (f *RemoteFeed) Poll(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return fmt.Errorf("build occupancy request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := f.client.Do(req)
	if res != nil {
		defer res.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("fetch occupancy feed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch occupancy feed: unexpected status %d", res.StatusCode)
	}

	var readings map[string]remoteReading
	if err := json.NewDecoder(res.Body).Decode(&readings); err != nil {
		return fmt.Errorf("decode occupancy feed: %w", err)
	}

	at := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()
	for rawID, r := range readings {
		if !r.Level.Valid() || r.Count < 0 {
			continue
		}
		id := f.resolve(rawID)
		if !f.known(id) {
			continue
		}
		prev, seen := f.data[id]
		f.data[id] = datastructure.Occupancy{Level: r.Level, Count: r.Count, UpdatedAt: at}
		if seen && prev.Level != r.Level {
			f.updates = pushUpdate(f.updates, datastructure.OccupancyUpdate{
				LocationID: id,
				Level:      r.Level,
				Previous:   prev.Level,
				At:         at,
			})
		}
	}
	return nil
}

// Run polls every interval until ctx is done. Poll errors go to onErr and do
// not stop the loop.
func (f *RemoteFeed) Run(ctx context.Context, interval time.Duration, onErr func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := f.Poll(ctx); err != nil && ctx.Err() == nil && onErr != nil {
			onErr(err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (f *RemoteFeed) Occupancy(locationID string) datastructure.Occupancy {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if o, ok := f.data[locationID]; ok {
		return o
	}
	return datastructure.DefaultOccupancy()
}

func (f *RemoteFeed) Snapshot() map[string]datastructure.Occupancy {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]datastructure.Occupancy, len(f.data))
	for id, o := range f.data {
		out[id] = o
	}
	return out
}

func (f *RemoteFeed) Updates() []datastructure.OccupancyUpdate {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]datastructure.OccupancyUpdate{}, f.updates...)
}
