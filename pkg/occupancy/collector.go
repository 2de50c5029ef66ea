package occupancy

import (
	"lintang/campusnav/pkg/datastructure"

	"github.com/prometheus/client_golang/prometheus"
)

type Snapshotter interface {
	Snapshot() map[string]datastructure.Occupancy
}

// Collector exports the current feed snapshot at scrape time.
type Collector struct {
	feed  Snapshotter
	count *prometheus.Desc
}

func NewCollector(feed Snapshotter) *Collector {
	return &Collector{
		feed: feed,
		count: prometheus.NewDesc(
			"campusnav_location_occupancy",
			"Current head count per campus location.",
			[]string{"location", "level"}, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.count
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for id, o := range c.feed.Snapshot() {
		ch <- prometheus.MustNewConstMetric(c.count, prometheus.GaugeValue, float64(o.Count), id, string(o.Level))
	}
}
