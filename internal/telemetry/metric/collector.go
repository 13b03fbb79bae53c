package metric

import "github.com/prometheus/client_golang/prometheus"

// KeyCounter reports store size.
type KeyCounter interface {
	// Len counts stored keys, including expired keys not yet purged.
	Len() int
	// ExpiredLen counts expired keys not yet purged.
	ExpiredLen() int
}

// Collector collects store statistics at scrape time.
type Collector struct {
	store   KeyCounter
	keys    *prometheus.Desc
	expired *prometheus.Desc
}

// NewCollector creates a collector reading from store.
func NewCollector(store KeyCounter) *Collector {
	return &Collector{
		store: store,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "", "keys"),
			"Stored keys, including expired keys not yet purged.",
			nil, nil,
		),
		expired: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "keys", "expired"),
			"Expired keys waiting to be purged on their next access.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.expired
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(c.store.Len()))
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.GaugeValue, float64(c.store.ExpiredLen()))
}
