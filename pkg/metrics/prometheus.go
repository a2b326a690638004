package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scanDuration  *prometheus.HistogramVec
	storeListings *prometheus.GaugeVec
	storeSkips    *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	drops         *prometheus.CounterVec
	observers     prometheus.Gauge
	errorsTotal   *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		scanDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "priceradar_catalog_scan_seconds",
				Help:    "Duration of one store catalog scan",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"store"},
		),
		storeListings: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "priceradar_store_listings",
				Help: "Listings read from a store on the last scan",
			},
			[]string{"store"},
		),
		storeSkips: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "priceradar_store_skips_total",
				Help: "Stores skipped during aggregation, by reason",
			},
			[]string{"store", "reason"},
		),
		deliveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "priceradar_broadcast_deliveries_total",
				Help: "Events delivered to observer connections",
			},
			[]string{"event"},
		),
		drops: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "priceradar_broadcast_drops_total",
				Help: "Events dropped for slow or gone observers",
			},
			[]string{"event"},
		),
		observers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "priceradar_observers_connected",
				Help: "Currently connected realtime observers",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "priceradar_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordScan records one store scan's listing count and duration.
func (r *Recorder) RecordScan(store string, listings int, seconds float64) {
	r.scanDuration.WithLabelValues(store).Observe(seconds)
	r.storeListings.WithLabelValues(store).Set(float64(listings))
}

// RecordStoreSkip records a store excluded from an aggregation pass.
func (r *Recorder) RecordStoreSkip(store, reason string) {
	r.storeSkips.WithLabelValues(store, reason).Inc()
}

// RecordDelivery records one event delivered to one observer.
func (r *Recorder) RecordDelivery(event string) {
	r.deliveries.WithLabelValues(event).Inc()
}

// RecordDrop records one event dropped for one observer.
func (r *Recorder) RecordDrop(event string) {
	r.drops.WithLabelValues(event).Inc()
}

// SetObservers records the current observer count.
func (r *Recorder) SetObservers(n int) {
	r.observers.Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
