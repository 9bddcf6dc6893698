// Package metrics provides a Prometheus implementation of simpleadmin.Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
)

// Collector records post and media activity and the latest usage partition.
type Collector struct {
	postActions   *prometheus.CounterVec
	mediaActions  *prometheus.CounterVec
	mediaInUse    prometheus.Gauge
	mediaNotInUse prometheus.Gauge
	reconciles    prometheus.Counter
}

// New registers the admin metrics with reg. A nil reg uses a fresh registry.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Collector{
		postActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpleadmin_post_actions_total",
				Help: "Total number of post operations by action and status",
			},
			[]string{"action", "status"},
		),
		mediaActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpleadmin_media_actions_total",
				Help: "Total number of media operations by action and status",
			},
			[]string{"action", "status"},
		),
		mediaInUse: factory.NewGauge(prometheus.GaugeOpts{
			Name: "simpleadmin_media_in_use",
			Help: "Media objects referenced by content at the last reconciliation",
		}),
		mediaNotInUse: factory.NewGauge(prometheus.GaugeOpts{
			Name: "simpleadmin_media_not_in_use",
			Help: "Media objects not referenced by content at the last reconciliation",
		}),
		reconciles: factory.NewCounter(prometheus.CounterOpts{
			Name: "simpleadmin_reconciliations_total",
			Help: "Total number of image usage reconciliations",
		}),
	}
}

// ObservePostAction counts a post operation.
func (c *Collector) ObservePostAction(action string, err error) {
	c.postActions.WithLabelValues(action, status(err)).Inc()
}

// ObserveMediaAction counts a media operation.
func (c *Collector) ObserveMediaAction(action string, err error) {
	c.mediaActions.WithLabelValues(action, status(err)).Inc()
}

// ObserveUsage records the sizes of a usage partition.
func (c *Collector) ObserveUsage(partition simpleadmin.UsagePartition) {
	c.reconciles.Inc()
	c.mediaInUse.Set(float64(len(partition.InUse)))
	c.mediaNotInUse.Set(float64(len(partition.NotInUse)))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ simpleadmin.Metrics = (*Collector)(nil)
