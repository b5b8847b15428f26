// Package metrics defines the Prometheus metrics exported by spaceaccess.
//
// Counters are registered with the default registry on import. Occupancy is
// not a counter: OccupancyCollector rederives it from the event log on every
// scrape, so it can never drift from what the log says.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vbonduro/spaceaccess/internal/domain"
)

const namespace = "spaceaccess"

// ScansRecordedTotal counts events appended to the log.
// Label:
//   - event_type: entry, exit or manual
var ScansRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_recorded_total",
		Help:      "Total number of scan events appended to the event log.",
	},
	[]string{"event_type"},
)

// ScansRejectedTotal counts record attempts that did not produce an event.
// Label:
//   - reason: validation, not_found or error
var ScansRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_rejected_total",
		Help:      "Total number of scans rejected before an event was recorded.",
	},
	[]string{"reason"},
)

// RejectReason maps a record failure onto the ScansRejectedTotal label.
func RejectReason(err error) string {
	switch {
	case domain.IsValidation(err):
		return "validation"
	case domain.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}

// OccupancySource is implemented by service.Tracker.
type OccupancySource interface {
	OccupancyAll(ctx context.Context) ([]*domain.Occupancy, error)
}

// OccupancyCollector exposes current occupancy per location.
type OccupancyCollector struct {
	source  OccupancySource
	timeout time.Duration

	current  *prometheus.Desc
	capacity *prometheus.Desc
	over     *prometheus.Desc
}

func NewOccupancyCollector(source OccupancySource) *OccupancyCollector {
	labels := []string{"location_id", "location"}
	return &OccupancyCollector{
		source:  source,
		timeout: 5 * time.Second,
		current: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "occupancy", "current"),
			"Number of people whose latest event at the location is an entry.",
			labels, nil,
		),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "occupancy", "capacity"),
			"Configured capacity of the location. Absent for unbounded locations.",
			labels, nil,
		),
		over: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "occupancy", "over_capacity"),
			"1 when the location is over capacity, 0 otherwise.",
			labels, nil,
		),
	}
}

func (c *OccupancyCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.current
	ch <- c.capacity
	ch <- c.over
}

func (c *OccupancyCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	all, err := c.source.OccupancyAll(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.current, err)
		return
	}

	for _, occ := range all {
		id := occ.LocationID.String()
		ch <- prometheus.MustNewConstMetric(c.current, prometheus.GaugeValue, float64(occ.Count), id, occ.LocationName)
		if occ.Capacity != nil {
			ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(*occ.Capacity), id, occ.LocationName)
		}
		over := 0.0
		if occ.OverCapacity {
			over = 1
		}
		ch <- prometheus.MustNewConstMetric(c.over, prometheus.GaugeValue, over, id, occ.LocationName)
	}
}
