// Package metrics exposes incident desk counters as Prometheus collectors.
package metrics

import (
	"fmt"

	"github.com/incidentdesk/incidentdesk"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "incidentdesk"

// Collectors returns one collector per desk counter. Values are read on every scrape.
func Collectors(d *incidentdesk.Desk) []prometheus.Collector {
	pool := d.Pool()
	queue := d.Queue()

	return []prometheus.Collector{
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "incidents_created_total",
				Help:      "Number of incidents reported by clients",
			},
			func() float64 {
				return float64(d.Stats().Created)
			}),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "incidents_started_total",
				Help:      "Number of incidents a server started resolving",
			},
			func() float64 {
				return float64(d.Stats().Started)
			}),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "incidents_resolved_total",
				Help:      "Number of incidents resolved by servers",
			},
			func() float64 {
				return float64(d.Stats().Resolved)
			}),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_length",
				Help:      "Number of incidents waiting for a server",
			},
			func() float64 {
				return float64(queue.Len())
			}),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "running_workers",
				Help:      "Number of running worker goroutines",
			},
			func() float64 {
				return float64(pool.RunningWorkers())
			}),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submitted_tasks_total",
				Help:      "Number of tasks submitted to the worker pool",
			},
			func() float64 {
				return float64(pool.SubmittedTasks())
			}),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "waiting_tasks",
				Help:      "Number of tasks waiting for a free worker",
			},
			func() float64 {
				return float64(pool.WaitingTasks())
			}),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failed_tasks_total",
				Help:      "Number of tasks that ended with a panic",
			},
			func() float64 {
				return float64(pool.FailedTasks())
			}),
	}
}

// Register registers the desk collectors with reg.
func Register(reg prometheus.Registerer, d *incidentdesk.Desk) error {
	for _, c := range Collectors(d) {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("registering incidentdesk metrics: %w", err)
		}
	}
	return nil
}
