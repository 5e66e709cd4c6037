// Package telemetry exposes a run's history as Prometheus metrics.
// Collectors belong to a Recorder and are registered on a caller-supplied
// registry; nothing is registered on the default registry.
package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stockflow-sim/stockflow/sim"
)

const namespace = "stockflow"

// Recorder holds the collectors for one run.
type Recorder struct {
	stockItems *prometheus.GaugeVec
	flowItems  *prometheus.CounterVec
	steps      prometheus.Counter
}

// NewRecorder creates the collectors and registers them with r.
func NewRecorder(r prometheus.Registerer) (*Recorder, error) {
	rec := &Recorder{
		stockItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stock",
				Name:      "items",
				Help:      "Items held in each stock at the last recorded step.",
			}, []string{"stock"},
		),
		flowItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "flow",
				Name:      "items_total",
				Help:      "Items moved by each flow over the recorded steps.",
			}, []string{"flow"},
		),
		steps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_total",
				Help:      "Number of simulation steps recorded.",
			},
		),
	}
	for _, c := range []prometheus.Collector{rec.stockItems, rec.flowItems, rec.steps} {
		if err := r.Register(c); err != nil {
			return nil, fmt.Errorf("registering stockflow collectors: %w", err)
		}
	}
	// Pre-create every series so unused flows still export as 0.
	for _, name := range sim.StockNames {
		rec.stockItems.WithLabelValues(name)
	}
	for _, name := range sim.FlowNames {
		rec.flowItems.WithLabelValues(name)
	}
	return rec, nil
}

// Record sets the stock gauges to the last stock row and adds every flow
// row after the seed row to the flow counters.
func (rec *Recorder) Record(stocks []sim.StockRow, flows []sim.FlowRow) {
	if len(stocks) > 0 {
		last := stocks[len(stocks)-1]
		for i, v := range last.Values() {
			rec.stockItems.WithLabelValues(sim.StockNames[i]).Set(float64(v))
		}
	}
	for _, row := range flows {
		if row.TimeStep == 0 {
			continue
		}
		rec.steps.Inc()
		for i, v := range row.Values() {
			// Counters reject negative adds; negative flows only arise from negative rates.
			if v > 0 {
				rec.flowItems.WithLabelValues(sim.FlowNames[i]).Add(float64(v))
			}
		}
	}
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format read by node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
