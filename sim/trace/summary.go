package trace

import "github.com/stockflow-sim/stockflow/sim"

// Summarize computes the run summary of a loaded trace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(tr *Trace) sim.Summary {
	if tr == nil {
		return sim.Summary{}
	}
	return sim.Summarize(tr.Stocks, tr.Flows)
}
