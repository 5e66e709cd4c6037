// Summarizes a run's throughput from its stock and flow histories.

package sim

import (
	"fmt"
	"io"
)

// Summary aggregates key throughput figures of a finished run
// for final reporting.
type Summary struct {
	StepsRun         int     `json:"steps_run"`
	FinalClosed      int64   `json:"final_closed"`      // items live in production at the last step
	FinalBacklog     int64   `json:"final_backlog"`     // open_tickets at the last step
	PeakWIP          int64   `json:"peak_wip"`          // max started_coding over the run
	AvgVelocity      float64 `json:"avg_velocity"`      // FinalClosed / StepsRun
	TotalStarted     int64   `json:"total_started"`     // sum of start_coding_flow
	TotalClosed      int64   `json:"total_closed"`      // sum of closing_flow
	TestingRework    int64   `json:"testing_rework"`    // sum of testing_error_flow
	DeploymentRework int64   `json:"deployment_rework"` // sum of deployment_error_flow
	ProductionRework int64   `json:"production_rework"` // sum of production_error_flow
}

// Summarize computes a Summary from the two histories of a run.
// Safe for empty histories (returns zero-value fields).
func Summarize(stocks []StockRow, flows []FlowRow) Summary {
	var s Summary
	if len(stocks) == 0 {
		return s
	}

	last := stocks[len(stocks)-1]
	s.StepsRun = last.TimeStep
	s.FinalClosed = last.ClosedTickets
	s.FinalBacklog = last.OpenTickets
	for _, row := range stocks {
		if row.StartedCoding > s.PeakWIP {
			s.PeakWIP = row.StartedCoding
		}
	}
	if s.StepsRun > 0 {
		s.AvgVelocity = float64(s.FinalClosed) / float64(s.StepsRun)
	}

	for _, row := range flows {
		s.TotalStarted += row.StartCoding
		s.TotalClosed += row.Closing
		s.TestingRework += row.TestingError
		s.DeploymentRework += row.DeploymentError
		s.ProductionRework += row.ProductionError
	}
	return s
}

// Print writes the summary in a fixed-width report.
func (s Summary) Print(w io.Writer) {
	_, _ = fmt.Fprintln(w, "=== Simulation Metrics ===")
	_, _ = fmt.Fprintf(w, "Steps Run            : %d\n", s.StepsRun)
	_, _ = fmt.Fprintf(w, "Live in Production   : %d\n", s.FinalClosed)
	_, _ = fmt.Fprintf(w, "Items in Backlog     : %d\n", s.FinalBacklog)
	_, _ = fmt.Fprintf(w, "Peak Work in Progress: %d\n", s.PeakWIP)
	_, _ = fmt.Fprintf(w, "Avg Velocity         : %.1f items/step\n", s.AvgVelocity)
	if s.StepsRun > 0 {
		_, _ = fmt.Fprintf(w, "Total Started        : %d\n", s.TotalStarted)
		_, _ = fmt.Fprintf(w, "Total Closed         : %d\n", s.TotalClosed)
		_, _ = fmt.Fprintf(w, "Rework (test/deploy/prod): %d / %d / %d\n",
			s.TestingRework, s.DeploymentRework, s.ProductionRework)
	}
}
