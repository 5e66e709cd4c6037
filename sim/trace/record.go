// Package trace exports and reloads the stock and flow history of a run.
// Histories are written as two CSV files; run metadata goes in a YAML header.
package trace

import (
	"fmt"
	"strconv"

	"github.com/stockflow-sim/stockflow/sim"
)

// CSV column headers. time_step is always the first column.
var (
	stockColumns = append([]string{"time_step"}, sim.StockNames...)
	flowColumns  = append([]string{"time_step"}, sim.FlowNames...)
)

func formatRow(step int, values []int64) []string {
	row := make([]string, 0, len(values)+1)
	row = append(row, strconv.Itoa(step))
	for _, v := range values {
		row = append(row, strconv.FormatInt(v, 10))
	}
	return row
}

// parseRow parses a time step followed by n integer columns.
func parseRow(row []string, n int) (int, []int64, error) {
	if len(row) != n+1 {
		return 0, nil, fmt.Errorf("CSV row has %d columns, expected %d", len(row), n+1)
	}
	step, err := strconv.Atoi(row[0])
	if err != nil {
		return 0, nil, fmt.Errorf("parsing time_step %q: %w", row[0], err)
	}
	values := make([]int64, n)
	for i := range values {
		v, err := strconv.ParseInt(row[i+1], 10, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("step %d column %d: %w", step, i+1, err)
		}
		values[i] = v
	}
	return step, values, nil
}

func stockRowFromValues(step int, v []int64) sim.StockRow {
	return sim.StockRow{TimeStep: step, Stocks: sim.Stocks{
		OpenTickets:   v[0],
		StartedCoding: v[1],
		TestedCode:    v[2],
		DeployedCode:  v[3],
		ClosedTickets: v[4],
	}}
}

func flowRowFromValues(step int, v []int64) sim.FlowRow {
	return sim.FlowRow{TimeStep: step, Flows: sim.Flows{
		StartCoding:     v[0],
		Testing:         v[1],
		Deployment:      v[2],
		Closing:         v[3],
		TestingError:    v[4],
		DeploymentError: v[5],
		ProductionError: v[6],
	}}
}
