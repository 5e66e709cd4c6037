package sim

import "testing"

// mustConfig builds a Config or fails the test.
func mustConfig(t *testing.T, p Params) Config {
	t.Helper()
	cfg, err := NewConfig(p)
	if err != nil {
		t.Fatalf("NewConfig(%+v): %v", p, err)
	}
	return cfg
}

// forwardOnlyParams is a 100-item backlog with every forward rate at 10,
// no new work, no rework, and a WIP limit that never binds.
func forwardOnlyParams() Params {
	return Params{
		InitialOpenTickets:  100,
		TicketOpenRate:      0,
		StartCodingRate:     10,
		TestingRate:         10,
		DeploymentRate:      10,
		CloseRate:           10,
		MaxConcurrentCoding: 100,
		Duration:            10,
	}
}

// assertNonNegative fails if any stock in any row is negative.
func assertNonNegative(t *testing.T, rows []StockRow) {
	t.Helper()
	for _, row := range rows {
		for i, v := range row.Values() {
			if v < 0 {
				t.Fatalf("step %d: %s = %d, want >= 0", row.TimeStep, StockNames[i], v)
			}
		}
	}
}
