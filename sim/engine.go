// sim/engine.go
package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Transition computes one step from the current snapshot without touching
// any engine state. All flows are derived from current and applied together.
func Transition(cfg Config, current Stocks) (Stocks, Flows) {
	p := cfg.params

	// Forward flows, each bounded by its rate and by what is upstream.
	// Starting work is further bounded by the free WIP capacity.
	available := max(0, p.MaxConcurrentCoding-current.StartedCoding)
	f := Flows{
		StartCoding: min(p.StartCodingRate, current.OpenTickets, available),
		Testing:     min(p.TestingRate, current.StartedCoding),
		Deployment:  min(p.DeploymentRate, current.TestedCode),
		Closing:     min(p.CloseRate, current.DeployedCode),
	}

	// Error flows are floored, never rounded, and not rate limited.
	f.TestingError = floorFraction(current.TestedCode, p.TestingErrorRate)
	f.DeploymentError = floorFraction(current.DeployedCode, p.DeploymentErrorRate)
	f.ProductionError = floorFraction(current.ClosedTickets, p.ProductionErrorRate)

	next := Stocks{
		OpenTickets: max(0,
			current.OpenTickets+p.TicketOpenRate+f.ProductionError-f.StartCoding),
		StartedCoding: max(0,
			current.StartedCoding+f.StartCoding+f.TestingError+f.DeploymentError-f.Testing),
		TestedCode: max(0,
			current.TestedCode+f.Testing-f.TestingError-f.Deployment),
		DeployedCode: max(0,
			current.DeployedCode+f.Deployment-f.DeploymentError-f.Closing),
		ClosedTickets: max(0,
			current.ClosedTickets+f.Closing-f.ProductionError),
	}
	return next, f
}

func floorFraction(stock int64, rate float64) int64 {
	return int64(math.Floor(float64(stock) * rate))
}

// Engine owns the mutable simulation state: the current stocks, the step
// counter, and the stock and flow histories. An Engine is not safe for
// concurrent use; concurrent runs each build their own.
type Engine struct {
	cfg          Config
	stocks       Stocks
	step         int
	stockHistory []StockRow
	flowHistory  []FlowRow
}

// NewEngine creates an engine seeded with step 0 of cfg.
func NewEngine(cfg Config) *Engine {
	e := &Engine{cfg: cfg}
	e.Reset()
	return e
}

// Reset discards all run data and restores the initial stocks.
func (e *Engine) Reset() {
	e.stocks = e.cfg.params.InitialStocks()
	e.step = 0
	// Histories grow with the steps actually taken; duration is only a default.
	e.stockHistory = []StockRow{{TimeStep: 0, Stocks: e.stocks}}
	e.flowHistory = []FlowRow{{TimeStep: 0}}
}

// Step executes exactly one transition, records it, and returns the new stocks.
func (e *Engine) Step() Stocks {
	next, flows := Transition(e.cfg, e.stocks)
	e.stocks = next
	e.step++
	e.stockHistory = append(e.stockHistory, StockRow{TimeStep: e.step, Stocks: next})
	e.flowHistory = append(e.flowHistory, FlowRow{TimeStep: e.step, Flows: flows})

	logrus.Debugf("[step %05d] stocks=%+v forward=%d rework=%d", e.step, next, flows.Forward(), flows.Rework())
	return next
}

// Run steps the engine for the configured duration and returns the stock history.
func (e *Engine) Run() []StockRow {
	return e.RunSteps(e.cfg.Duration())
}

// RunSteps steps the engine n times in order and returns the stock history.
// n <= 0 runs nothing.
func (e *Engine) RunSteps(n int) []StockRow {
	for i := 0; i < n; i++ {
		e.Step()
	}
	logrus.Infof("[step %05d] Simulation ended", e.step)
	return e.StockHistory()
}

// StockHistory returns a copy of the stock history, one row per step from 0.
func (e *Engine) StockHistory() []StockRow {
	out := make([]StockRow, len(e.stockHistory))
	copy(out, e.stockHistory)
	return out
}

// FlowHistory returns a copy of the flow history, one row per step from 0.
func (e *Engine) FlowHistory() []FlowRow {
	out := make([]FlowRow, len(e.flowHistory))
	copy(out, e.flowHistory)
	return out
}

// CurrentFlows returns the most recent flows, all zero before the first step.
func (e *Engine) CurrentFlows() Flows {
	return e.flowHistory[len(e.flowHistory)-1].Flows
}

// Stocks returns the current stock snapshot.
func (e *Engine) Stocks() Stocks { return e.stocks }

// CurrentStep returns the number of steps taken since the last Reset.
func (e *Engine) CurrentStep() int { return e.step }

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }
