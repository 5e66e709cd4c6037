package sim

// Stocks is a snapshot of the five pipeline stages, always read together.
type Stocks struct {
	OpenTickets   int64 `json:"open_tickets" yaml:"open_tickets"`     // work waiting to start
	StartedCoding int64 `json:"started_coding" yaml:"started_coding"` // work in active development
	TestedCode    int64 `json:"tested_code" yaml:"tested_code"`       // passed testing, awaiting release
	DeployedCode  int64 `json:"deployed_code" yaml:"deployed_code"`   // staged for release, awaiting go-live
	ClosedTickets int64 `json:"closed_tickets" yaml:"closed_tickets"` // live in production
}

// Total returns the number of items held across all five stocks.
func (s Stocks) Total() int64 {
	return s.OpenTickets + s.StartedCoding + s.TestedCode + s.DeployedCode + s.ClosedTickets
}

// Flows holds the magnitudes realized during one transition.
type Flows struct {
	// Forward flows
	StartCoding int64 `json:"start_coding_flow" yaml:"start_coding_flow"` // open_tickets -> started_coding
	Testing     int64 `json:"testing_flow" yaml:"testing_flow"`           // started_coding -> tested_code
	Deployment  int64 `json:"deployment_flow" yaml:"deployment_flow"`     // tested_code -> deployed_code
	Closing     int64 `json:"closing_flow" yaml:"closing_flow"`           // deployed_code -> closed_tickets

	// Error flows (rework)
	TestingError    int64 `json:"testing_error_flow" yaml:"testing_error_flow"`       // tested_code -> started_coding
	DeploymentError int64 `json:"deployment_error_flow" yaml:"deployment_error_flow"` // deployed_code -> started_coding
	ProductionError int64 `json:"production_error_flow" yaml:"production_error_flow"` // closed_tickets -> open_tickets
}

// Forward returns the sum of the four forward flows.
func (f Flows) Forward() int64 {
	return f.StartCoding + f.Testing + f.Deployment + f.Closing
}

// Rework returns the sum of the three error flows.
func (f Flows) Rework() int64 {
	return f.TestingError + f.DeploymentError + f.ProductionError
}

// StockRow is one row of stock history.
type StockRow struct {
	TimeStep int `json:"time_step"`
	Stocks
}

// FlowRow is one row of flow history. The flows are those realized during
// the transition into TimeStep; row 0 is all zeros.
type FlowRow struct {
	TimeStep int `json:"time_step"`
	Flows
}

// Stock and flow column names, in history order.
var (
	StockNames = []string{"open_tickets", "started_coding", "tested_code", "deployed_code", "closed_tickets"}
	FlowNames  = []string{
		"start_coding_flow", "testing_flow", "deployment_flow", "closing_flow",
		"testing_error_flow", "deployment_error_flow", "production_error_flow",
	}
)

// Values returns the stocks in StockNames order.
func (s Stocks) Values() []int64 {
	return []int64{s.OpenTickets, s.StartedCoding, s.TestedCode, s.DeployedCode, s.ClosedTickets}
}

// Values returns the flows in FlowNames order.
func (f Flows) Values() []int64 {
	return []int64{f.StartCoding, f.Testing, f.Deployment, f.Closing, f.TestingError, f.DeploymentError, f.ProductionError}
}
