// Package sim provides the discrete-time stock-and-flow engine for stockflow.
//
// # Reading Guide
//
// Start with these files:
//   - config.go: Params, the validated immutable Config, and ErrInvalidConfiguration
//   - stocks.go: the Stocks and Flows snapshots and the history row types
//   - engine.go: the per-step transition and the Engine that records history
//   - metrics.go: run summary derived from the two histories
//
// # Model
//
// Work moves left to right through five stocks:
//
//	open_tickets -> started_coding -> tested_code -> deployed_code -> closed_tickets
//
// Three error flows carry rework backwards: tested_code and deployed_code
// return items to started_coding, closed_tickets returns items to
// open_tickets. All flows of a step are computed from the pre-step snapshot
// and applied together; no stock is left negative.
//
// # Sub-packages
//
//   - sim/trace/: CSV + YAML export and reload of run history
//   - sim/telemetry/: Prometheus collectors fed from run history
//
// Neither sub-package mutates an Engine; they only read its histories.
package sim
