package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/stockflow-sim/stockflow/sim"
	"github.com/stockflow-sim/stockflow/sim/telemetry"
	"github.com/stockflow-sim/stockflow/sim/trace"
)

// outputOptions selects what a finished run writes besides the summary.
type outputOptions struct {
	Preset      string
	HeaderPath  string
	StocksPath  string
	FlowsPath   string
	MetricsPath string
	JSON        bool
}

// writeOutputs prints the run summary to w and writes any requested files.
func writeOutputs(w io.Writer, engine *sim.Engine, opts outputOptions) error {
	stocks := engine.StockHistory()
	flows := engine.FlowHistory()

	if err := printSummary(w, sim.Summarize(stocks, flows), opts.JSON); err != nil {
		return err
	}

	if opts.HeaderPath != "" || opts.StocksPath != "" || opts.FlowsPath != "" {
		header := trace.NewTraceHeader(engine.Config(), engine.CurrentStep())
		header.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		header.Preset = opts.Preset
		if err := trace.ExportTrace(header, stocks, flows, opts.HeaderPath, opts.StocksPath, opts.FlowsPath); err != nil {
			return err
		}
		logrus.Infof("Trace written (header=%q stocks=%q flows=%q)", opts.HeaderPath, opts.StocksPath, opts.FlowsPath)
	}

	if opts.MetricsPath != "" {
		reg := prometheus.NewRegistry()
		rec, err := telemetry.NewRecorder(reg)
		if err != nil {
			return err
		}
		rec.Record(stocks, flows)
		if err := telemetry.WriteTextfile(opts.MetricsPath, reg); err != nil {
			return err
		}
		logrus.Infof("Metrics written to %s", opts.MetricsPath)
	}
	return nil
}

func printSummary(w io.Writer, s sim.Summary, asJSON bool) error {
	if !asJSON {
		s.Print(w)
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// summarizeTrace loads an exported run and prints its summary.
func summarizeTrace(w io.Writer, headerPath, stocksPath, flowsPath string, asJSON bool) error {
	tr, err := trace.LoadTrace(headerPath, stocksPath, flowsPath)
	if err != nil {
		return err
	}
	if tr.Header.Preset != "" {
		logrus.Infof("Trace preset: %s", tr.Header.Preset)
	}
	return printSummary(w, trace.Summarize(tr), asJSON)
}

func printConfig(w io.Writer, cfg sim.Config) {
	p := cfg.Params()
	_, _ = fmt.Fprintln(w, "Configuration valid.")
	_, _ = fmt.Fprintf(w, "  initial stocks : %+v\n", p.InitialStocks())
	_, _ = fmt.Fprintf(w, "  flow rates     : open=%d start=%d test=%d deploy=%d close=%d\n",
		p.TicketOpenRate, p.StartCodingRate, p.TestingRate, p.DeploymentRate, p.CloseRate)
	_, _ = fmt.Fprintf(w, "  WIP limit      : %d\n", p.MaxConcurrentCoding)
	_, _ = fmt.Fprintf(w, "  error rates    : testing=%.2f deployment=%.2f production=%.2f\n",
		p.TestingErrorRate, p.DeploymentErrorRate, p.ProductionErrorRate)
	_, _ = fmt.Fprintf(w, "  duration       : %d steps\n", cfg.Duration())
}

func printPresets(w io.Writer, pf *PresetsFile) {
	for _, name := range pf.Names() {
		_, _ = fmt.Fprintf(w, "%-14s %s\n", name, pf.Presets[name].Description)
	}
}
