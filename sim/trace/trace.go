package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stockflow-sim/stockflow/sim"
)

// TraceVersion is written to every header.
const TraceVersion = 1

// TraceHeader captures metadata for an exported run.
type TraceHeader struct {
	Version   int        `yaml:"trace_version"`
	CreatedAt string     `yaml:"created_at,omitempty"`
	Preset    string     `yaml:"preset,omitempty"`
	StepsRun  int        `yaml:"steps_run"`
	Params    sim.Params `yaml:"params"`
}

// NewTraceHeader builds a header for a run of cfg that took stepsRun steps.
func NewTraceHeader(cfg sim.Config, stepsRun int) *TraceHeader {
	return &TraceHeader{
		Version:  TraceVersion,
		StepsRun: stepsRun,
		Params:   cfg.Params(),
	}
}

// Trace combines header and both histories of a run.
type Trace struct {
	Header TraceHeader
	Stocks []sim.StockRow
	Flows  []sim.FlowRow
}

// ExportTrace writes the header (YAML) and the stock and flow histories (CSV)
// to separate files. An empty path skips that file.
func ExportTrace(header *TraceHeader, stocks []sim.StockRow, flows []sim.FlowRow, headerPath, stockPath, flowPath string) error {
	if headerPath != "" {
		data, err := yaml.Marshal(header)
		if err != nil {
			return fmt.Errorf("marshaling trace header: %w", err)
		}
		if err := os.WriteFile(headerPath, data, 0644); err != nil {
			return fmt.Errorf("writing trace header: %w", err)
		}
	}
	if stockPath != "" {
		if err := writeFile(stockPath, func(w io.Writer) error { return WriteStockCSV(w, stocks) }); err != nil {
			return fmt.Errorf("writing stock history: %w", err)
		}
	}
	if flowPath != "" {
		if err := writeFile(flowPath, func(w io.Writer) error { return WriteFlowCSV(w, flows) }); err != nil {
			return fmt.Errorf("writing flow history: %w", err)
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteStockCSV writes the stock history with a header row.
func WriteStockCSV(w io.Writer, rows []sim.StockRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(stockColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(formatRow(r.TimeStep, r.Values())); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", r.TimeStep, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFlowCSV writes the flow history with a header row.
func WriteFlowCSV(w io.Writer, rows []sim.FlowRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(flowColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(formatRow(r.TimeStep, r.Values())); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", r.TimeStep, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// LoadTrace reads a header (YAML) and the two history CSVs written by ExportTrace.
func LoadTrace(headerPath, stockPath, flowPath string) (*Trace, error) {
	headerData, err := os.ReadFile(headerPath)
	if err != nil {
		return nil, fmt.Errorf("reading trace header: %w", err)
	}
	var header TraceHeader
	if err := yaml.Unmarshal(headerData, &header); err != nil {
		return nil, fmt.Errorf("parsing trace header: %w", err)
	}

	stocks, err := loadStockCSV(stockPath)
	if err != nil {
		return nil, err
	}
	flows, err := loadFlowCSV(flowPath)
	if err != nil {
		return nil, err
	}
	if len(stocks) != len(flows) {
		return nil, fmt.Errorf("stock history has %d rows but flow history has %d", len(stocks), len(flows))
	}
	return &Trace{Header: header, Stocks: stocks, Flows: flows}, nil
}

func loadStockCSV(path string) ([]sim.StockRow, error) {
	var rows []sim.StockRow
	err := readCSV(path, len(sim.StockNames), func(step int, values []int64) {
		rows = append(rows, stockRowFromValues(step, values))
	})
	if err != nil {
		return nil, fmt.Errorf("loading stock history: %w", err)
	}
	return rows, nil
}

func loadFlowCSV(path string) ([]sim.FlowRow, error) {
	var rows []sim.FlowRow
	err := readCSV(path, len(sim.FlowNames), func(step int, values []int64) {
		rows = append(rows, flowRowFromValues(step, values))
	})
	if err != nil {
		return nil, fmt.Errorf("loading flow history: %w", err)
	}
	return rows, nil
}

// readCSV skips the header row and hands each parsed data row to emit.
func readCSV(path string, n int, emit func(step int, values []int64)) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("reading CSV header: %w", err)
	}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading CSV row: %w", err)
		}
		step, values, err := parseRow(row, n)
		if err != nil {
			return err
		}
		emit(step, values)
	}
	return nil
}
