package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockflow-sim/stockflow/sim"
)

func newTestEngine(t *testing.T, steps int) *sim.Engine {
	t.Helper()
	cfg, err := sim.NewConfig(sim.DefaultParams())
	require.NoError(t, err)
	e := sim.NewEngine(cfg)
	e.RunSteps(steps)
	return e
}

func TestWriteOutputs_SummaryOnStdout(t *testing.T) {
	// GIVEN a completed run
	e := newTestEngine(t, 20)

	// WHEN outputs are written with no files requested
	var buf bytes.Buffer
	require.NoError(t, writeOutputs(&buf, e, outputOptions{}))

	// THEN the summary report is printed
	assert.Contains(t, buf.String(), "=== Simulation Metrics ===")
	assert.Contains(t, buf.String(), "Steps Run            : 20")
}

func TestWriteOutputs_JSONSummary(t *testing.T) {
	e := newTestEngine(t, 5)

	var buf bytes.Buffer
	require.NoError(t, writeOutputs(&buf, e, outputOptions{JSON: true}))

	var got sim.Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sim.Summarize(e.StockHistory(), e.FlowHistory()), got)
}

func TestWriteOutputs_AllFiles(t *testing.T) {
	// GIVEN a completed run and every output path requested
	e := newTestEngine(t, 15)
	dir := t.TempDir()
	opts := outputOptions{
		Preset:      "default",
		HeaderPath:  filepath.Join(dir, "header.yaml"),
		StocksPath:  filepath.Join(dir, "stocks.csv"),
		FlowsPath:   filepath.Join(dir, "flows.csv"),
		MetricsPath: filepath.Join(dir, "stockflow.prom"),
	}

	// WHEN outputs are written
	var buf bytes.Buffer
	require.NoError(t, writeOutputs(&buf, e, opts))

	// THEN every file exists
	for _, p := range []string{opts.HeaderPath, opts.StocksPath, opts.FlowsPath, opts.MetricsPath} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}

	// AND the exported trace summarizes to the same report
	var again bytes.Buffer
	require.NoError(t, summarizeTrace(&again, opts.HeaderPath, opts.StocksPath, opts.FlowsPath, false))
	assert.Equal(t, buf.String(), again.String())
}

func TestSummarizeTrace_MissingFiles_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	err := summarizeTrace(&buf, filepath.Join(dir, "h.yaml"), filepath.Join(dir, "s.csv"), filepath.Join(dir, "f.csv"), false)
	assert.Error(t, err)
}

func TestPrintConfig(t *testing.T) {
	cfg, err := sim.NewConfig(sim.DefaultParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	printConfig(&buf, cfg)

	assert.Contains(t, buf.String(), "Configuration valid.")
	assert.Contains(t, buf.String(), "WIP limit      : 50")
	assert.Contains(t, buf.String(), "testing=0.15 deployment=0.10 production=0.25")
}

func TestPrintPresets(t *testing.T) {
	pf := &PresetsFile{Presets: map[string]PresetSpec{
		"lean":    {Description: "small backlog"},
		"default": {Description: "reference"},
	}}

	var buf bytes.Buffer
	printPresets(&buf, pf)

	assert.Equal(t, "default        reference\nlean           small backlog\n", buf.String())
}

func TestSetupLogging_FileOutput(t *testing.T) {
	// GIVEN a log file path
	path := filepath.Join(t.TempDir(), "stockflow.log")
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
	})

	// WHEN logging is set up and a line is logged
	closer, err := setupLogging("debug", path, LogRotationConfig{})
	require.NoError(t, err)
	logrus.Debug("hello from test")
	require.NoError(t, closer.Close())

	// THEN the line lands in the file
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestSetupLogging_InvalidLevel(t *testing.T) {
	_, err := setupLogging("chatty", "", LogRotationConfig{})

	// The cause is kept so the CLI reports what actually failed.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing log level")
	assert.Contains(t, err.Error(), "chatty")
}

func TestValOr(t *testing.T) {
	assert.Equal(t, 10, valOr(0, 10))
	assert.Equal(t, 10, valOr(-1, 10))
	assert.Equal(t, 4, valOr(4, 10))
}
