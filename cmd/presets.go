package cmd

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/stockflow-sim/stockflow/sim"
)

// PresetsFile represents the full presets.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type PresetsFile struct {
	Version string                `yaml:"version"`
	Presets map[string]PresetSpec `yaml:"presets"`
}

// PresetSpec is a named scenario. Params holds any subset of the
// simulation parameters; omitted fields keep the value they are applied over.
type PresetSpec struct {
	Description string    `yaml:"description"`
	Params      yaml.Node `yaml:"params"`
}

// loadPresetsFile parses a presets file with strict field checking:
// typos in section names must cause errors.
func loadPresetsFile(path string) (*PresetsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading presets file: %w", err)
	}
	var pf PresetsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&pf); err != nil {
		return nil, fmt.Errorf("parsing presets file %s: %w", path, err)
	}
	return &pf, nil
}

// Names returns the preset names in sorted order.
func (pf *PresetsFile) Names() []string {
	names := make([]string, 0, len(pf.Presets))
	for name := range pf.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply overlays the preset's params onto base.
// Unknown parameter names are rejected.
func (ps PresetSpec) Apply(base sim.Params) (sim.Params, error) {
	if ps.Params.Kind == 0 {
		return base, nil
	}
	data, err := yaml.Marshal(&ps.Params)
	if err != nil {
		return base, fmt.Errorf("re-encoding preset params: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&base); err != nil {
		return base, fmt.Errorf("parsing preset params: %w", err)
	}
	return base, nil
}

// presetParams returns the defaults overlaid with the named preset.
func presetParams(path, name string) (sim.Params, error) {
	pf, err := loadPresetsFile(path)
	if err != nil {
		return sim.Params{}, err
	}
	ps, ok := pf.Presets[name]
	if !ok {
		return sim.Params{}, fmt.Errorf("unknown preset %q; available: %v", name, pf.Names())
	}
	return ps.Apply(sim.DefaultParams())
}
