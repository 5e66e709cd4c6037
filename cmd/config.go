package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stockflow-sim/stockflow/sim"
)

// EnvPrefix prefixes every environment override, e.g. STOCKFLOW_TESTING_RATE.
const EnvPrefix = "STOCKFLOW"

// configSources names the optional inputs layered under the CLI flags.
type configSources struct {
	Preset      string // preset name, empty for none
	PresetsPath string // presets.yaml location
	ConfigPath  string // explicit YAML config file, empty for none
}

// loadParams layers simulation parameters.
// Precedence (later overrides earlier):
//  1. sim.DefaultParams()
//  2. the named preset from the presets file
//  3. the explicit config file
//  4. environment variables (STOCKFLOW_*)
//  5. CLI flags that were explicitly set
//
// The result is not validated; pass it to sim.NewConfig.
func loadParams(v *viper.Viper, fs *pflag.FlagSet, src configSources) (sim.Params, error) {
	base := sim.DefaultParams()
	if src.Preset != "" {
		p, err := presetParams(src.PresetsPath, src.Preset)
		if err != nil {
			return sim.Params{}, err
		}
		base = p
	}

	baseMap, err := structToMap(base)
	if err != nil {
		return sim.Params{}, err
	}
	if err := v.MergeConfigMap(baseMap); err != nil {
		return sim.Params{}, err
	}

	if src.ConfigPath != "" {
		if err := mergeConfigFile(v, src.ConfigPath); err != nil {
			return sim.Params{}, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			key := flagKey(f.Name)
			if _, ok := baseMap[key]; !ok {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return sim.Params{}, bindErr
		}
	}

	var p sim.Params
	if err := v.Unmarshal(&p); err != nil {
		return sim.Params{}, fmt.Errorf("decoding parameters: %w", err)
	}
	return p, nil
}

// mergeConfigFile reads a YAML config file and merges it into v.
// The explicit file must exist.
func mergeConfigFile(v *viper.Viper, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer func() { _ = file.Close() }()

	fileViper := viper.New()
	fileViper.SetConfigType("yaml")
	if err := fileViper.ReadConfig(file); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return v.MergeConfigMap(fileViper.AllSettings())
}

// structToMap converts params to a map for viper.MergeConfigMap.
func structToMap(p sim.Params) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  &result,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(p); err != nil {
		return nil, err
	}
	return result, nil
}

// flagKey maps a flag name to its parameter key: ticket-open-rate -> ticket_open_rate.
func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// addParamFlags registers one flag per simulation parameter, defaulting to
// sim.DefaultParams. Defaults only apply when no other layer sets a value.
func addParamFlags(fs *pflag.FlagSet) {
	d := sim.DefaultParams()

	// Initial state
	fs.Int64("initial-open-tickets", d.InitialOpenTickets, "Items in the backlog at step 0")
	fs.Int64("initial-started-coding", d.InitialStartedCoding, "Items in development at step 0")
	fs.Int64("initial-tested-code", d.InitialTestedCode, "Tested items awaiting release at step 0")
	fs.Int64("initial-deployed-code", d.InitialDeployedCode, "Staged items awaiting go-live at step 0")
	fs.Int64("initial-closed-tickets", d.InitialClosedTickets, "Items live in production at step 0")

	// Flow rates
	fs.Int64("ticket-open-rate", d.TicketOpenRate, "New items added to the backlog per step")
	fs.Int64("start-coding-rate", d.StartCodingRate, "Items that can begin development per step")
	fs.Int64("testing-rate", d.TestingRate, "Items that can be tested per step")
	fs.Int64("deployment-rate", d.DeploymentRate, "Items that can be staged for release per step")
	fs.Int64("close-rate", d.CloseRate, "Items that can go live per step")

	// Capacity
	fs.Int64("max-concurrent-coding", d.MaxConcurrentCoding, "Maximum items in development at once (WIP limit)")

	// Error rates
	fs.Float64("testing-error-rate", d.TestingErrorRate, "Fraction of tested items sent back with bugs [0,1]")
	fs.Float64("deployment-error-rate", d.DeploymentErrorRate, "Fraction of staged releases blocked [0,1]")
	fs.Float64("production-error-rate", d.ProductionErrorRate, "Fraction of live items reopened as defects [0,1]")

	fs.Int("duration", d.Duration, "Number of time steps to simulate")
}
