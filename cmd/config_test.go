package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockflow-sim/stockflow/sim"
)

func newParamFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addParamFlags(fs)
	fs.String("preset", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadParams_NoSources_ReturnsDefaults(t *testing.T) {
	p, err := loadParams(viper.New(), newParamFlagSet(t), configSources{})
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultParams(), p)
}

func TestLoadParams_UnchangedFlagsDoNotOverridePreset(t *testing.T) {
	// GIVEN a preset raising the production error rate and no flags set
	presets := writeTempFile(t, "presets.yaml", `
version: "1"
presets:
  risky:
    description: test
    params:
      production_error_rate: 0.5
`)

	// WHEN params are layered
	p, err := loadParams(viper.New(), newParamFlagSet(t), configSources{Preset: "risky", PresetsPath: presets})
	require.NoError(t, err)

	// THEN the preset value wins over the flag default
	assert.Equal(t, 0.5, p.ProductionErrorRate)
	assert.Equal(t, int64(100), p.InitialOpenTickets)
}

func TestLoadParams_Precedence(t *testing.T) {
	// GIVEN a preset, a config file, an env var and a flag each setting some fields
	presets := writeTempFile(t, "presets.yaml", `
version: "1"
presets:
  layered:
    description: test
    params:
      testing_rate: 11
      deployment_rate: 11
      close_rate: 11
      duration: 11
`)
	configFile := writeTempFile(t, "config.yaml", `
deployment_rate: 22
close_rate: 22
duration: 22
`)
	t.Setenv("STOCKFLOW_CLOSE_RATE", "33")
	t.Setenv("STOCKFLOW_DURATION", "33")
	fs := newParamFlagSet(t, "--duration=44")

	// WHEN params are layered
	p, err := loadParams(viper.New(), fs, configSources{
		Preset:      "layered",
		PresetsPath: presets,
		ConfigPath:  configFile,
	})
	require.NoError(t, err)

	// THEN each field comes from the highest layer that set it
	assert.Equal(t, int64(11), p.TestingRate, "preset")
	assert.Equal(t, int64(22), p.DeploymentRate, "config file")
	assert.Equal(t, int64(33), p.CloseRate, "env")
	assert.Equal(t, 44, p.Duration, "flag")
	assert.Equal(t, int64(10), p.StartCodingRate, "default")
}

func TestLoadParams_FlagOverridesErrorRate(t *testing.T) {
	fs := newParamFlagSet(t, "--testing-error-rate=0.4", "--max-concurrent-coding=7")

	p, err := loadParams(viper.New(), fs, configSources{})
	require.NoError(t, err)

	assert.Equal(t, 0.4, p.TestingErrorRate)
	assert.Equal(t, int64(7), p.MaxConcurrentCoding)
}

func TestLoadParams_MissingConfigFile_ReturnsError(t *testing.T) {
	_, err := loadParams(viper.New(), nil, configSources{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestLoadParams_UnknownPreset_ReturnsError(t *testing.T) {
	presets := writeTempFile(t, "presets.yaml", "version: \"1\"\npresets:\n  a:\n    description: x\n    params: {}\n")

	_, err := loadParams(viper.New(), nil, configSources{Preset: "b", PresetsPath: presets})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown preset "b"`)
}

func TestLoadParams_OutOfRangeValue_FailsValidation(t *testing.T) {
	// GIVEN a flag outside [0,1]
	fs := newParamFlagSet(t, "--testing-error-rate=1.5")

	// WHEN layered and validated
	p, err := loadParams(viper.New(), fs, configSources{})
	require.NoError(t, err)
	_, err = sim.NewConfig(p)

	// THEN validation rejects it
	assert.ErrorIs(t, err, sim.ErrInvalidConfiguration)
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "ticket_open_rate", flagKey("ticket-open-rate"))
	assert.Equal(t, "duration", flagKey("duration"))
}

func TestAddParamFlags_CoversEveryParam(t *testing.T) {
	// Every Params key must be settable from the command line.
	keys, err := structToMap(sim.DefaultParams())
	require.NoError(t, err)

	fs := newParamFlagSet(t)
	for key := range keys {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if flagKey(f.Name) == key {
				found = true
			}
		})
		assert.True(t, found, "no flag for %s", key)
	}
}
