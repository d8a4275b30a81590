package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresStrategyEnvVar(t *testing.T) {
	v := viper.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(v, flags))

	_, err := Load(v)
	assert.ErrorContains(t, err, EnvStrategy)
}

func TestLoadPicksUpStrategyFromViper(t *testing.T) {
	v := viper.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(v, flags))
	v.Set(EnvStrategy, "terra-loop-ust-luna")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "terra-loop-ust-luna", cfg.Strategy)
	assert.Equal(t, Default().NMax, cfg.NMax)
}

func TestParseThresholds(t *testing.T) {
	cfg := Default()
	cfg.Strategy = "x"
	parsed, err := cfg.ParseThresholds()
	require.NoError(t, err)
	assert.True(t, parsed.MinProfitRef.IsPositive())
	assert.True(t, parsed.MaxSingleAmount.IsPositive())
	assert.True(t, parsed.SeedAmount.IsPositive())
}

func TestParseThresholdsRejectsMalformedDecimal(t *testing.T) {
	cfg := Default()
	cfg.Strategy = "x"
	cfg.MinProfitRef = "not-a-number"
	_, err := cfg.ParseThresholds()
	assert.Error(t, err)
}
