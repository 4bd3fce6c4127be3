package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bastiangx/wordsim/pkg/config"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func TestConfigCommandSavesGivenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordsim.toml")
	require.NoError(t, config.SaveConfig(config.DefaultConfig(), path))
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	a := &app{ctx: context.Background(), cfg: cfg, configPath: path}
	require.NoError(t, a.configCmd([]string{"-top-n", "7", "-min-sim", "0.25"}))

	back, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, back.Query.DefaultTopN)
	assert.InDelta(t, 0.25, back.Thesaurus.MinSimilarity, 1e-9)
	assert.Equal(t, config.DefaultConfig().Query.MaxTopN, back.Query.MaxTopN, "flags not given stay untouched")
}

func TestConfigCommandWithoutFile(t *testing.T) {
	a := &app{ctx: context.Background(), cfg: config.DefaultConfig()}
	require.NoError(t, a.configCmd(nil), "printing needs no file")
	require.Error(t, a.configCmd([]string{"-top-n", "3"}))
}

func TestConfigCommandRejectsBadFlag(t *testing.T) {
	a := &app{ctx: context.Background(), cfg: config.DefaultConfig(), configPath: filepath.Join(t.TempDir(), "x.toml")}
	require.Error(t, a.configCmd([]string{"-top-n", "many"}))
}
