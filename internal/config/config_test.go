package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, []string{
		"stun:stun.l.google.com:19302",
		"stun:stun1.l.google.com:19302",
	}, cfg.STUNServers)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("PEERCHAT_ADDR", ":9999")
	t.Setenv("PEERCHAT_STUN", "stun:example.com:3478")

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, []string{"stun:example.com:3478"}, cfg.STUNServers)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PEERCHAT_ADDR", ":9999")
	t.Setenv("PEERCHAT_LOG_LEVEL", "error")

	cfg, err := Load(Options{ListenAddr: ":7777", LogLevel: "debug"})
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestSTUNListParsing(t *testing.T) {
	cfg, err := Load(Options{STUN: " stun:a:1 , stun:b:2 ,, "})
	require.NoError(t, err)

	assert.Equal(t, []string{"stun:a:1", "stun:b:2"}, cfg.STUNServers)
}
