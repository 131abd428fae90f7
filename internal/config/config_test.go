package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "witness-console.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const operatorBlock = `
operator:
  username: operator
  password_hash: "$2a$10$abcdefghijklmnopqrstuu"
  session_secret: "0123456789abcdef0123456789abcdef"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, operatorBlock))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Addr)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Backend.BaseURL)
	assert.Equal(t, "ws://127.0.0.1:8000", cfg.Backend.WSURL)
	assert.Equal(t, "cameraData", cfg.Redis.CameraListKey)
	assert.Equal(t, DuplicateLabelsAllow, cfg.Registry.DuplicateLabels)
	assert.Equal(t, DefaultEventCapacity, cfg.Mirror.EventCapacity)
	assert.Equal(t, DefaultRequestTimeout, cfg.Backend.RequestTimeout)
	assert.Equal(t, DefaultSessionDB, cfg.Redis.SessionDB)
}

func TestLoadExplicitZeroDisablesLimits(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
backend:
  request_timeout: 0s
mirror:
  event_capacity: 0
`+operatorBlock))
	require.NoError(t, err)

	assert.Zero(t, cfg.Backend.RequestTimeout)
	assert.Zero(t, cfg.Mirror.EventCapacity)
}

func TestLoadKeepsSessionDBZero(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
redis:
  session_db: 0
`+operatorBlock))
	require.NoError(t, err)
	assert.Zero(t, cfg.Redis.SessionDB)
}

func TestLoadDerivesSecureWebSocketURL(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
backend:
  base_url: "https://witness.local/"
  request_timeout: 5s
mirror:
  event_capacity: 100
`+operatorBlock))
	require.NoError(t, err)

	assert.Equal(t, "https://witness.local", cfg.Backend.BaseURL)
	assert.Equal(t, "wss://witness.local", cfg.Backend.WSURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.RequestTimeout)
	assert.Equal(t, 100, cfg.Mirror.EventCapacity)
}

func TestLoadRejectsUnknownDuplicatePolicy(t *testing.T) {
	_, err := Load(writeConfig(t, `
registry:
  duplicate_labels: overwrite
`+operatorBlock))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate_labels")
}

func TestLoadRequiresOperator(t *testing.T) {
	_, err := Load(writeConfig(t, "port: \"9000\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operator")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
