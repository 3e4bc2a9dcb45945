package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string `json:"name"`
	Port    int    `json:"port"`
	Verbose bool   `json:"verbose"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")

	_, err := ReadConfig[testConfig](name)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(name, []byte(`{
		// comments are allowed
		name: "base",
		port: 8080,
	}`), 0644))

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "base", Port: 8080}, cfg)

	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "config.local.json5"),
		[]byte(`{ port: 9090, verbose: true }`),
		0644,
	))

	cfg, err = ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "base", Port: 9090, Verbose: true}, cfg)
}

func TestLocalName(t *testing.T) {
	require.Equal(t, "a/config.local.json5", localName("a/config.json5"))
	require.Equal(t, "config.local", localName("config"))
}
