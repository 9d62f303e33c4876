package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port      int      `json:"port"`
	Retailers []string `json:"retailers"`
	Dir       string   `json:"dir"`
}

func write(t *testing.T, path, contents string) {
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestReadConfigJson5WithLocalOverride(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		port: 5000,
		retailers: ["target"],
		dir: "results",
	}`)
	write(t, filepath.Join(dir, "config.local.json5"), `{port: 8080}`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Port:      8080,
		Retailers: []string{"target"},
		Dir:       "results",
	}, config)
}

func TestReadConfigYaml(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.yaml"), "port: 5000\nretailers:\n  - walmart\n  - gamestop\n")

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, 5000, config.Port)
	require.Equal(t, []string{"walmart", "gamestop"}, config.Retailers)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSplitExt(t *testing.T) {
	name, ext := splitExt("config.local.yaml")
	require.Equal(t, "config.local", name)
	require.Equal(t, "yaml", ext)

	name, ext = splitExt("config")
	require.Equal(t, "config", name)
	require.Equal(t, "", ext)
}

func TestLayers(t *testing.T) {
	require.Equal(t, []string{"dir/config.yml", "dir/config.local.yml"}, layers("dir/config.yml"))
	require.Equal(t, []string{"config", "config.local"}, layers("config"))
}

func TestReadConfigDecodeError(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.json5"), `{port: 1}`)
	write(t, filepath.Join(dir, "config.local.json5"), `{port: `)

	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.Equal(t, filepath.Join(dir, "config.local.json5"), decodeErr.Path)
}

func TestReadRecursively(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	write(t, filepath.Join(dir, "telemetry.json5"), `{port: 4318}`)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(wd) })

	config, err := ReadRecursively[testConfig]("telemetry.json5")
	require.NoError(t, err)
	require.Equal(t, 4318, config.Port)
}
