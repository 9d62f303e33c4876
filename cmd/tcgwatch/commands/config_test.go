package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"tcgwatch/internal/catalog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigJson5(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		retailers: ["Pokemon Center", "target"],
		thresholds: {"booster box": 161.64, "elite trainer box": 49.99},
		check_interval: 900,
		fetch: {max_attempts: 4, timeout_seconds: 2.5},
		email: {sender: "me@example.com", recipient: "you@example.com"},
		authenticity: {deny_terms: ["Coin Purse"]},
	}`), 0600))

	t.Setenv("TCGWATCH_API_KEY", "secret")
	t.Setenv("TCGWATCH_SMTP_PASSWORD", "hunter2")

	config, env, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "secret", env.APIKey)
	require.Equal(t, "hunter2", config.Email.Password)
	require.Equal(t, 15*time.Minute, config.Interval())
	require.Equal(t, 8000, config.Server.Port)
	require.Equal(t, ".", config.SnapshotDir)

	req, err := config.Request()
	require.NoError(t, err)
	require.Equal(t, []catalog.Retailer{catalog.PokemonCenter, catalog.Target}, req.Retailers)
	require.Equal(t, "elite trainer box", req.Thresholds[0].Key)

	fetch := config.FetcherOptions()
	require.Equal(t, 4, fetch.MaxAttempts)
	require.Equal(t, 2500*time.Millisecond, fetch.Timeout)

	require.Contains(t, config.AuthenticityLists().DenyTerms, "coin purse")
}

func TestLoadConfigLegacyKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
check_interval: 1800
retail_price_thresholds:
  booster box: 150
email_config:
  sender: me@example.com
  recipient: you@example.com
  password: app-password
`), 0600))

	config, _, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"booster box": 150}, config.Thresholds)
	require.Equal(t, "me@example.com", config.Email.Sender)

	req, err := config.Request()
	require.NoError(t, err)
	require.Equal(t, catalog.AllRetailers(), req.Retailers)
}

func TestLoadConfigMissingFile(t *testing.T) {
	config, _, err := LoadConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, config.Interval())
}

func TestConfigRequestErrors(t *testing.T) {
	_, err := Config{Retailers: []string{"Costco"}}.Request()
	require.Error(t, err)

	_, err = Config{Thresholds: map[string]float64{"booster box": -5}}.Request()
	require.Error(t, err)
}

func TestClassifyCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"classify", "Pokémon", "TCG:", "Prismatic", "Evolutions", "Elite", "Trainer", "Box"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), "category: elite trainer box")
}

func TestShippedConfigThresholds(t *testing.T) {
	config, _, err := LoadConfig(filepath.Join("..", "..", "..", "config.json5"))
	require.NoError(t, err)
	require.NotEmpty(t, config.Thresholds)

	// a key that is not part of any category name never applies
	for key := range config.Thresholds {
		matched := false
		for _, c := range catalog.AllCategories() {
			if c != catalog.CategoryUnknown && strings.Contains(c.Text(), strings.ToLower(key)) {
				matched = true
			}
		}
		require.True(t, matched, "threshold %q matches no category", key)
	}

	req, err := config.Request()
	require.NoError(t, err)
	for _, c := range catalog.AllCategories() {
		if c == catalog.CategoryUnknown {
			continue
		}
		_, ok := req.Thresholds.Match(c)
		require.True(t, ok, "no price ceiling for %s", c.Text())
	}

	opts := config.FetcherOptions()
	require.Equal(t, 2*time.Second, opts.MinDelay)
	require.Equal(t, 5*time.Second, opts.MaxDelay)
}
