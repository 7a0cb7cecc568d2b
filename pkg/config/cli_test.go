package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCLIRequiresCatalog(t *testing.T) {
	_, _, err := ParseCLI([]string{"--no-config"})
	assert.Error(t, err)
}

func TestParseCLIAppliesOverrides(t *testing.T) {
	cfg, opts, err := ParseCLI([]string{"--no-config", "--catalog", "names.csv", "--k-factor", "24", "--user", "alice"})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 24.0, cfg.KFactor)
	assert.Equal(t, "alice", opts.User)
	assert.Equal(t, "names.csv", opts.Catalog)
}

func TestParseCLIRejectsUnexpectedArgs(t *testing.T) {
	_, _, err := ParseCLI([]string{"--no-config", "--catalog", "names.csv", "extra"})
	assert.Error(t, err)
}
