package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "CA", cfg.DefaultState)
	assert.Equal(t, 20, cfg.MaxPartiesPerType)
	assert.Equal(t, 30*time.Minute, cfg.TaxonomyCacheTTL)
	assert.True(t, cfg.RequireParty)
	assert.False(t, cfg.DropboxEnabled)

	assert.True(t, cfg.PostalCodePattern.MatchString("94601"))
	assert.True(t, cfg.PostalCodePattern.MatchString("94601-1234"))
	assert.False(t, cfg.PostalCodePattern.MatchString("ABC123"))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DEFAULT_STATE", "NY")
	t.Setenv("MAX_PARTIES_PER_TYPE", "5")
	t.Setenv("REQUIRE_PARTY", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "NY", cfg.DefaultState)
	assert.Equal(t, 5, cfg.MaxPartiesPerType)
	assert.False(t, cfg.RequireParty)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("POSTAL_CODE_PATTERN", "([")
	_, err := Load()
	assert.Error(t, err)
}
