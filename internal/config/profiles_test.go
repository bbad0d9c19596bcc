package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dedupe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProfiles(t *testing.T) {
	path := writeProfiles(t, `
default:
  fuzzy_threshold: 85
  key_fields: [email, name]
  exact_match_fields: [email]
  skip_fields: [id]

entities:
  account:
    fuzzy_threshold: 90
    key_fields: [name, website]
`)

	profiles, err := LoadProfiles(path)
	require.NoError(t, err)

	assert.Equal(t, 85.0, profiles.Default.FuzzyThreshold)
	assert.Equal(t, []string{"email", "name"}, profiles.Default.KeyFields)
}

func TestForEntityOverridesAndInherits(t *testing.T) {
	path := writeProfiles(t, `
default:
  fuzzy_threshold: 85
  key_fields: [email, name]
  exact_match_fields: [email]
  skip_fields: [id]

entities:
  account:
    fuzzy_threshold: 90
    key_fields: [name, website]
`)

	profiles, err := LoadProfiles(path)
	require.NoError(t, err)

	account := profiles.ForEntity("account")
	assert.Equal(t, 90.0, account.FuzzyThreshold)
	assert.Equal(t, []string{"name", "website"}, account.KeyFields)
	// Unset fields inherit from the default.
	assert.Equal(t, []string{"email"}, account.ExactMatchFields)
	assert.Equal(t, []string{"id"}, account.SkipFields)

	// Unknown entity falls back to the default wholesale.
	contact := profiles.ForEntity("contact")
	assert.Equal(t, profiles.Default, contact)
}

func TestLoadProfilesDefaultThreshold(t *testing.T) {
	path := writeProfiles(t, `
default:
  key_fields: [email, name]
`)

	profiles, err := LoadProfiles(path)
	require.NoError(t, err)
	assert.Equal(t, 85.0, profiles.Default.FuzzyThreshold)
}

func TestLoadProfilesMissingFile(t *testing.T) {
	_, err := LoadProfiles(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
