package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := write(t, `
workers = 3
exclude = ["**/Generated/**"]
boundary_aware_ancestry = true
log_level = "debug"

[composition]
format = "toon"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	want := Defaults()
	want.Workers = 3
	want.Exclude = []string{"**/Generated/**"}
	want.BoundaryAwareAncestry = true
	want.LogLevel = "debug"
	want.Composition.Format = "toon"
	assert.Equal(t, want, cfg)
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "wokers = 2\n"},
		{"syntax", "workers = \n"},
		{"negative workers", "workers = -1\n"},
		{"zero size", "max_file_size = 0\n"},
		{"bad glob", "exclude = [\"[\"]\n"},
		{"bad level", "log_level = \"loud\"\n"},
		{"bad composition format", "[composition]\nformat = \"json\"\n"},
		{"bad usings format", "[usings]\nformat = \"xml\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(write(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLocate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sln := filepath.Join(dir, "Shop.sln")
	require.NoError(t, os.WriteFile(sln, nil, 0o644))

	assert.Equal(t, "custom.toml", Locate(dir, "custom.toml"))
	assert.Equal(t, filepath.Join(dir, FileName), Locate(dir, ""))
	assert.Equal(t, filepath.Join(dir, FileName), Locate(sln, ""))
}

func TestEffectiveWorkers(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	assert.GreaterOrEqual(t, cfg.EffectiveWorkers(), 1)
	cfg.Workers = 1
	assert.Equal(t, 1, cfg.EffectiveWorkers())
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("")
	assert.Error(t, err)
}
