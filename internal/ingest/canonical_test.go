package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Bengaluru Urban", "bengaluru urban"},
		{"trims", "  Mysuru  ", "mysuru"},
		{"collapses internal whitespace", "Dakshina \t Kannada", "dakshina kannada"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalKey(tt.in))
		})
	}
}

func TestCanonicalizer_Aliases(t *testing.T) {
	canon := NewCanonicalizer(map[string]string{
		"Bangalore":       "Bengaluru Urban",
		"Mysore ":         "Mysuru",
		"BANGALORE RURAL": "Bengaluru Rural",
	})

	assert.Equal(t, "bengaluru urban", canon.Key("bangalore"))
	assert.Equal(t, "bengaluru urban", canon.Key("  Bangalore "))
	assert.Equal(t, "mysuru", canon.Key("Mysore"))
	assert.Equal(t, "bengaluru rural", canon.Key("Bangalore Rural"))

	// Names without an alias pass through canonicalized.
	assert.Equal(t, "kodagu", canon.Key("Kodagu"))
}

func TestLoadAliases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	data := []byte("aliases:\n  Bangalore: Bengaluru Urban\n  Mysore: Mysuru\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	canon, err := LoadAliases(path)
	require.NoError(t, err)
	assert.Equal(t, "bengaluru urban", canon.Key("Bangalore"))
	assert.Equal(t, "mysuru", canon.Key("MYSORE"))
}

func TestLoadAliases_MissingFile(t *testing.T) {
	canon, err := LoadAliases(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "shivamogga", canon.Key("Shivamogga"))
}

func TestLoadAliases_EmptyPath(t *testing.T) {
	canon, err := LoadAliases("")
	require.NoError(t, err)
	assert.Equal(t, "udupi", canon.Key("Udupi"))
}
