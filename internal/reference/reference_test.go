package reference

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseCPTConfig_YAML(t *testing.T) {
	path := writeFile(t, "cpt.yaml", `
valid_codes: [g0104, "92920"]
invalid_codes:
  - 11042
  - " 36415 "
valid_ranges:
  - [10004, 69990]
invalid_ranges:
  - [29000, 29799]
`)

	cfg, err := ParseCPTConfig(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"G0104", "92920"}, cfg.ValidCodes)
	assert.Equal(t, []string{"11042", "36415"}, cfg.InvalidCodes)
	assert.Equal(t, []Range{{10004, 69990}}, cfg.ValidRanges)
	assert.Equal(t, []Range{{29000, 29799}}, cfg.InvalidRanges)
}

func TestParseCPTConfig_JSON(t *testing.T) {
	path := writeFile(t, "cpt.json", `{"valid_codes": ["G0260"], "valid_ranges": [[93451, 93462]]}`)

	cfg, err := ParseCPTConfig(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"G0260"}, cfg.ValidCodes)
	assert.True(t, cfg.ValidRanges[0].Contains(93455))
}

func TestParseCPTConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"inverted range", "cpt.yaml", "valid_ranges:\n  - [200, 100]\n"},
		{"short range", "cpt.yaml", "valid_ranges:\n  - [200]\n"},
		{"empty config", "cpt.yaml", "other: 1\n"},
		{"malformed yaml", "cpt.yaml", "valid_codes: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCPTConfig(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadCPTConfig_FallsBackToDefaults(t *testing.T) {
	logger := zap.NewNop()

	cfg := LoadCPTConfig(filepath.Join(t.TempDir(), "missing.yaml"), logger)

	assert.Equal(t, DefaultCPTConfig(), cfg)
	assert.Contains(t, cfg.InvalidCodes, "36415")
	assert.Contains(t, cfg.ValidCodes, "G0121")
	assert.Len(t, cfg.ValidRanges, 4)
}

func TestReadSIDRegistry(t *testing.T) {
	input := "\xef\xbb\xbfprefix,name\nabc, Alpha Surgery Center\nXYZ,\"Xylo, LLC\"\n"

	registry, err := ReadSIDRegistry(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())
	name, ok := registry.Lookup("ABC")
	assert.True(t, ok)
	assert.Equal(t, "Alpha Surgery Center", name)
	name, ok = registry.Lookup("xyz")
	assert.True(t, ok)
	assert.Equal(t, "Xylo, LLC", name)
	_, ok = registry.Lookup("QQQ")
	assert.False(t, ok)
}

func TestReadSIDRegistry_InvalidPrefix(t *testing.T) {
	_, err := ReadSIDRegistry(strings.NewReader("ABC,Alpha\nAB1,Broken\n"))
	assert.Error(t, err)
}

func TestLoadSIDRegistry_Missing(t *testing.T) {
	registry := LoadSIDRegistry(filepath.Join(t.TempDir(), "none.csv"), zap.NewNop())

	assert.Equal(t, 0, registry.Len())
	_, ok := registry.Lookup("ABC")
	assert.False(t, ok)
}

func TestLoadSIDRegistry_File(t *testing.T) {
	path := writeFile(t, "sid_registry.csv", "ABC,Alpha Surgery Center\n")

	registry := LoadSIDRegistry(path, zap.NewNop())

	name, ok := registry.Lookup("ABC")
	assert.True(t, ok)
	assert.Equal(t, "Alpha Surgery Center", name)
}
