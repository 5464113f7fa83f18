package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, ".encrypted", cfg.Suffix.Encrypt)
	assert.Equal(t, ".decrypted", cfg.Suffix.Decrypt)
	assert.Equal(t, "AES_256_GCM_IV12_TAG16_HKDF_SHA384_ECDSA_P384", cfg.Encrypt.Algorithm)
	assert.Equal(t, 4096, cfg.Encrypt.FrameLength)
	assert.Equal(t, "json", cfg.Metadata.Format)
	assert.Empty(t, cfg.Key)
}

func TestWorkingDirConfigOverridesDefaults(t *testing.T) {
	tmp := t.TempDir()
	content := `
[suffix]
encrypt = ".sealed"

[encrypt]
frame_length = 1024
`
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".envelope.toml"), []byte(content), 0644))

	cfg, err := load(tmp, "")
	require.NoError(t, err)

	assert.Equal(t, ".sealed", cfg.Suffix.Encrypt)
	assert.Equal(t, 1024, cfg.Encrypt.FrameLength)
	// Keys not overridden keep their defaults.
	assert.Equal(t, ".decrypted", cfg.Suffix.Decrypt)
	assert.Equal(t, "json", cfg.Metadata.Format)
}

func TestExplicitConfigWinsOverWorkingDir(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".envelope.toml"),
		[]byte("[metadata]\nformat = \"xml\"\n"), 0644))

	explicit := filepath.Join(tmp, "override.toml")
	require.NoError(t, os.WriteFile(explicit,
		[]byte("[metadata]\nformat = \"json\"\n\n[key]\npassphrase = \"hunter2\"\n"), 0644))

	cfg, err := load(tmp, explicit)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Metadata.Format)
	assert.Equal(t, "hunter2", cfg.Key["passphrase"])
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := load("", "/nonexistent/envelope.toml")
	require.Error(t, err)
}

func TestGenerateConfigContent(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	content, err := GenerateConfigContent(cfg)
	require.NoError(t, err)

	assert.Contains(t, content, "[suffix]")
	assert.Contains(t, content, "[encrypt]")
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		assert.True(t, strings.HasPrefix(trimmed, "["),
			"non-comment line should be a section header: %q", line)
	}
}
