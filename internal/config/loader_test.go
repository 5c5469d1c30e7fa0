package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvString(t *testing.T) {
	os.Setenv("TEST_API_KEY", "secret-key-123")
	os.Setenv("TEST_PATH", "/path/to/data")
	defer os.Unsetenv("TEST_API_KEY")
	defer os.Unsetenv("TEST_PATH")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"braced form", "${TEST_API_KEY}", "secret-key-123"},
		{"bare form", "$TEST_API_KEY", "secret-key-123"},
		{"embedded in a larger string", "key:${TEST_API_KEY}:end", "key:secret-key-123:end"},
		{"two variables", "${TEST_API_KEY}:${TEST_PATH}", "secret-key-123:/path/to/data"},
		{"unset variable stays verbatim", "${NONEXISTENT_VAR}", "${NONEXISTENT_VAR}"},
		{"empty string", "", ""},
		{"no variables at all", "plain-text", "plain-text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvString(tt.input))
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "sk-test-123")
	os.Setenv("UPLOAD_DIR", "/custom/uploads")
	defer os.Unsetenv("OPENAI_API_KEY")
	defer os.Unsetenv("UPLOAD_DIR")

	cfg := Config{
		Providers: map[string]ProviderConfig{
			"openai": {
				Enabled: true,
				Model:   "gpt-4o",
				APIKey:  "${OPENAI_API_KEY}",
			},
		},
		Storage: StorageConfig{
			UploadDir: "${UPLOAD_DIR}",
		},
	}

	expanded := expandEnvVars(cfg)

	assert.Equal(t, "sk-test-123", expanded.Providers["openai"].APIKey)
	assert.Equal(t, "/custom/uploads", expanded.Storage.UploadDir)
}

func TestExpandEnvVarsProviderOverrides(t *testing.T) {
	os.Setenv("PROVIDER_TIMEOUT", "90s")
	defer os.Unsetenv("PROVIDER_TIMEOUT")

	timeout := "${PROVIDER_TIMEOUT}"
	cfg := Config{
		Providers: map[string]ProviderConfig{
			"gemini": {
				Enabled: true,
				Timeout: &timeout,
			},
		},
	}

	expanded := expandEnvVars(cfg)

	assert.Equal(t, "90s", *expanded.Providers["gemini"].Timeout)
}

func TestLocateConfigFilePrefersEarlierPaths(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	for _, dir := range []string{first, second} {
		err := os.WriteFile(dir+"/deepcheck.yaml", []byte("api:\n  addr: \":8080\"\n"), 0o600)
		assert.NoError(t, err)
	}

	found := locateConfigFile("deepcheck", []string{first, second})

	assert.Equal(t, first+"/deepcheck.yaml", found)
}

func TestLocateConfigFileMissing(t *testing.T) {
	found := locateConfigFile("deepcheck", []string{t.TempDir()})
	assert.Empty(t, found)
}
