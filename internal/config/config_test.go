package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Environment: "development",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Metadata: MetadataConfig{
			BasePath: "/some/path",
			TTLDays:  30,
		},
		Library: LibraryConfig{
			GamesPath: "/games",
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"WARN", true}, // levels are case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_TTLMustBePositive(t *testing.T) {
	cfg := validConfig()
	cfg.Metadata.TTLDays = 0
	assert.Error(t, cfg.Validate())

	cfg.Metadata.TTLDays = -5
	assert.Error(t, cfg.Validate())
}

func TestValidate_EmptyGamesPathAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.Library.GamesPath = ""
	assert.NoError(t, cfg.Validate())
}

func TestTTL_Duration(t *testing.T) {
	cfg := validConfig()
	cfg.Metadata.TTLDays = 30
	assert.Equal(t, 30*24*time.Hour, cfg.TTL())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name        string
		path        string
		defaultPath string
		want        string
	}{
		{"empty uses default", "", "/default", "/default"},
		{"absolute stays", "/abs/path", "/default", "/abs/path"},
		{"tilde expands", "~/games", "", filepath.Join(home, "games")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandPath(tt.path, tt.defaultPath)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("GV_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "GV_TEST_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "GV_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "GV_TEST_KEY_UNSET", "default"))
}

func TestGetBoolConfigValue(t *testing.T) {
	t.Setenv("GV_TEST_BOOL", "yes")
	assert.True(t, getBoolConfigValue("", "GV_TEST_BOOL", false))

	t.Setenv("GV_TEST_BOOL", "0")
	assert.False(t, getBoolConfigValue("", "GV_TEST_BOOL", true))

	assert.True(t, getBoolConfigValue("", "GV_TEST_BOOL_UNSET", true))
}

func TestGetIntConfigValue(t *testing.T) {
	t.Setenv("GV_TEST_INT", "45")
	assert.Equal(t, 45, getIntConfigValue("", "GV_TEST_INT", 30))

	t.Setenv("GV_TEST_INT", "not-a-number")
	assert.Equal(t, 30, getIntConfigValue("", "GV_TEST_INT", 30))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")

	content := "# comment\nGV_ENVFILE_KEY=hello\nGV_ENVFILE_QUOTED=\"world\"\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	t.Cleanup(func() {
		os.Unsetenv("GV_ENVFILE_KEY")
		os.Unsetenv("GV_ENVFILE_QUOTED")
	})

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "hello", os.Getenv("GV_ENVFILE_KEY"))
	assert.Equal(t, "world", os.Getenv("GV_ENVFILE_QUOTED"))
}
