package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8000, config.Server.Port)
	assert.Equal(t, "NeighborhoodAI/1.0", config.Crawler.UserAgent)
	assert.Equal(t, 50, config.Crawler.MaxPages)
	assert.Equal(t, int64(120*1024*1024), config.Crawler.MaxBytes)
	assert.Equal(t, 10_000_000, config.Crawler.MaxWords)
	assert.Equal(t, 50, config.Transcript.MaxVideos)
	assert.Equal(t, "chromem", config.Index.Backend)
	assert.Equal(t, 5, config.Index.TopK)
	assert.Equal(t, "llama3.1:8b", config.LLM.DefaultModel)
}

func TestLoadFromFiles_LaterFileOverrides(t *testing.T) {
	base := writeConfigFile(t, "base.toml", `
[server]
port = 9000
host = "0.0.0.0"

[index]
backend = "qdrant"
`)
	override := writeConfigFile(t, "override.toml", `
[server]
port = 9100

[jobs]
concurrency = 2
`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, "qdrant", config.Index.Backend)
	assert.Equal(t, 2, config.Jobs.Concurrency)
	// Untouched sections keep their defaults
	assert.Equal(t, 64, config.Jobs.QueueSize)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "config.toml", `
[server]
port = 9000
`)
	t.Setenv("NEIGHBORHOOD_SERVER_PORT", "9200")
	t.Setenv("NEIGHBORHOOD_LOG_OUTPUT", "stdout, file ,")
	t.Setenv("NEIGHBORHOOD_INDEX_BACKEND", "qdrant")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9200, config.Server.Port)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
	assert.Equal(t, "qdrant", config.Index.Backend)
}

func TestLoadFromFiles_RejectsInvalidSchedule(t *testing.T) {
	path := writeConfigFile(t, "config.toml", `
[scheduler]
enabled = true
schedule = "*/5 * * * *"
`)

	_, err := LoadFromFiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler.schedule")
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 8000, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)

	ApplyFlagOverrides(config, 8080, "127.0.0.1")
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	assert.Equal(t, "project-key", ResolveAPIKey("openai", "project-key", "config-key"))
	assert.Equal(t, "config-key", ResolveAPIKey("openai", "", "config-key"))
	assert.Equal(t, "env-key", ResolveAPIKey("openai", "", ""))
	assert.Equal(t, "", ResolveAPIKey("gemini-unset-provider", "", ""))
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 3 * * *"))
	assert.NoError(t, ValidateSchedule("30 */6 * * 1-5"))
	assert.Error(t, ValidateSchedule("* * * * *"))
	assert.Error(t, ValidateSchedule("*/10 * * * *"))
	assert.Error(t, ValidateSchedule("not a cron"))
}

func TestLoadFromFiles_SampleDeploymentConfig(t *testing.T) {
	config, err := LoadFromFiles(filepath.Join("..", "..", "deployments", "local", "neighborhood.toml"))
	require.NoError(t, err)

	defaults := NewDefaultConfig()
	assert.Equal(t, defaults.Server.Port, config.Server.Port)
	assert.Equal(t, defaults.Storage.Badger.GCInterval, config.Storage.Badger.GCInterval)
	assert.Equal(t, defaults.Crawler.RequestDelay, config.Crawler.RequestDelay)
	assert.Equal(t, defaults.Crawler.MaxBytes, config.Crawler.MaxBytes)
	assert.Equal(t, defaults.WebSocket.ProgressInterval, config.WebSocket.ProgressInterval)
	assert.Equal(t, defaults.Scheduler.Schedule, config.Scheduler.Schedule)
	assert.Equal(t, 120*time.Second, config.LLM.Timeout.Duration())
	assert.Equal(t, 2*time.Minute, config.Transcript.ListingTimeout.Duration())
}

func TestLoadFromFiles_DurationStrings(t *testing.T) {
	path := writeConfigFile(t, "durations.toml", `
[crawler]
request_delay = "1500ms"
render_timeout = "45s"

[crawler.domain_delays]
"www.slow.gov" = "3s"

[websocket]
progress_interval = "0s"
`)

	config, err := LoadFromFiles(path)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, config.Crawler.RequestDelay.Duration())
	assert.Equal(t, 45*time.Second, config.Crawler.RenderTimeout.Duration())
	assert.Equal(t, 3*time.Second, config.Crawler.DomainDelays["www.slow.gov"].Duration())
	assert.Zero(t, config.WebSocket.ProgressInterval)
	// Fields absent from the file keep their defaults
	assert.Equal(t, 10*time.Minute, config.Storage.Badger.GCInterval.Duration())

	for _, bad := range []string{`"soon"`, `"-5s"`} {
		path := writeConfigFile(t, "bad.toml", "[llm]\ntimeout = "+bad+"\n")
		_, err := LoadFromFiles(path)
		assert.Error(t, err, bad)
	}
}

func TestDuration_TextRoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("250ms")))
	assert.Equal(t, 250*time.Millisecond, d.Duration())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "250ms", string(text))
}

func TestLoadFromFiles_AllowedOriginsEnv(t *testing.T) {
	t.Setenv("NEIGHBORHOOD_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, config.Server.AllowedOrigins)
}
